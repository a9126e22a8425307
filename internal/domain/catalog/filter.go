package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/simple-orders/internal/domain"
)

// Filter narrows a sale-item listing. Zero-value fields are ignored.
type Filter struct {
	// Name matches case-insensitively anywhere in the item name.
	Name     string
	Type     *ItemType
	Active   *bool
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// filterParsers maps each recognized query parameter to the logic that
// parses its value into the filter. Keys absent from this table are dropped
// silently; malformed values fail with an InvalidInputError naming the
// parameter and expected format.
var filterParsers = map[string]func(*Filter, string) error{
	"name": func(f *Filter, v string) error {
		f.Name = v
		return nil
	},
	"type": func(f *Filter, v string) error {
		t, err := ItemTypeFromCode(v)
		if err != nil {
			return err
		}
		f.Type = &t
		return nil
	},
	"active": func(f *Filter, v string) error {
		b, err := parseFlag("active", v)
		if err != nil {
			return err
		}
		f.Active = &b
		return nil
	},
	"minPrice": func(f *Filter, v string) error {
		d, err := parseDecimal("minPrice", v)
		if err != nil {
			return err
		}
		f.MinPrice = &d
		return nil
	},
	"maxPrice": func(f *Filter, v string) error {
		d, err := parseDecimal("maxPrice", v)
		if err != nil {
			return err
		}
		f.MaxPrice = &d
		return nil
	},
}

// ParseFilter builds a Filter from raw query parameters. Empty values and
// unrecognized keys are dropped.
func ParseFilter(params map[string]string) (Filter, error) {
	var f Filter
	for key, value := range params {
		if value == "" {
			continue
		}
		parse, ok := filterParsers[key]
		if !ok {
			continue
		}
		if err := parse(&f, value); err != nil {
			return Filter{}, err
		}
	}
	return f, nil
}

// parseFlag parses the single-character boolean encoding used by filter
// parameters: S (yes) or N (no).
func parseFlag(param, v string) (bool, error) {
	switch v {
	case "S":
		return true, nil
	case "N":
		return false, nil
	}
	return false, domain.InvalidInput(param, v, "S (yes) or N (no)")
}

func parseDecimal(param, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, domain.InvalidInput(param, v, "a decimal value")
	}
	return d, nil
}
