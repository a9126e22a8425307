package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/simple-orders/internal/domain"
)

// Filter narrows an order listing. Zero-value fields are ignored.
type Filter struct {
	// Code matches case-insensitively anywhere in the order code.
	Code   string
	Status *Status
}

var filterParsers = map[string]func(*Filter, string) error{
	"code": func(f *Filter, v string) error {
		f.Code = v
		return nil
	},
	"status": func(f *Filter, v string) error {
		st, err := StatusFromCode(v)
		if err != nil {
			return err
		}
		f.Status = &st
		return nil
	},
}

// ParseFilter builds a Filter from raw query parameters. Empty values and
// unrecognized keys are dropped; malformed values fail with an
// InvalidInputError naming the parameter and expected format.
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

// LineFilter narrows a line listing within an order.
type LineFilter struct {
	// ItemName matches case-insensitively anywhere in the referenced sale
	// item's name.
	ItemName string
	MinValue *decimal.Decimal
	MaxValue *decimal.Decimal
}

var lineFilterParsers = map[string]func(*LineFilter, string) error{
	"itemName": func(f *LineFilter, v string) error {
		f.ItemName = v
		return nil
	},
	"minValue": func(f *LineFilter, v string) error {
		d, err := parseDecimal("minValue", v)
		if err != nil {
			return err
		}
		f.MinValue = &d
		return nil
	},
	"maxValue": func(f *LineFilter, v string) error {
		d, err := parseDecimal("maxValue", v)
		if err != nil {
			return err
		}
		f.MaxValue = &d
		return nil
	},
}

// ParseLineFilter builds a LineFilter from raw query parameters, with the
// same drop and error semantics as ParseFilter.
func ParseLineFilter(params map[string]string) (LineFilter, error) {
	var f LineFilter
	for key, value := range params {
		if value == "" {
			continue
		}
		parse, ok := lineFilterParsers[key]
		if !ok {
			continue
		}
		if err := parse(&f, value); err != nil {
			return LineFilter{}, err
		}
	}
	return f, nil
}

func parseDecimal(param, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, domain.InvalidInput(param, v, "a decimal value")
	}
	return d, nil
}
