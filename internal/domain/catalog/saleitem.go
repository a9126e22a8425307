// Package catalog holds the sellable catalog entries (sale items) and the
// service enforcing the rules that protect orders referencing them.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/simple-orders/internal/domain"
)

// EntityName is the display name used in error messages.
const EntityName = "sale item"

// ItemType classifies a sale item and decides whether an order's discount
// factor applies to lines referencing it.
type ItemType string

const (
	TypeProduct ItemType = "PRODUCT"
	TypeService ItemType = "SERVICE"
)

// DiscountFactor returns the fixed multiplier applied to the order discount:
// 1.00 for products (discount fully applied), 0.00 for services (never
// applied). This lookup is not configurable at runtime.
func (t ItemType) DiscountFactor() decimal.Decimal {
	if t == TypeProduct {
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}

// Code returns the single-character persistence code of the type.
func (t ItemType) Code() string {
	if t == TypeProduct {
		return "P"
	}
	return "S"
}

// ItemTypeFromCode parses the single-character code used in storage and
// filter parameters.
func ItemTypeFromCode(code string) (ItemType, error) {
	switch code {
	case "P":
		return TypeProduct, nil
	case "S":
		return TypeService, nil
	}
	return "", domain.InvalidInput("type", code, "P (product) or S (service)")
}

// ParseItemType parses the spelled-out wire name.
func ParseItemType(s string) (ItemType, error) {
	switch ItemType(s) {
	case TypeProduct, TypeService:
		return ItemType(s), nil
	}
	return "", domain.InvalidInput("type", s, "PRODUCT or SERVICE")
}

// SaleItem is a catalog entry that order lines may reference.
type SaleItem struct {
	ID        uuid.UUID
	Name      string
	Type      ItemType
	BasePrice decimal.Decimal
	Active    bool
}

// maxIntegerDigits bounds the integer part of a base price.
const maxIntegerDigits = 13

// Validate checks the static field constraints of the item.
func (s *SaleItem) Validate() error {
	if n := len(s.Name); n < 1 || n > 100 {
		return domain.InvalidInput("name", s.Name, "between 1 and 100 characters")
	}
	if s.Type != TypeProduct && s.Type != TypeService {
		return domain.InvalidInput("type", string(s.Type), "PRODUCT or SERVICE")
	}
	if s.BasePrice.IsNegative() {
		return domain.InvalidInput("basePrice", s.BasePrice.String(), "a non-negative decimal")
	}
	if s.BasePrice.Exponent() < -2 {
		return domain.InvalidInput("basePrice", s.BasePrice.String(), "at most 2 decimal places")
	}
	if len(s.BasePrice.Truncate(0).Abs().String()) > maxIntegerDigits {
		return domain.InvalidInput("basePrice", s.BasePrice.String(), "at most 13 integer digits")
	}
	return nil
}

// Repository defines persistence operations for sale items.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*SaleItem, error)
	List(ctx context.Context, f Filter, page domain.Page) ([]SaleItem, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Create(ctx context.Context, item *SaleItem) error
	Update(ctx context.Context, item *SaleItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}
