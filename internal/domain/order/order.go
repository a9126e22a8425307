// Package order holds the sales order aggregate, its lines, and the
// services that gate mutations and drive cascade recalculation.
package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/simple-orders/internal/domain"
)

// Display names used in error messages.
const (
	EntityName     = "order"
	LineEntityName = "order line"
)

// Status is the lifecycle state of an order. Orders are created open and
// close exactly once; there is no transition out of closed.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Code returns the single-character persistence code of the status.
func (s Status) Code() string {
	if s == StatusClosed {
		return "F"
	}
	return "A"
}

// StatusFromCode parses the single-character code used in storage and
// filter parameters.
func StatusFromCode(code string) (Status, error) {
	switch code {
	case "A":
		return StatusOpen, nil
	case "F":
		return StatusClosed, nil
	}
	return "", domain.InvalidInput("status", code, "A (open) or F (closed)")
}

// ParseStatus parses the spelled-out wire name.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusClosed:
		return Status(s), nil
	}
	return "", domain.InvalidInput("status", s, "OPEN or CLOSED")
}

// Order is a sales order: a code, a discount factor applied to its product
// lines, and an open/closed status. Discount factor and status are mutated
// only through ApplyDiscount and Close, never through a generic update.
type Order struct {
	ID             uuid.UUID
	Code           string
	DiscountFactor decimal.Decimal
	Status         Status
}

// codeLength is the exact length of an order code.
const codeLength = 8

// Validate checks the static field constraints of the order.
func (o *Order) Validate() error {
	if len(o.Code) != codeLength {
		return domain.InvalidInput("code", o.Code, "exactly 8 characters")
	}
	if err := validateDiscountFactor(o.DiscountFactor); err != nil {
		return err
	}
	if o.Status != StatusOpen && o.Status != StatusClosed {
		return domain.InvalidInput("status", string(o.Status), "OPEN or CLOSED")
	}
	return nil
}

func validateDiscountFactor(f decimal.Decimal) error {
	if f.IsNegative() || f.GreaterThan(decimal.NewFromInt(1)) {
		return domain.InvalidInput("discountFactor", f.String(), "a decimal in [0.00, 1.00]")
	}
	if f.Exponent() < -2 {
		return domain.InvalidInput("discountFactor", f.String(), "at most 2 decimal places")
	}
	return nil
}

// Line is one priced line of an order, referencing a sale item. Order and
// sale-item references are immutable after creation; the value is derived
// by the pricing engine and never set by a client.
type Line struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	SaleItemID uuid.UUID
	Value      decimal.Decimal
}

// Repository defines persistence operations for orders.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, f Filter, page domain.Page) ([]Order, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LineRepository defines persistence operations for order lines.
type LineRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Line, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID, f LineFilter, page domain.Page) ([]Line, error)
	CountByOrder(ctx context.Context, orderID uuid.UUID, f LineFilter) (int64, error)
	// ListAllByOrder returns every line of the order, unpaged.
	ListAllByOrder(ctx context.Context, orderID uuid.UUID) ([]Line, error)
	// ListOpenBySaleItem returns the lines referencing the item whose owning
	// order is open.
	ListOpenBySaleItem(ctx context.Context, saleItemID uuid.UUID) ([]Line, error)
	CountBySaleItem(ctx context.Context, saleItemID uuid.UUID) (int64, error)
	CountOpenBySaleItem(ctx context.Context, saleItemID uuid.UUID) (int64, error)
	// CountInactiveItemsByOrder counts the order's lines whose referenced
	// sale item is inactive.
	CountInactiveItemsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	Create(ctx context.Context, l *Line) error
	UpdateValue(ctx context.Context, id uuid.UUID, value decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}
