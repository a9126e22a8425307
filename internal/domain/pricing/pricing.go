// Package pricing computes order-line values from catalog and order state.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/simple-orders/internal/domain"
	"github.com/xenking/simple-orders/internal/domain/money"
)

// Engine derives order-line values. It is pure: no side effects, no state
// beyond the injected rounding policy.
type Engine struct {
	policy money.Policy
}

// NewEngine creates an Engine using the given rounding policy.
func NewEngine(policy money.Policy) *Engine {
	return &Engine{policy: policy}
}

// LineValue computes the value of an order line:
//
//	value = round(base - base * (discountFactor * typeFactor))
//
// The result passes through the rounding policy exactly once. Inputs are
// re-validated here even though upstream validation should already hold:
// a negative base price or a discount factor outside [0, 1] fails with an
// InvalidInputError.
func (e *Engine) LineValue(basePrice, typeFactor, discountFactor decimal.Decimal) (decimal.Decimal, error) {
	if basePrice.IsNegative() {
		return decimal.Zero, domain.InvalidInput("basePrice", basePrice.String(), "a non-negative decimal")
	}
	if discountFactor.IsNegative() || discountFactor.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, domain.InvalidInput("discountFactor", discountFactor.String(), "a decimal in [0.00, 1.00]")
	}

	effective := discountFactor.Mul(typeFactor)
	return e.policy.Round(basePrice.Sub(basePrice.Mul(effective))), nil
}
