// Package money defines the canonical scale and rounding policy applied to
// every computed monetary value. The policy is an explicit value injected
// where prices are computed, so a deployment can swap scale or mode without
// touching call sites.
package money

import "github.com/shopspring/decimal"

// Mode selects the rounding mode of a Policy.
type Mode int

const (
	// HalfEven rounds half values to the nearest even digit (banker's
	// rounding), minimizing cumulative bias under repeated recalculation.
	HalfEven Mode = iota
	// HalfUp rounds half values away from zero.
	HalfUp
)

// Policy is a fixed decimal scale plus rounding mode.
type Policy struct {
	Scale int32
	Mode  Mode
}

// Default is the policy used for order-line values: two decimal places,
// round half to even.
var Default = Policy{Scale: 2, Mode: HalfEven}

// Round applies the policy to d. It is idempotent: rounding an already
// rounded value returns it unchanged.
func (p Policy) Round(d decimal.Decimal) decimal.Decimal {
	switch p.Mode {
	case HalfUp:
		return d.Round(p.Scale)
	default:
		return d.RoundBank(p.Scale)
	}
}
