package domain

import "context"

// Atomic executes fn as a single atomic unit of work. Every read, guard
// check, and write performed through repositories inside fn commits
// together or not at all. Nested calls join the enclosing unit.
type Atomic interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Page bounds a listing. Limit <= 0 means the store default.
type Page struct {
	Offset int
	Limit  int
}

// DefaultPageSize is applied when a listing request does not bound itself.
const DefaultPageSize = 20

// MaxPageSize caps a single listing request.
const MaxPageSize = 100

// Normalize clamps the page to the allowed bounds.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}
