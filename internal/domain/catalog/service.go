package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/simple-orders/internal/domain"
)

// LineCounter reports how many order lines reference a sale item. It is the
// only view of the order side this service needs.
type LineCounter interface {
	// CountOpenLines counts lines referencing the item whose owning order
	// is still open.
	CountOpenLines(ctx context.Context, saleItemID uuid.UUID) (int64, error)
	// CountLines counts every line referencing the item, regardless of the
	// owning order's status.
	CountLines(ctx context.Context, saleItemID uuid.UUID) (int64, error)
}

// Recalculator propagates a price change to the affected order lines.
type Recalculator interface {
	RecalculateForSaleItem(ctx context.Context, item *SaleItem) error
}

// Service orchestrates catalog mutations, guarding the cross-entity rules
// before touching state.
type Service struct {
	items  Repository
	lines  LineCounter
	recalc Recalculator
	atomic domain.Atomic
}

// NewService creates a catalog Service with the required capabilities.
func NewService(items Repository, lines LineCounter, recalc Recalculator, atomic domain.Atomic) *Service {
	return &Service{
		items:  items,
		lines:  lines,
		recalc: recalc,
		atomic: atomic,
	}
}

// Get returns a sale item by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*SaleItem, error) {
	return s.items.GetByID(ctx, id)
}

// List returns the matching sale items and the total match count.
func (s *Service) List(ctx context.Context, f Filter, page domain.Page) ([]SaleItem, int64, error) {
	items, err := s.items.List(ctx, f, page.Normalize())
	if err != nil {
		return nil, 0, errors.Wrap(err, "list sale items")
	}
	total, err := s.items.Count(ctx, f)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count sale items")
	}
	return items, total, nil
}

// CreateParams holds the input for creating a sale item.
type CreateParams struct {
	Name      string
	Type      ItemType
	BasePrice decimal.Decimal
	// Active defaults to true when nil.
	Active *bool
}

// Create validates and persists a new sale item.
func (s *Service) Create(ctx context.Context, p CreateParams) (*SaleItem, error) {
	item := &SaleItem{
		ID:        uuid.New(),
		Name:      p.Name,
		Type:      p.Type,
		BasePrice: p.BasePrice,
		Active:    true,
	}
	if p.Active != nil {
		item.Active = *p.Active
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, errors.Wrap(err, "create sale item")
	}

	zctx.From(ctx).Info("Sale item created",
		zap.Stringer("id", item.ID),
		zap.String("type", string(item.Type)),
	)
	return item, nil
}

// UpdateParams holds the replacement state for a sale item. The type must
// match the stored one: it is immutable after creation.
type UpdateParams struct {
	Name      string
	Type      ItemType
	BasePrice decimal.Decimal
	Active    bool
}

// Update applies p to the stored item. Deactivation is blocked while open
// orders reference the item. A base-price change is persisted first, then
// the affected open order lines are recalculated from the new price, all in
// one atomic unit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*SaleItem, error) {
	var updated *SaleItem
	err := s.atomic.InTx(ctx, func(ctx context.Context) error {
		item, err := s.items.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if p.Type != item.Type {
			return domain.InvalidOperation("cannot change the type of %s %s after creation", EntityName, id)
		}
		if item.Active && !p.Active {
			open, err := s.lines.CountOpenLines(ctx, id)
			if err != nil {
				return errors.Wrap(err, "count open lines")
			}
			if open > 0 {
				return domain.InvalidOperation(
					"cannot deactivate %s %s: referenced by %d line(s) of open orders",
					EntityName, id, open,
				)
			}
		}

		priceChanged := !p.BasePrice.Equal(item.BasePrice)
		reactivated := !item.Active && p.Active

		item.Name = p.Name
		item.BasePrice = p.BasePrice
		item.Active = p.Active
		if err := item.Validate(); err != nil {
			return err
		}
		if err := s.items.Update(ctx, item); err != nil {
			return errors.Wrap(err, "update sale item")
		}

		// Recalculation must read the already-persisted price. An inactive
		// item has no lines under open orders, so there is nothing to touch.
		if item.Active && (priceChanged || reactivated) {
			if err := s.recalc.RecalculateForSaleItem(ctx, item); err != nil {
				return errors.Wrap(err, "recalculate lines")
			}
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Info("Sale item updated", zap.Stringer("id", id))
	return updated, nil
}

// Delete removes a sale item. It is blocked while any order line references
// the item, whatever the order status.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.atomic.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.items.GetByID(ctx, id); err != nil {
			return err
		}
		refs, err := s.lines.CountLines(ctx, id)
		if err != nil {
			return errors.Wrap(err, "count lines")
		}
		if refs > 0 {
			return domain.InvalidOperation(
				"cannot delete %s %s: referenced by %d order line(s)",
				EntityName, id, refs,
			)
		}
		return s.items.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	zctx.From(ctx).Info("Sale item deleted", zap.Stringer("id", id))
	return nil
}
