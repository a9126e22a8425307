package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/simple-orders/internal/domain"
)

// Lines is the view of the line side the order service needs: cascade
// recalculation, the inactive-item count used by the close guard, and mass
// deletion for the order delete cascade.
type Lines interface {
	RecalculateForOrder(ctx context.Context, o *Order) error
	CountInactiveItemLines(ctx context.Context, orderID uuid.UUID) (int64, error)
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// Service orchestrates order state transitions and triggers the
// recalculation cascades they require.
type Service struct {
	orders Repository
	lines  Lines
	atomic domain.Atomic
}

// NewService creates an order Service with the required capabilities.
func NewService(orders Repository, lines Lines, atomic domain.Atomic) *Service {
	return &Service{
		orders: orders,
		lines:  lines,
		atomic: atomic,
	}
}

// Get returns an order by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// List returns the matching orders and the total match count.
func (s *Service) List(ctx context.Context, f Filter, page domain.Page) ([]Order, int64, error) {
	orders, err := s.orders.List(ctx, f, page.Normalize())
	if err != nil {
		return nil, 0, errors.Wrap(err, "list orders")
	}
	total, err := s.orders.Count(ctx, f)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}
	return orders, total, nil
}

// Create persists a new order. The status is forced to open regardless of
// input; only Close transitions it.
func (s *Service) Create(ctx context.Context, code string, discountFactor decimal.Decimal) (*Order, error) {
	o := &Order{
		ID:             uuid.New(),
		Code:           code,
		DiscountFactor: discountFactor,
		Status:         StatusOpen,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	zctx.From(ctx).Info("Order created",
		zap.Stringer("id", o.ID),
		zap.String("code", o.Code),
	)
	return o, nil
}

// UpdateParams is the replacement state accepted by the generic update.
// Discount factor and status must match the stored values: changing them
// here fails, directing the caller to the dedicated operations.
type UpdateParams struct {
	Code           string
	DiscountFactor decimal.Decimal
	Status         Status
}

// Update changes the human-readable code of an order. Any attempt to change
// the discount factor or status through this path fails with an
// InvalidOperationError.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*Order, error) {
	var updated *Order
	err := s.atomic.InTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !p.DiscountFactor.Equal(o.DiscountFactor) {
			return domain.InvalidOperation(
				"cannot change the discount factor of %s %s through update: use the apply-discount operation",
				EntityName, id,
			)
		}
		if p.Status != o.Status {
			return domain.InvalidOperation(
				"cannot change the status of %s %s through update: use the close operation",
				EntityName, id,
			)
		}

		o.Code = p.Code
		if err := o.Validate(); err != nil {
			return err
		}
		if err := s.orders.Update(ctx, o); err != nil {
			return errors.Wrap(err, "update order")
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Info("Order updated", zap.Stringer("id", id))
	return updated, nil
}

// ApplyDiscount sets a new discount factor on an open order, persists it,
// and recalculates every line of the order from the new factor. The whole
// cascade commits atomically.
func (s *Service) ApplyDiscount(ctx context.Context, id uuid.UUID, factor decimal.Decimal) (*Order, error) {
	if err := validateDiscountFactor(factor); err != nil {
		return nil, err
	}

	var updated *Order
	err := s.atomic.InTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o.Status == StatusClosed {
			return domain.InvalidOperation("cannot change the discount factor of closed %s %s", EntityName, id)
		}

		o.DiscountFactor = factor
		if err := s.orders.Update(ctx, o); err != nil {
			return errors.Wrap(err, "update order")
		}
		if err := s.lines.RecalculateForOrder(ctx, o); err != nil {
			return errors.Wrap(err, "recalculate lines")
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Info("Order discount applied",
		zap.Stringer("id", id),
		zap.String("factor", factor.String()),
	)
	return updated, nil
}

// Close transitions an open order to closed. Inactivation of referenced
// items is already blocked while orders are open, so the inactive-item
// check here is a redundant safety net against bypassed paths, as is the
// final recomputation of the line values.
func (s *Service) Close(ctx context.Context, id uuid.UUID) (*Order, error) {
	var closed *Order
	err := s.atomic.InTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o.Status == StatusClosed {
			return domain.InvalidOperation("cannot close %s %s: already closed", EntityName, id)
		}

		inactive, err := s.lines.CountInactiveItemLines(ctx, id)
		if err != nil {
			return errors.Wrap(err, "count inactive item lines")
		}
		if inactive > 0 {
			return domain.InvalidOperation(
				"cannot close %s %s: %d line(s) reference inactive sale items",
				EntityName, id, inactive,
			)
		}

		if err := s.lines.RecalculateForOrder(ctx, o); err != nil {
			return errors.Wrap(err, "recalculate lines")
		}

		o.Status = StatusClosed
		if err := s.orders.Update(ctx, o); err != nil {
			return errors.Wrap(err, "update order")
		}
		closed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Info("Order closed", zap.Stringer("id", id))
	return closed, nil
}

// Delete removes an order and every line it owns. Irreversible.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	var removed int64
	err := s.atomic.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.orders.GetByID(ctx, id); err != nil {
			return err
		}
		n, err := s.lines.DeleteByOrder(ctx, id)
		if err != nil {
			return errors.Wrap(err, "delete lines")
		}
		removed = n
		return s.orders.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	zctx.From(ctx).Info("Order deleted",
		zap.Stringer("id", id),
		zap.Int64("lines_removed", removed),
	)
	return nil
}
