package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/simple-orders/internal/domain"
	"github.com/xenking/simple-orders/internal/domain/catalog"
	"github.com/xenking/simple-orders/internal/domain/pricing"
)

// SaleItems resolves catalog entries by id. It is the only view of the
// catalog side the line service needs.
type SaleItems interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.SaleItem, error)
}

// LineService orchestrates order-line creation, deletion, and the cascade
// recalculation triggered by order- and catalog-side changes.
type LineService struct {
	lines  LineRepository
	orders Repository
	items  SaleItems
	pricer *pricing.Engine
	atomic domain.Atomic
}

// NewLineService creates a LineService with the required capabilities.
func NewLineService(
	lines LineRepository,
	orders Repository,
	items SaleItems,
	pricer *pricing.Engine,
	atomic domain.Atomic,
) *LineService {
	return &LineService{
		lines:  lines,
		orders: orders,
		items:  items,
		pricer: pricer,
		atomic: atomic,
	}
}

// Get returns an order line by id.
func (s *LineService) Get(ctx context.Context, id uuid.UUID) (*Line, error) {
	return s.lines.GetByID(ctx, id)
}

// ListByOrder returns the matching lines of an order and the total match
// count. The order itself must resolve.
func (s *LineService) ListByOrder(ctx context.Context, orderID uuid.UUID, f LineFilter, page domain.Page) ([]Line, int64, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, 0, err
	}
	lines, err := s.lines.ListByOrder(ctx, orderID, f, page.Normalize())
	if err != nil {
		return nil, 0, errors.Wrap(err, "list lines")
	}
	total, err := s.lines.CountByOrder(ctx, orderID, f)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count lines")
	}
	return lines, total, nil
}

// Add creates a line on an open order referencing an active sale item,
// pricing it once from the current catalog and order state.
func (s *LineService) Add(ctx context.Context, orderID, saleItemID uuid.UUID) (*Line, error) {
	var created *Line
	err := s.atomic.InTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		item, err := s.items.GetByID(ctx, saleItemID)
		if err != nil {
			return err
		}
		if !item.Active {
			return domain.InvalidOperation(
				"cannot add inactive %s %s to %s %s",
				catalog.EntityName, saleItemID, EntityName, orderID,
			)
		}
		if o.Status == StatusClosed {
			return domain.InvalidOperation("cannot add a line to closed %s %s", EntityName, orderID)
		}

		value, err := s.pricer.LineValue(item.BasePrice, item.Type.DiscountFactor(), o.DiscountFactor)
		if err != nil {
			return err
		}

		l := &Line{
			ID:         uuid.New(),
			OrderID:    orderID,
			SaleItemID: saleItemID,
			Value:      value,
		}
		if err := s.lines.Create(ctx, l); err != nil {
			return errors.Wrap(err, "create line")
		}
		created = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Info("Order line added",
		zap.Stringer("id", created.ID),
		zap.Stringer("order_id", orderID),
		zap.Stringer("sale_item_id", saleItemID),
	)
	return created, nil
}

// Remove deletes a line. Lines of closed orders are frozen with the rest of
// the order and cannot be removed.
func (s *LineService) Remove(ctx context.Context, id uuid.UUID) error {
	err := s.atomic.InTx(ctx, func(ctx context.Context) error {
		l, err := s.lines.GetByID(ctx, id)
		if err != nil {
			return err
		}
		o, err := s.orders.GetByID(ctx, l.OrderID)
		if err != nil {
			return err
		}
		if o.Status == StatusClosed {
			return domain.InvalidOperation("cannot remove a line from closed %s %s", EntityName, o.ID)
		}
		return s.lines.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	zctx.From(ctx).Info("Order line removed", zap.Stringer("id", id))
	return nil
}

// RecalculateForOrder recomputes and persists the value of every line of
// the order. The order must resolve and be open, and every referenced sale
// item must be active; the guards run before any line is touched. Line
// order is irrelevant: each value depends only on its own sale item.
func (s *LineService) RecalculateForOrder(ctx context.Context, o *Order) error {
	current, err := s.orders.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	if current.Status == StatusClosed {
		return domain.InvalidOperation("cannot recalculate the lines of closed %s %s", EntityName, o.ID)
	}

	lines, err := s.lines.ListAllByOrder(ctx, o.ID)
	if err != nil {
		return errors.Wrap(err, "list lines")
	}

	items := make(map[uuid.UUID]*catalog.SaleItem, len(lines))
	for _, l := range lines {
		if _, ok := items[l.SaleItemID]; ok {
			continue
		}
		item, err := s.items.GetByID(ctx, l.SaleItemID)
		if err != nil {
			return err
		}
		if !item.Active {
			return domain.InvalidOperation(
				"cannot recalculate the lines of %s %s: %s %s is inactive",
				EntityName, o.ID, catalog.EntityName, item.ID,
			)
		}
		items[l.SaleItemID] = item
	}

	for _, l := range lines {
		item := items[l.SaleItemID]
		value, err := s.pricer.LineValue(item.BasePrice, item.Type.DiscountFactor(), current.DiscountFactor)
		if err != nil {
			return err
		}
		if err := s.lines.UpdateValue(ctx, l.ID, value); err != nil {
			return errors.Wrap(err, "update line value")
		}
	}
	return nil
}

// RecalculateForSaleItem recomputes and persists the value of every line
// referencing the item under an open order. Lines of closed orders are
// never touched.
func (s *LineService) RecalculateForSaleItem(ctx context.Context, item *catalog.SaleItem) error {
	current, err := s.items.GetByID(ctx, item.ID)
	if err != nil {
		return err
	}
	if !current.Active {
		return domain.InvalidOperation(
			"cannot recalculate lines for %s %s: it is inactive",
			catalog.EntityName, item.ID,
		)
	}

	lines, err := s.lines.ListOpenBySaleItem(ctx, item.ID)
	if err != nil {
		return errors.Wrap(err, "list lines")
	}

	orders := make(map[uuid.UUID]*Order, len(lines))
	for _, l := range lines {
		o, ok := orders[l.OrderID]
		if !ok {
			o, err = s.orders.GetByID(ctx, l.OrderID)
			if err != nil {
				return err
			}
			orders[l.OrderID] = o
		}

		value, err := s.pricer.LineValue(current.BasePrice, current.Type.DiscountFactor(), o.DiscountFactor)
		if err != nil {
			return err
		}
		if err := s.lines.UpdateValue(ctx, l.ID, value); err != nil {
			return errors.Wrap(err, "update line value")
		}
	}
	return nil
}

// CountOpenLines counts the lines referencing a sale item under open
// orders; the catalog deactivation guard depends on it.
func (s *LineService) CountOpenLines(ctx context.Context, saleItemID uuid.UUID) (int64, error) {
	return s.lines.CountOpenBySaleItem(ctx, saleItemID)
}

// CountLines counts every line referencing a sale item; the catalog
// deletion guard depends on it.
func (s *LineService) CountLines(ctx context.Context, saleItemID uuid.UUID) (int64, error) {
	return s.lines.CountBySaleItem(ctx, saleItemID)
}

// CountInactiveItemLines counts the order's lines referencing inactive sale
// items; the close guard depends on it.
func (s *LineService) CountInactiveItemLines(ctx context.Context, orderID uuid.UUID) (int64, error) {
	return s.lines.CountInactiveItemsByOrder(ctx, orderID)
}

// DeleteByOrder removes every line of the order, returning how many were
// removed.
func (s *LineService) DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	return s.lines.DeleteByOrder(ctx, orderID)
}
