package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/simple-orders/internal/domain"
	"github.com/xenking/simple-orders/internal/domain/order"
)

var _ order.LineRepository = (*LineRepository)(nil)

// LineRepository implements order.LineRepository backed by PostgreSQL.
type LineRepository struct {
	db *DB
}

// NewLineRepository returns a LineRepository using the given DB.
func NewLineRepository(db *DB) *LineRepository {
	return &LineRepository{db: db}
}

const lineColumns = `ol.id, ol.order_id, ol.sale_item_id, ol.value`

// GetByID returns an order line by id, or a NotFoundError.
func (r *LineRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Line, error) {
	row := r.db.q(ctx).QueryRow(ctx,
		`SELECT `+lineColumns+` FROM order_lines ol WHERE ol.id = $1`, id)

	l, err := scanLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(order.LineEntityName, id)
		}
		return nil, errors.Wrapf(err, "get order line %s", id)
	}
	return l, nil
}

// ListByOrder returns the order's lines matching f. The item-name filter
// joins the catalog table.
func (r *LineRepository) ListByOrder(ctx context.Context, orderID uuid.UUID, f order.LineFilter, page domain.Page) ([]order.Line, error) {
	where, args := lineWhere(orderID, f)
	args = append(args, page.Limit, page.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM order_lines ol
			JOIN sale_items si ON si.id = ol.sale_item_id
			%s ORDER BY si.name, ol.id LIMIT $%d OFFSET $%d`,
		lineColumns, where, len(args)-1, len(args),
	)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list order lines")
	}
	defer rows.Close()

	return collectLines(rows)
}

// CountByOrder returns how many of the order's lines match f.
func (r *LineRepository) CountByOrder(ctx context.Context, orderID uuid.UUID, f order.LineFilter) (int64, error) {
	where, args := lineWhere(orderID, f)
	query := `SELECT count(*) FROM order_lines ol
		JOIN sale_items si ON si.id = ol.sale_item_id ` + where

	var n int64
	if err := r.db.q(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count order lines")
	}
	return n, nil
}

// ListAllByOrder returns every line of the order, unpaged.
func (r *LineRepository) ListAllByOrder(ctx context.Context, orderID uuid.UUID) ([]order.Line, error) {
	rows, err := r.db.q(ctx).Query(ctx,
		`SELECT `+lineColumns+` FROM order_lines ol WHERE ol.order_id = $1 ORDER BY ol.id`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "list order lines")
	}
	defer rows.Close()

	return collectLines(rows)
}

// ListOpenBySaleItem returns the lines referencing the item whose owning
// order is open.
func (r *LineRepository) ListOpenBySaleItem(ctx context.Context, saleItemID uuid.UUID) ([]order.Line, error) {
	rows, err := r.db.q(ctx).Query(ctx,
		`SELECT `+lineColumns+` FROM order_lines ol
			JOIN orders o ON o.id = ol.order_id
			WHERE ol.sale_item_id = $1 AND o.status = 'A'
			ORDER BY ol.id`, saleItemID)
	if err != nil {
		return nil, errors.Wrap(err, "list order lines")
	}
	defer rows.Close()

	return collectLines(rows)
}

// CountBySaleItem counts every line referencing the item.
func (r *LineRepository) CountBySaleItem(ctx context.Context, saleItemID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT count(*) FROM order_lines WHERE sale_item_id = $1`, saleItemID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count order lines")
	}
	return n, nil
}

// CountOpenBySaleItem counts the lines referencing the item under open
// orders.
func (r *LineRepository) CountOpenBySaleItem(ctx context.Context, saleItemID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT count(*) FROM order_lines ol
			JOIN orders o ON o.id = ol.order_id
			WHERE ol.sale_item_id = $1 AND o.status = 'A'`, saleItemID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count order lines")
	}
	return n, nil
}

// CountInactiveItemsByOrder counts the order's lines whose referenced sale
// item is inactive.
func (r *LineRepository) CountInactiveItemsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT count(*) FROM order_lines ol
			JOIN sale_items si ON si.id = ol.sale_item_id
			WHERE ol.order_id = $1 AND NOT si.active`, orderID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count order lines")
	}
	return n, nil
}

// Create persists a new order line.
func (r *LineRepository) Create(ctx context.Context, l *order.Line) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`INSERT INTO order_lines (id, order_id, sale_item_id, value) VALUES ($1, $2, $3, $4)`,
		l.ID, l.OrderID, l.SaleItemID, l.Value,
	)
	if err != nil {
		return errors.Wrapf(err, "create order line %s", l.ID)
	}
	return nil
}

// UpdateValue sets the computed value of a line.
func (r *LineRepository) UpdateValue(ctx context.Context, id uuid.UUID, value decimal.Decimal) error {
	tag, err := r.db.q(ctx).Exec(ctx,
		`UPDATE order_lines SET value = $2 WHERE id = $1`, id, value)
	if err != nil {
		return errors.Wrapf(err, "update order line %s", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(order.LineEntityName, id)
	}
	return nil
}

// Delete removes an order line by id.
func (r *LineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.q(ctx).Exec(ctx, `DELETE FROM order_lines WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete order line %s", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(order.LineEntityName, id)
	}
	return nil
}

// DeleteByOrder removes every line of the order.
func (r *LineRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	tag, err := r.db.q(ctx).Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, errors.Wrapf(err, "delete lines of order %s", orderID)
	}
	return tag.RowsAffected(), nil
}

func lineWhere(orderID uuid.UUID, f order.LineFilter) (string, []any) {
	conds := []string{"ol.order_id = $1"}
	args := []any{orderID}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ItemName != "" {
		add(`si.name ILIKE '%%' || $%d || '%%'`, f.ItemName)
	}
	if f.MinValue != nil {
		add(`ol.value >= $%d`, *f.MinValue)
	}
	if f.MaxValue != nil {
		add(`ol.value <= $%d`, *f.MaxValue)
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func collectLines(rows pgx.Rows) ([]order.Line, error) {
	var lines []order.Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order line")
		}
		lines = append(lines, *l)
	}
	return lines, rows.Err()
}

func scanLine(row pgx.Row) (*order.Line, error) {
	var l order.Line
	if err := row.Scan(&l.ID, &l.OrderID, &l.SaleItemID, &l.Value); err != nil {
		return nil, err
	}
	return &l, nil
}
