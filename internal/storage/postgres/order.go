package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/simple-orders/internal/domain"
	"github.com/xenking/simple-orders/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	db *DB
}

// NewOrderRepository returns an OrderRepository using the given DB.
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, code, discount_factor, status`

// GetByID returns an order by id, or a NotFoundError.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	row := r.db.q(ctx).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(order.EntityName, id)
		}
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return o, nil
}

// List returns the orders matching f, ordered by code.
func (r *OrderRepository) List(ctx context.Context, f order.Filter, page domain.Page) ([]order.Order, error) {
	where, args := orderWhere(f)
	args = append(args, page.Limit, page.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM orders %s ORDER BY code, id LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args),
	)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// Count returns how many orders match f.
func (r *OrderRepository) Count(ctx context.Context, f order.Filter) (int64, error) {
	where, args := orderWhere(f)

	var n int64
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT count(*) FROM orders `+where, args...).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count orders")
	}
	return n, nil
}

// Create persists a new order. A duplicate code fails with an
// InvalidOperationError naming the code.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`INSERT INTO orders (id, code, discount_factor, status) VALUES ($1, $2, $3, $4)`,
		o.ID, o.Code, o.DiscountFactor, o.Status.Code(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.InvalidOperation("order code %q is already in use", o.Code)
		}
		return errors.Wrapf(err, "create order %s", o.ID)
	}
	return nil
}

// Update replaces the mutable columns of an order.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.db.q(ctx).Exec(ctx,
		`UPDATE orders SET code = $2, discount_factor = $3, status = $4 WHERE id = $1`,
		o.ID, o.Code, o.DiscountFactor, o.Status.Code(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.InvalidOperation("order code %q is already in use", o.Code)
		}
		return errors.Wrapf(err, "update order %s", o.ID)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(order.EntityName, o.ID)
	}
	return nil
}

// Delete removes an order by id.
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.q(ctx).Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete order %s", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(order.EntityName, id)
	}
	return nil
}

func orderWhere(f order.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Code != "" {
		add(`code ILIKE '%%' || $%d || '%%'`, f.Code)
	}
	if f.Status != nil {
		add(`status = $%d`, f.Status.Code())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o    order.Order
		code string
	)
	if err := row.Scan(&o.ID, &o.Code, &o.DiscountFactor, &code); err != nil {
		return nil, err
	}
	status, err := order.StatusFromCode(code)
	if err != nil {
		return nil, err
	}
	o.Status = status
	return &o, nil
}
