package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/simple-orders/internal/domain"
	"github.com/xenking/simple-orders/internal/domain/catalog"
)

var _ catalog.Repository = (*SaleItemRepository)(nil)

// SaleItemRepository implements catalog.Repository backed by PostgreSQL.
type SaleItemRepository struct {
	db *DB
}

// NewSaleItemRepository returns a SaleItemRepository using the given DB.
func NewSaleItemRepository(db *DB) *SaleItemRepository {
	return &SaleItemRepository{db: db}
}

const saleItemColumns = `id, name, type, base_price, active`

// GetByID returns a sale item by id, or a NotFoundError.
func (r *SaleItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.SaleItem, error) {
	row := r.db.q(ctx).QueryRow(ctx,
		`SELECT `+saleItemColumns+` FROM sale_items WHERE id = $1`, id)

	item, err := scanSaleItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(catalog.EntityName, id)
		}
		return nil, errors.Wrapf(err, "get sale item %s", id)
	}
	return item, nil
}

// List returns the sale items matching f, ordered by name.
func (r *SaleItemRepository) List(ctx context.Context, f catalog.Filter, page domain.Page) ([]catalog.SaleItem, error) {
	where, args := saleItemWhere(f)
	args = append(args, page.Limit, page.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM sale_items %s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		saleItemColumns, where, len(args)-1, len(args),
	)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list sale items")
	}
	defer rows.Close()

	var items []catalog.SaleItem
	for rows.Next() {
		item, err := scanSaleItem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan sale item")
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Count returns how many sale items match f.
func (r *SaleItemRepository) Count(ctx context.Context, f catalog.Filter) (int64, error) {
	where, args := saleItemWhere(f)

	var n int64
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT count(*) FROM sale_items `+where, args...).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count sale items")
	}
	return n, nil
}

// Create persists a new sale item.
func (r *SaleItemRepository) Create(ctx context.Context, item *catalog.SaleItem) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`INSERT INTO sale_items (id, name, type, base_price, active) VALUES ($1, $2, $3, $4, $5)`,
		item.ID, item.Name, item.Type.Code(), item.BasePrice, item.Active,
	)
	if err != nil {
		return errors.Wrapf(err, "create sale item %s", item.ID)
	}
	return nil
}

// Update replaces the mutable columns of a sale item.
func (r *SaleItemRepository) Update(ctx context.Context, item *catalog.SaleItem) error {
	tag, err := r.db.q(ctx).Exec(ctx,
		`UPDATE sale_items SET name = $2, base_price = $3, active = $4 WHERE id = $1`,
		item.ID, item.Name, item.BasePrice, item.Active,
	)
	if err != nil {
		return errors.Wrapf(err, "update sale item %s", item.ID)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(catalog.EntityName, item.ID)
	}
	return nil
}

// Delete removes a sale item by id.
func (r *SaleItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.q(ctx).Exec(ctx, `DELETE FROM sale_items WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete sale item %s", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(catalog.EntityName, id)
	}
	return nil
}

// saleItemWhere builds the WHERE clause for f. Parameters are numbered from
// $1 in the order they are appended.
func saleItemWhere(f catalog.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Name != "" {
		add(`name ILIKE '%%' || $%d || '%%'`, f.Name)
	}
	if f.Type != nil {
		add(`type = $%d`, f.Type.Code())
	}
	if f.Active != nil {
		add(`active = $%d`, *f.Active)
	}
	if f.MinPrice != nil {
		add(`base_price >= $%d`, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add(`base_price <= $%d`, *f.MaxPrice)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanSaleItem(row pgx.Row) (*catalog.SaleItem, error) {
	var (
		item catalog.SaleItem
		code string
	)
	if err := row.Scan(&item.ID, &item.Name, &code, &item.BasePrice, &item.Active); err != nil {
		return nil, err
	}
	typ, err := catalog.ItemTypeFromCode(code)
	if err != nil {
		return nil, err
	}
	item.Type = typ
	return &item, nil
}
