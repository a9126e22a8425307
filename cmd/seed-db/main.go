// Command seed-db loads an initial sale item catalog into the database.
// It is idempotent: items are upserted by id, so running it repeatedly
// against the same database is safe.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/simple-orders/internal/domain/catalog"
	"github.com/xenking/simple-orders/internal/storage/postgres"
)

type saleItemJSON struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	BasePrice decimal.Decimal `json:"base_price"`
	Active    bool            `json:"active"`
}

func main() {
	var (
		databaseURL string
		itemsFile   string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&itemsFile, "items-file", "db/seed/sale_items.json", "path to sale items JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, itemsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, itemsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seedSaleItems(ctx, pool, itemsFile)
}

func seedSaleItems(ctx context.Context, pool *pgxpool.Pool, itemsFile string) error {
	slog.Info("reading sale items file", slog.String("path", itemsFile))

	data, err := os.ReadFile(itemsFile)
	if err != nil {
		return errors.Wrap(err, "read sale items file")
	}

	var items []saleItemJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse sale items JSON")
	}

	slog.Info("upserting sale items", slog.Int("count", len(items)))

	for _, it := range items {
		typ, err := catalog.ParseItemType(it.Type)
		if err != nil {
			return errors.Wrapf(err, "sale item %s", it.ID)
		}

		_, err = pool.Exec(ctx,
			`INSERT INTO sale_items (id, name, type, base_price, active)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE
			 SET name = EXCLUDED.name, type = EXCLUDED.type,
			     base_price = EXCLUDED.base_price, active = EXCLUDED.active`,
			it.ID, it.Name, typ.Code(), it.BasePrice, it.Active,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert sale item %s", it.ID)
		}

		slog.Info("upserted sale item", slog.String("id", it.ID.String()), slog.String("name", it.Name))
	}

	return nil
}
