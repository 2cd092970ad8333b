package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/paperdesk/backoffice/internal/platform/db"
	"github.com/paperdesk/backoffice/internal/shared"
)

// InventoryStore persists the seeded inventory reference table.
type InventoryStore interface {
	ReplaceInventory(ctx context.Context, records []InventoryRecord) error
	ListInventory(ctx context.Context) ([]InventoryRecord, error)
}

// Repository stores inventory reference rows in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ReplaceInventory swaps the reference table contents in one transaction.
func (r *Repository) ReplaceInventory(ctx context.Context, records []InventoryRecord) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM inventory`); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(`INSERT INTO inventory (item_name, category, unit_price, current_stock, min_stock_level)
VALUES ($1, $2, $3::numeric, $4, $5)`, rec.ItemName, string(rec.Category), rec.UnitPrice.String(), rec.CurrentStock, rec.MinStockLevel)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("catalog: replace inventory: %w: %w", shared.ErrPersistence, err)
	}
	return nil
}

// ListInventory returns reference rows ordered by item name.
func (r *Repository) ListInventory(ctx context.Context) ([]InventoryRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT item_name, category, unit_price::text, current_stock, min_stock_level
FROM inventory ORDER BY item_name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list inventory: %w: %w", shared.ErrPersistence, err)
	}
	defer rows.Close()
	var out []InventoryRecord
	for rows.Next() {
		var rec InventoryRecord
		var category, price string
		if err := rows.Scan(&rec.ItemName, &category, &price, &rec.CurrentStock, &rec.MinStockLevel); err != nil {
			return nil, fmt.Errorf("catalog: scan inventory: %w: %w", shared.ErrPersistence, err)
		}
		rec.Category = Category(category)
		if rec.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("catalog: price for %s: %w", rec.ItemName, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list inventory: %w: %w", shared.ErrPersistence, err)
	}
	return out, nil
}
