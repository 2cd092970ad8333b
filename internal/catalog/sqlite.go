package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/paperdesk/backoffice/internal/shared"
)

// SQLiteRepository stores inventory reference rows in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs SQLiteRepository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ReplaceInventory swaps the reference table contents in one transaction.
func (r *SQLiteRepository) ReplaceInventory(ctx context.Context, records []InventoryRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin: %w: %w", shared.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory`); err != nil {
		return fmt.Errorf("catalog: clear inventory: %w: %w", shared.ErrPersistence, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO inventory (item_name, category, unit_price, current_stock, min_stock_level) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare: %w: %w", shared.ErrPersistence, err)
	}
	defer stmt.Close()
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.ItemName, string(rec.Category), rec.UnitPrice.String(), rec.CurrentStock, rec.MinStockLevel); err != nil {
			return fmt.Errorf("catalog: insert %s: %w: %v", rec.ItemName, shared.ErrPersistence, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: commit: %w: %w", shared.ErrPersistence, err)
	}
	return nil
}

// ListInventory returns reference rows ordered by item name.
func (r *SQLiteRepository) ListInventory(ctx context.Context) ([]InventoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT item_name, category, unit_price, current_stock, min_stock_level FROM inventory ORDER BY item_name`)
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
