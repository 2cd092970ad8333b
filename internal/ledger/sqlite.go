package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// SQLiteRepository persists the ledger in SQLite. AUTOINCREMENT ids are
// assigned by the engine under its write lock.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs SQLiteRepository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sqliteInsert = `INSERT INTO transactions (item_name, transaction_type, units, price, transaction_date) VALUES (?, ?, ?, ?, ?)`

const sqliteSelect = `SELECT id, item_name, transaction_type, units, price, transaction_date FROM transactions`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSQLite(ctx context.Context, ex execer, tx Transaction) (int64, error) {
	var item sql.NullString
	if tx.ItemName != nil {
		item = sql.NullString{String: *tx.ItemName, Valid: true}
	}
	var units sql.NullInt64
	if tx.Units != nil {
		units = sql.NullInt64{Int64: *tx.Units, Valid: true}
	}
	res, err := ex.ExecContext(ctx, sqliteInsert, item, string(tx.Type), units, tx.Price.String(), tx.Date)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Insert appends one row.
func (r *SQLiteRepository) Insert(ctx context.Context, tx Transaction) (int64, error) {
	id, err := insertSQLite(ctx, r.db, tx)
	if err != nil {
		return 0, fmt.Errorf("ledger: insert: %w: %w", ErrPersistence, err)
	}
	return id, nil
}

// InsertBatch appends rows in one transaction; either all land or none.
func (r *SQLiteRepository) InsertBatch(ctx context.Context, txs []Transaction) ([]int64, error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: begin: %w: %w", ErrPersistence, err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	ids := make([]int64, 0, len(txs))
	for _, tx := range txs {
		id, err := insertSQLite(ctx, sqlTx, tx)
		if err != nil {
			return nil, fmt.Errorf("ledger: insert batch: %w: %w", ErrPersistence, err)
		}
		ids = append(ids, id)
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("ledger: commit: %w: %w", ErrPersistence, err)
	}
	return ids, nil
}

// ListUpTo returns entries dated on or before asOf in (date, id) order.
func (r *SQLiteRepository) ListUpTo(ctx context.Context, asOf string) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, sqliteSelect+` WHERE transaction_date <= ? ORDER BY transaction_date, id`, asOf)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w: %w", ErrPersistence, err)
	}
	return collectSQL(rows)
}

// ListItemUpTo is ListUpTo restricted to one item.
func (r *SQLiteRepository) ListItemUpTo(ctx context.Context, item, asOf string) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, sqliteSelect+` WHERE item_name = ? AND transaction_date <= ? ORDER BY transaction_date, id`, item, asOf)
	if err != nil {
		return nil, fmt.Errorf("ledger: list item: %w: %w", ErrPersistence, err)
	}
	return collectSQL(rows)
}

// Count returns the number of ledger rows.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger: count: %w: %w", ErrPersistence, err)
	}
	return n, nil
}

func collectSQL(rows *sql.Rows) ([]Transaction, error) {
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		var (
			t     Transaction
			item  sql.NullString
			units sql.NullInt64
			kind  string
			price string
		)
		if err := rows.Scan(&t.ID, &item, &kind, &units, &price, &t.Date); err != nil {
			return nil, fmt.Errorf("ledger: scan: %w: %w", ErrPersistence, err)
		}
		if item.Valid {
			name := item.String
			t.ItemName = &name
		}
		if units.Valid {
			n := units.Int64
			t.Units = &n
		}
		t.Type = TransactionType(kind)
		p, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("ledger: price of entry %d: %w", t.ID, err)
		}
		t.Price = p
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: rows: %w: %w", ErrPersistence, err)
	}
	return out, nil
}
