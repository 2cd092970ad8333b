package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/paperdesk/backoffice/internal/platform/db"
)

// Repository is the append-only ledger store.
type Repository interface {
	Insert(ctx context.Context, tx Transaction) (int64, error)
	InsertBatch(ctx context.Context, txs []Transaction) ([]int64, error)
	ListUpTo(ctx context.Context, asOf string) ([]Transaction, error)
	ListItemUpTo(ctx context.Context, item, asOf string) ([]Transaction, error)
	Count(ctx context.Context) (int64, error)
}

// PostgresRepository persists the ledger in PostgreSQL. Ids come from the
// BIGSERIAL sequence, so concurrent appends never collide.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const pgInsert = `INSERT INTO transactions (item_name, transaction_type, units, price, transaction_date)
VALUES ($1, $2, $3, $4::numeric, $5) RETURNING id`

const pgSelect = `SELECT id, item_name, transaction_type, units, price::text, transaction_date FROM transactions`

// Insert appends one row.
func (r *PostgresRepository) Insert(ctx context.Context, tx Transaction) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, pgInsert, tx.ItemName, string(tx.Type), tx.Units, tx.Price.String(), tx.Date).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ledger: insert: %w: %w", ErrPersistence, err)
	}
	return id, nil
}

// InsertBatch appends rows in one transaction; either all land or none.
func (r *PostgresRepository) InsertBatch(ctx context.Context, txs []Transaction) ([]int64, error) {
	ids := make([]int64, 0, len(txs))
	err := db.WithTx(ctx, r.pool, func(pgtx pgx.Tx) error {
		for _, tx := range txs {
			var id int64
			if err := pgtx.QueryRow(ctx, pgInsert, tx.ItemName, string(tx.Type), tx.Units, tx.Price.String(), tx.Date).Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: insert batch: %w: %w", ErrPersistence, err)
	}
	return ids, nil
}

// ListUpTo returns entries dated on or before asOf in (date, id) order.
func (r *PostgresRepository) ListUpTo(ctx context.Context, asOf string) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, pgSelect+` WHERE transaction_date <= $1 ORDER BY transaction_date, id`, asOf)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w: %w", ErrPersistence, err)
	}
	return collectPG(rows)
}

// ListItemUpTo is ListUpTo restricted to one item.
func (r *PostgresRepository) ListItemUpTo(ctx context.Context, item, asOf string) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, pgSelect+` WHERE item_name = $1 AND transaction_date <= $2 ORDER BY transaction_date, id`, item, asOf)
	if err != nil {
		return nil, fmt.Errorf("ledger: list item: %w: %w", ErrPersistence, err)
	}
	return collectPG(rows)
}

// Count returns the number of ledger rows.
func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger: count: %w: %w", ErrPersistence, err)
	}
	return n, nil
}

func collectPG(rows pgx.Rows) ([]Transaction, error) {
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		var (
			t     Transaction
			kind  string
			price string
		)
		if err := rows.Scan(&t.ID, &t.ItemName, &kind, &t.Units, &price, &t.Date); err != nil {
			return nil, fmt.Errorf("ledger: scan: %w: %w", ErrPersistence, err)
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
