package quotes

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/paperdesk/backoffice/internal/platform/db"
	"github.com/paperdesk/backoffice/internal/shared"
)

// Repository stores the read-only quote history.
type Repository interface {
	ReplaceCorpus(ctx context.Context, corpus Corpus) error
	Search(ctx context.Context, terms []string, limit int) ([]Record, error)
}

// PostgresRepository keeps quote history in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ReplaceCorpus swaps both tables in one transaction.
func (r *PostgresRepository) ReplaceCorpus(ctx context.Context, corpus Corpus) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM quotes`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM quote_requests`); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, req := range corpus.Requests {
			batch.Queue(`INSERT INTO quote_requests (id, response) VALUES ($1, $2)`, req.ID, req.Response)
		}
		for _, q := range corpus.Quotes {
			batch.Queue(`INSERT INTO quotes (request_id, total_amount, quote_explanation, order_date, job_type, order_size, event_type)
VALUES ($1, $2::numeric, $3, $4, $5, $6, $7)`, q.RequestID, q.TotalAmount.String(), q.QuoteExplanation, q.OrderDate, q.JobType, q.OrderSize, q.EventType)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("quotes: replace corpus: %w: %w", shared.ErrPersistence, err)
	}
	return nil
}

// Search runs the term filter; terms must already be lower-cased.
func (r *PostgresRepository) Search(ctx context.Context, terms []string, limit int) ([]Record, error) {
	var (
		conditions []string
		args       []any
	)
	argPos := 1
	for _, term := range terms {
		conditions = append(conditions, fmt.Sprintf(`(LOWER(qr.response) LIKE $%d ESCAPE '\' OR LOWER(q.quote_explanation) LIKE $%d ESCAPE '\')`, argPos, argPos))
		args = append(args, likePattern(term))
		argPos++
	}
	query := fmt.Sprintf(`SELECT q.request_id, qr.response, q.total_amount::text, q.quote_explanation,
       q.job_type, q.order_size, q.event_type, q.order_date
FROM quotes q
JOIN quote_requests qr ON q.request_id = qr.id
%s
ORDER BY q.order_date DESC, q.request_id
LIMIT $%d`, whereClause(conditions), argPos)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("quotes: search: %w: %w", shared.ErrPersistence, err)
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		var (
			rec    Record
			amount string
		)
		if err := rows.Scan(&rec.RequestID, &rec.OriginalRequest, &amount, &rec.QuoteExplanation,
			&rec.JobType, &rec.OrderSize, &rec.EventType, &rec.OrderDate); err != nil {
			return nil, fmt.Errorf("quotes: scan: %w: %w", shared.ErrPersistence, err)
		}
		if rec.TotalAmount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("quotes: amount of request %d: %w", rec.RequestID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quotes: rows: %w: %w", shared.ErrPersistence, err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps term for a literal substring match.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conditions, " AND ")
}
