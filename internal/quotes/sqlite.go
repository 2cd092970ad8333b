package quotes

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/paperdesk/backoffice/internal/shared"
)

// SQLiteRepository keeps quote history in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs SQLiteRepository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ReplaceCorpus swaps both tables in one transaction.
func (r *SQLiteRepository) ReplaceCorpus(ctx context.Context, corpus Corpus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("quotes: begin: %w: %w", shared.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quotes`); err != nil {
		return fmt.Errorf("quotes: clear: %w: %w", shared.ErrPersistence, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quote_requests`); err != nil {
		return fmt.Errorf("quotes: clear: %w: %w", shared.ErrPersistence, err)
	}
	for _, req := range corpus.Requests {
		if _, err := tx.ExecContext(ctx, `INSERT INTO quote_requests (id, response) VALUES (?, ?)`, req.ID, req.Response); err != nil {
			return fmt.Errorf("quotes: insert request %d: %w: %w", req.ID, shared.ErrPersistence, err)
		}
	}
	for _, q := range corpus.Quotes {
		_, err := tx.ExecContext(ctx, `INSERT INTO quotes (request_id, total_amount, quote_explanation, order_date, job_type, order_size, event_type)
VALUES (?, ?, ?, ?, ?, ?, ?)`, q.RequestID, q.TotalAmount.String(), q.QuoteExplanation, q.OrderDate, q.JobType, q.OrderSize, q.EventType)
		if err != nil {
			return fmt.Errorf("quotes: insert quote %d: %w: %w", q.RequestID, shared.ErrPersistence, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("quotes: commit: %w: %w", shared.ErrPersistence, err)
	}
	return nil
}

// Search runs the term filter; terms must already be lower-cased.
func (r *SQLiteRepository) Search(ctx context.Context, terms []string, limit int) ([]Record, error) {
	conditions := make([]string, 0, len(terms))
	args := make([]any, 0, 2*len(terms)+1)
	for _, term := range terms {
		conditions = append(conditions, `(LOWER(qr.response) LIKE ? ESCAPE '\' OR LOWER(q.quote_explanation) LIKE ? ESCAPE '\')`)
		pattern := likePattern(term)
		args = append(args, pattern, pattern)
	}
	query := `SELECT q.request_id, qr.response, q.total_amount, q.quote_explanation,
       q.job_type, q.order_size, q.event_type, q.order_date
FROM quotes q
JOIN quote_requests qr ON q.request_id = qr.id
` + whereClause(conditions) + `
ORDER BY q.order_date DESC, q.request_id
LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
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
		if rec.TotalAmount, err = decimal.NewFromString(strings.TrimSpace(amount)); err != nil {
			return nil, fmt.Errorf("quotes: amount of request %d: %w", rec.RequestID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quotes: rows: %w: %w", shared.ErrPersistence, err)
	}
	return out, nil
}
