package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/paperdesk/backoffice/internal/ledger"
)

// ReorderSource lists reorder candidates.
type ReorderSource interface {
	ReorderCandidates(ctx context.Context, asOf string) ([]ledger.ReorderCandidate, error)
}

// ReorderScanJob logs every reference item projected below its minimum level.
type ReorderScanJob struct {
	Ledger   ReorderSource
	Logger   *slog.Logger
	Observer JobObserver
	clock    func() time.Time
}

// NewReorderScanJob wires dependencies for the reorder handler.
func NewReorderScanJob(source ReorderSource, logger *slog.Logger, observer JobObserver) *ReorderScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReorderScanJob{
		Ledger:   source,
		Logger:   logger,
		Observer: observer,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes TaskReorderScan tasks.
func (j *ReorderScanJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Ledger == nil {
		return errors.New("reorder scan: handler not configured")
	}
	tr := track(j.Observer, TaskReorderScan)
	defer func() { resultErr = tr.End(resultErr) }()

	asOf, err := decodeAsOf(t, j.clock())
	if err != nil {
		return err
	}
	candidates, err := j.Ledger.ReorderCandidates(ctx, asOf)
	if err != nil {
		j.Logger.Error("reorder scan", slog.String("as_of", asOf), slog.Any("error", err))
		return err
	}
	for _, c := range candidates {
		j.Logger.Warn("item below minimum stock",
			slog.String("item", c.ItemName),
			slog.Int64("stock", c.Stock),
			slog.Int64("min_stock_level", c.MinStockLevel),
			slog.Int64("shortfall", c.Shortfall),
		)
	}
	j.Logger.Info("reorder scan complete", slog.String("as_of", asOf), slog.Int("candidates", len(candidates)))
	return nil
}
