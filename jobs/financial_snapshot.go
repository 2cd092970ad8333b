package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/paperdesk/backoffice/internal/ledger"
)

// ReportSource builds financial reports.
type ReportSource interface {
	FinancialReport(ctx context.Context, asOf string) (ledger.FinancialReport, error)
}

// FinancialSnapshotJob writes a dated report workbook, which also warms the
// projection cache for that date.
type FinancialSnapshotJob struct {
	Ledger   ReportSource
	Dir      string
	Logger   *slog.Logger
	Observer JobObserver
	clock    func() time.Time
}

// NewFinancialSnapshotJob wires dependencies for the snapshot handler.
func NewFinancialSnapshotJob(source ReportSource, dir string, logger *slog.Logger, observer JobObserver) *FinancialSnapshotJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &FinancialSnapshotJob{
		Ledger:   source,
		Dir:      dir,
		Logger:   logger,
		Observer: observer,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes TaskFinancialSnapshot tasks.
func (j *FinancialSnapshotJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Ledger == nil {
		return errors.New("financial snapshot: handler not configured")
	}
	tr := track(j.Observer, TaskFinancialSnapshot)
	defer func() { resultErr = tr.End(resultErr) }()

	asOf, err := decodeAsOf(t, j.clock())
	if err != nil {
		return err
	}
	logger := j.Logger.With(slog.String("as_of", asOf))

	report, err := j.Ledger.FinancialReport(ctx, asOf)
	if err != nil {
		logger.Error("build financial report", slog.Any("error", err))
		return err
	}
	path, err := j.write(report)
	if err != nil {
		logger.Error("write financial snapshot", slog.Any("error", err))
		return err
	}
	logger.Info("financial snapshot written",
		slog.String("path", path),
		slog.String("cash_balance", report.CashBalance.StringFixed(2)),
		slog.String("inventory_value", report.InventoryValue.StringFixed(2)),
		slog.String("total_assets", report.TotalAssets.StringFixed(2)),
	)
	return nil
}

func (j *FinancialSnapshotJob) write(report ledger.FinancialReport) (string, error) {
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return "", fmt.Errorf("financial snapshot: %w", err)
	}
	path := filepath.Join(j.Dir, "financial-report-"+report.AsOfDate+".xlsx")
	tmp, err := os.CreateTemp(j.Dir, ".snapshot-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("financial snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := ledger.WriteReportWorkbook(tmp, report); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("financial snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("financial snapshot: %w", err)
	}
	return path, nil
}
