package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/paperdesk/backoffice/internal/catalog"
	"github.com/paperdesk/backoffice/internal/shared"
)

// ReferenceSource provides the seeded inventory reference rows.
type ReferenceSource interface {
	ListInventory(ctx context.Context) ([]catalog.InventoryRecord, error)
}

// AppendObserver is notified after each committed append.
type AppendObserver interface {
	ObserveAppend(kind string)
}

// ServiceOptions groups optional collaborators.
type ServiceOptions struct {
	Logger   *slog.Logger
	Cache    ProjectionCache
	Observer AppendObserver
}

// Service is the single write path into the ledger and the read path for
// every projection over it.
type Service struct {
	repo      Repository
	prices    PriceList
	reference ReferenceSource
	cache     ProjectionCache
	observer  AppendObserver
	logger    *slog.Logger

	// cacheOff is set once a version bump fails; cached reports can no longer
	// be trusted to reflect the ledger.
	cacheOff atomic.Bool
}

// NewService builds Service.
func NewService(repo Repository, prices PriceList, reference ReferenceSource, opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		prices:    prices,
		reference: reference,
		cache:     opts.Cache,
		observer:  opts.Observer,
		logger:    logger,
	}
}

// Append validates and records one entry, returning its id. Nothing is
// written when validation fails.
func (s *Service) Append(ctx context.Context, input AppendInput) (int64, error) {
	tx, err := normalise(input)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.Insert(ctx, tx)
	if err != nil {
		s.logger.ErrorContext(ctx, "ledger append failed", slog.String("type", string(tx.Type)), slog.Any("error", err))
		return 0, err
	}
	s.afterAppend(ctx, tx.Type, 1)
	s.logger.InfoContext(ctx, "ledger append",
		slog.Int64("id", id),
		slog.String("type", string(tx.Type)),
		slog.String("date", tx.Date),
		slog.String("price", tx.Price.StringFixed(2)),
	)
	return id, nil
}

func normalise(input AppendInput) (Transaction, error) {
	kind, err := ParseTransactionType(input.Type)
	if err != nil {
		return Transaction{}, err
	}
	date, err := shared.ParseDate(input.Date)
	if err != nil {
		return Transaction{}, err
	}
	if input.ItemName != nil && strings.TrimSpace(*input.ItemName) == "" {
		return Transaction{}, fmt.Errorf("ledger: item name must not be blank: %w", shared.ErrValidation)
	}
	if input.Price.IsNegative() {
		return Transaction{}, fmt.Errorf("ledger: price must not be negative: %w", shared.ErrValidation)
	}
	if input.Units != nil && *input.Units < 0 {
		return Transaction{}, fmt.Errorf("ledger: units must not be negative: %w", shared.ErrValidation)
	}
	return Transaction{
		ItemName: input.ItemName,
		Type:     kind,
		Units:    input.Units,
		Price:    input.Price,
		Date:     date,
	}, nil
}

func (s *Service) afterAppend(ctx context.Context, kind TransactionType, n int) {
	s.bumpCache(ctx)
	if s.observer != nil {
		for i := 0; i < n; i++ {
			s.observer.ObserveAppend(string(kind))
		}
	}
}

// Seeded reports whether the ledger already holds entries.
func (s *Service) Seeded(ctx context.Context) (bool, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil || s.cacheOff.Load() {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.cacheOff.Store(true)
		s.logger.ErrorContext(ctx, "projection cache bump failed, cache disabled", slog.Any("error", err))
	}
}

// SeedOpeningBalances writes the opening cash entry and one opening stock
// order per reference record into an empty ledger, atomically.
func (s *Service) SeedOpeningBalances(ctx context.Context, opening OpeningBalance, records []catalog.InventoryRecord) (int, error) {
	date, err := shared.ParseDate(opening.Date)
	if err != nil {
		return 0, err
	}
	if opening.Cash.IsNegative() {
		return 0, fmt.Errorf("ledger: opening cash must not be negative: %w", shared.ErrValidation)
	}
	seeded, err := s.Seeded(ctx)
	if err != nil {
		return 0, err
	}
	if seeded {
		return 0, ErrAlreadySeeded
	}

	entries := make([]Transaction, 0, len(records)+1)
	entries = append(entries, Transaction{Type: Sale, Price: opening.Cash, Date: date})
	for _, rec := range records {
		name := rec.ItemName
		units := rec.CurrentStock
		entries = append(entries, Transaction{
			ItemName: &name,
			Type:     StockOrder,
			Units:    &units,
			Price:    rec.UnitPrice.Mul(decimal.NewFromInt(units)),
			Date:     date,
		})
	}
	if _, err := s.repo.InsertBatch(ctx, entries); err != nil {
		return 0, err
	}
	s.bumpCache(ctx)
	s.logger.InfoContext(ctx, "ledger seeded", slog.Int("entries", len(entries)), slog.String("date", date))
	return len(entries), nil
}

// StockOf returns the projected units of item as of asOf.
func (s *Service) StockOf(ctx context.Context, item, asOf string) (int64, error) {
	date, err := shared.ParseDate(asOf)
	if err != nil {
		return 0, err
	}
	entries, err := s.repo.ListItemUpTo(ctx, item, date)
	if err != nil {
		return 0, err
	}
	return StockOf(entries, item, date), nil
}

// AllStock returns items with strictly positive stock as of asOf.
func (s *Service) AllStock(ctx context.Context, asOf string) (map[string]int64, error) {
	date, err := shared.ParseDate(asOf)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListUpTo(ctx, date)
	if err != nil {
		return nil, err
	}
	return PositiveStock(entries, date), nil
}

// CashBalance returns the cash position as of asOf.
func (s *Service) CashBalance(ctx context.Context, asOf string) (decimal.Decimal, error) {
	date, err := shared.ParseDate(asOf)
	if err != nil {
		return decimal.Zero, err
	}
	entries, err := s.repo.ListUpTo(ctx, date)
	if err != nil {
		return decimal.Zero, err
	}
	return CashBalance(entries, date), nil
}

// InventoryValue prices projected stock as of asOf at current catalog prices.
func (s *Service) InventoryValue(ctx context.Context, asOf string) (decimal.Decimal, error) {
	date, err := shared.ParseDate(asOf)
	if err != nil {
		return decimal.Zero, err
	}
	entries, err := s.repo.ListUpTo(ctx, date)
	if err != nil {
		return decimal.Zero, err
	}
	return InventoryValue(StockLevels(entries, date), s.prices), nil
}

// FinancialReport builds the point-in-time report, served from the
// projection cache when one is configured and no version bump has failed.
func (s *Service) FinancialReport(ctx context.Context, asOf string) (FinancialReport, error) {
	date, err := shared.ParseDate(asOf)
	if err != nil {
		return FinancialReport{}, err
	}
	if s.cache == nil || s.cacheOff.Load() {
		return s.buildReport(ctx, date)
	}
	key, err := s.cache.BuildKey(ctx, "report", date)
	if err != nil {
		s.logger.WarnContext(ctx, "projection cache unavailable", slog.Any("error", err))
		return s.buildReport(ctx, date)
	}
	var report FinancialReport
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		return s.buildReport(ctx, date)
	})
	if err != nil {
		return FinancialReport{}, err
	}
	return report, nil
}

func (s *Service) buildReport(ctx context.Context, date string) (FinancialReport, error) {
	var (
		entries   []Transaction
		reference []catalog.InventoryRecord
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		entries, err = s.repo.ListUpTo(gctx, date)
		return err
	})
	group.Go(func() error {
		var err error
		reference, err = s.listReference(gctx)
		return err
	})
	if err := group.Wait(); err != nil {
		return FinancialReport{}, err
	}
	return BuildFinancialReport(entries, date, s.prices, reference), nil
}

// ReorderCandidates lists reference items projected below their minimum
// stock level as of asOf.
func (s *Service) ReorderCandidates(ctx context.Context, asOf string) ([]ReorderCandidate, error) {
	date, err := shared.ParseDate(asOf)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListUpTo(ctx, date)
	if err != nil {
		return nil, err
	}
	reference, err := s.listReference(ctx)
	if err != nil {
		return nil, err
	}
	return ReorderCandidates(StockLevels(entries, date), reference), nil
}

// History returns the stock card of item up to asOf.
func (s *Service) History(ctx context.Context, item, asOf string) ([]HistoryEntry, error) {
	date, err := shared.ParseDate(asOf)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(item) == "" {
		return nil, fmt.Errorf("ledger: item name required: %w", shared.ErrValidation)
	}
	entries, err := s.repo.ListItemUpTo(ctx, item, date)
	if err != nil {
		return nil, err
	}
	return StockHistory(entries, item, date), nil
}

func (s *Service) listReference(ctx context.Context) ([]catalog.InventoryRecord, error) {
	if s.reference == nil {
		return nil, nil
	}
	records, err := s.reference.ListInventory(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrPersistence) {
			return nil, err
		}
		return nil, fmt.Errorf("ledger: inventory reference: %w", err)
	}
	return records, nil
}
