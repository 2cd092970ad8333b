package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/backoffice/internal/catalog"
	"github.com/paperdesk/backoffice/internal/ledger"
	"github.com/paperdesk/backoffice/internal/platform/sqlite"
	"github.com/paperdesk/backoffice/internal/quotes"
)

const testRequestsCSV = `mood,job,need_size,event,response
calm,office manager,small,meeting,"I need 200 sheets of A4 paper for a meeting."
rushed,teacher,large,assembly,"Please send 500 sheets of poster paper for the assembly."
`

const testQuotesCSV = `request_metadata,total_amount,quote_explanation
"{'job_type': 'office manager', 'order_size': 'small', 'event_type': 'meeting'}",10,"200 sheets of A4 paper at list price."
"{'job_type': 'teacher', 'order_size': 'large', 'event_type': 'assembly'}",112.5,"Bulk poster paper with a 10% discount."
"{'job_type': 'caterer', 'order_size': 'small', 'event_type': 'party'}",8,"Orphan quote."
`

func seedFixture(t *testing.T) (*Config, *Store, *Services) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	requests := filepath.Join(dir, "quote_requests.csv")
	quotesPath := filepath.Join(dir, "quotes.csv")
	require.NoError(t, os.WriteFile(requests, []byte(testRequestsCSV), 0o600))
	require.NoError(t, os.WriteFile(quotesPath, []byte(testQuotesCSV), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.QuoteRequestsCSV = requests
	cfg.QuotesCSV = quotesPath

	sqlDB, err := sqlite.Open(ctx, sqlite.MemoryPath)
	require.NoError(t, err)
	store := NewSQLiteStore(sqlDB)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewServices(ctx, cfg, store, logger, nil)
	require.NoError(t, err)
	return cfg, store, svc
}

func TestSeedPopulatesEmptyStore(t *testing.T) {
	ctx := context.Background()
	cfg, store, svc := seedFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	summary, err := Seed(ctx, cfg, store, svc, logger)
	require.NoError(t, err)
	require.Positive(t, summary.InventoryItems)
	require.Equal(t, summary.InventoryItems+1, summary.LedgerEntries)
	require.Equal(t, 2, summary.QuoteRequests)
	require.Equal(t, 2, summary.Quotes)
	require.Equal(t, 1, summary.DroppedQuotes)

	records, err := store.Inventory.ListInventory(ctx)
	require.NoError(t, err)
	require.Len(t, records, summary.InventoryItems)

	found, err := svc.Quotes.Search(ctx, []string{"poster"}, quotes.DefaultLimit)
	require.NoError(t, err)
	require.Len(t, found, 1)

	report, err := svc.Ledger.FinancialReport(ctx, cfg.OpeningDate)
	require.NoError(t, err)
	require.True(t, report.TotalAssets.Equal(mustCash(t, cfg)))
	require.True(t, report.InventoryValue.IsPositive())

	_, err = Seed(ctx, cfg, store, svc, logger)
	require.ErrorIs(t, err, ledger.ErrAlreadySeeded)
}

func TestSeedSkipsMissingQuoteCorpus(t *testing.T) {
	cfg, store, svc := seedFixture(t)
	cfg.QuotesCSV = filepath.Join(t.TempDir(), "missing.csv")

	summary, err := Seed(context.Background(), cfg, store, svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.Positive(t, summary.LedgerEntries)
	require.Zero(t, summary.Quotes)
}

type failingInventory struct {
	catalog.InventoryStore
	fail bool
}

func (f *failingInventory) ReplaceInventory(ctx context.Context, records []catalog.InventoryRecord) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.InventoryStore.ReplaceInventory(ctx, records)
}

func TestSeedFailureLeavesLedgerRetryable(t *testing.T) {
	ctx := context.Background()
	cfg, store, svc := seedFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inventory := &failingInventory{InventoryStore: store.Inventory, fail: true}
	store.Inventory = inventory

	_, err := Seed(ctx, cfg, store, svc, logger)
	require.ErrorContains(t, err, "disk full")
	seeded, err := svc.Ledger.Seeded(ctx)
	require.NoError(t, err)
	require.False(t, seeded)

	inventory.fail = false
	summary, err := Seed(ctx, cfg, store, svc, logger)
	require.NoError(t, err)
	require.Equal(t, summary.InventoryItems+1, summary.LedgerEntries)
	records, err := store.Inventory.ListInventory(ctx)
	require.NoError(t, err)
	require.Len(t, records, summary.InventoryItems)
}

func TestSeedRefusesSeededLedgerBeforeWriting(t *testing.T) {
	ctx := context.Background()
	cfg, store, svc := seedFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := Seed(ctx, cfg, store, svc, logger)
	require.NoError(t, err)

	inventory := &failingInventory{InventoryStore: store.Inventory, fail: true}
	store.Inventory = inventory
	_, err = Seed(ctx, cfg, store, svc, logger)
	require.ErrorIs(t, err, ledger.ErrAlreadySeeded)
}

func mustCash(t *testing.T, cfg *Config) decimal.Decimal {
	t.Helper()
	cash, err := cfg.OpeningCashAmount()
	require.NoError(t, err)
	return cash
}
