package app

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/paperdesk/backoffice/internal/catalog"
	"github.com/paperdesk/backoffice/internal/ledger"
	"github.com/paperdesk/backoffice/internal/quotes"
)

// SeedSummary reports what Seed wrote.
type SeedSummary struct {
	InventoryItems int `json:"inventory_items"`
	LedgerEntries  int `json:"ledger_entries"`
	QuoteRequests  int `json:"quote_requests"`
	Quotes         int `json:"quotes"`
	DroppedQuotes  int `json:"dropped_quotes"`
}

// Seed initialises an empty store: the sampled inventory reference, the
// quote history and finally the opening ledger balances. It refuses to run
// once the ledger holds entries. The reference and quote writes replace
// their tables, so a seed that fails before the ledger write can be rerun.
// Missing quote CSV files are skipped with a warning.
func Seed(ctx context.Context, cfg *Config, store *Store, svc *Services, logger *slog.Logger) (SeedSummary, error) {
	var summary SeedSummary
	cash, err := cfg.OpeningCashAmount()
	if err != nil {
		return summary, err
	}
	seeded, err := svc.Ledger.Seeded(ctx)
	if err != nil {
		return summary, err
	}
	if seeded {
		return summary, ledger.ErrAlreadySeeded
	}
	records, err := catalog.SampleInventory(svc.Catalog, cfg.SeedCoverage, cfg.SeedRandom)
	if err != nil {
		return summary, err
	}

	if err := store.Inventory.ReplaceInventory(ctx, records); err != nil {
		return summary, err
	}
	summary.InventoryItems = len(records)

	corpus, dropped, err := quotes.LoadCorpusFiles(cfg.QuoteRequestsCSV, cfg.QuotesCSV, cfg.OpeningDate)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("quote corpus not found, skipping", slog.String("requests", cfg.QuoteRequestsCSV), slog.String("quotes", cfg.QuotesCSV))
	case err != nil:
		return summary, err
	default:
		if dropped > 0 {
			logger.Warn("quotes without a matching request dropped", slog.Int("dropped", dropped))
		}
		if err := svc.Quotes.Import(ctx, corpus); err != nil {
			return summary, err
		}
		summary.QuoteRequests = len(corpus.Requests)
		summary.Quotes = len(corpus.Quotes)
		summary.DroppedQuotes = dropped
	}

	n, err := svc.Ledger.SeedOpeningBalances(ctx, ledger.OpeningBalance{Cash: cash, Date: cfg.OpeningDate}, records)
	if err != nil {
		return summary, err
	}
	summary.LedgerEntries = n
	return summary, nil
}
