package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/paperdesk/backoffice/internal/app"
)

// SeedOptions defines the inputs of the seed command.
type SeedOptions struct {
	Config *app.Config
	Logger *slog.Logger
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
}

// SeedCommand initialises an empty store from the catalog and the quote CSV
// corpus and prints a summary. Flags: -json, -coverage, -random.
func SeedCommand(ctx context.Context, opts SeedOptions) int {
	opts.Stdout, opts.Stderr = defaultWriters(opts.Stdout, opts.Stderr)
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(opts.Stderr, nil))
	}
	cfg := *opts.Config

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(opts.Stderr)
	jsonOutput := fs.Bool("json", false, "print the summary as JSON")
	fs.Float64Var(&cfg.SeedCoverage, "coverage", cfg.SeedCoverage, "fraction of catalog items stocked, within [0,1]")
	fs.Uint64Var(&cfg.SeedRandom, "random", cfg.SeedRandom, "sampling seed")
	if err := fs.Parse(opts.Args); err != nil {
		return 2
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "seed: %v\n", err)
		return 2
	}

	store, err := app.OpenStore(ctx, &cfg, opts.Logger)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "seed: open store: %v\n", err)
		return 1
	}
	defer store.Close()

	services, err := app.NewServices(ctx, &cfg, store, opts.Logger, nil)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "seed: %v\n", err)
		return 1
	}
	defer services.Close()

	summary, err := app.Seed(ctx, &cfg, store, services, opts.Logger)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "seed: %v\n", err)
		return 1
	}
	if *jsonOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "seed: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(opts.Stdout, "seeded %d inventory items, %d ledger entries, %d requests, %d quotes (%d dropped)\n",
		summary.InventoryItems, summary.LedgerEntries, summary.QuoteRequests, summary.Quotes, summary.DroppedQuotes)
	return 0
}

func defaultWriters(stdout, stderr io.Writer) (io.Writer, io.Writer) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdout, stderr
}
