package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/paperdesk/backoffice/internal/catalog"
	"github.com/paperdesk/backoffice/internal/ledger"
	"github.com/paperdesk/backoffice/internal/platform/db"
	"github.com/paperdesk/backoffice/internal/platform/sqlite"
	"github.com/paperdesk/backoffice/internal/quotes"
)

// Store bundles the repositories of one relational backend.
type Store struct {
	Ledger    ledger.Repository
	Inventory catalog.InventoryStore
	Quotes    quotes.Repository

	ping  func(ctx context.Context) error
	close func() error
}

// OpenStore connects the backend named by cfg.StoreDriver and applies
// migrations.
func OpenStore(ctx context.Context, cfg *Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case DriverPostgres:
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			return nil, err
		}
		logger.Info("store opened", slog.String("driver", DriverPostgres))
		return &Store{
			Ledger:    ledger.NewPostgresRepository(pool),
			Inventory: catalog.NewRepository(pool),
			Quotes:    quotes.NewPostgresRepository(pool),
			ping:      pool.Ping,
			close:     func() error { pool.Close(); return nil },
		}, nil
	case DriverSQLite:
		sqlDB, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("store opened", slog.String("driver", DriverSQLite), slog.String("path", cfg.SQLitePath))
		return NewSQLiteStore(sqlDB), nil
	default:
		return nil, fmt.Errorf("app: unknown store driver %q", cfg.StoreDriver)
	}
}

// NewSQLiteStore builds a Store over an already migrated SQLite handle.
func NewSQLiteStore(sqlDB *sql.DB) *Store {
	return &Store{
		Ledger:    ledger.NewSQLiteRepository(sqlDB),
		Inventory: catalog.NewSQLiteRepository(sqlDB),
		Quotes:    quotes.NewSQLiteRepository(sqlDB),
		ping:      sqlDB.PingContext,
		close:     sqlDB.Close,
	}
}

// Ping reports backend reachability.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}
