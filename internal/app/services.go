package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/paperdesk/backoffice/internal/catalog"
	"github.com/paperdesk/backoffice/internal/ledger"
	"github.com/paperdesk/backoffice/internal/observability"
	"github.com/paperdesk/backoffice/internal/platform/cache"
	"github.com/paperdesk/backoffice/internal/quotes"
	"github.com/paperdesk/backoffice/internal/supply"
)

// Services is the domain layer shared by the HTTP server, the MCP server and
// the worker.
type Services struct {
	Catalog   *catalog.Catalog
	Ledger    *ledger.Service
	Quotes    *quotes.Service
	Estimator *supply.Estimator
	Redis     *redis.Client
}

// LoadCatalog reads CATALOG_FILE, falling back to the embedded price list.
func LoadCatalog(cfg *Config) (*catalog.Catalog, error) {
	if cfg.CatalogFile != "" {
		return catalog.LoadFile(cfg.CatalogFile)
	}
	return catalog.Default()
}

// NewServices wires domain services over store. Redis is optional: when it
// cannot be reached projections are computed without a cache.
func NewServices(ctx context.Context, cfg *Config, store *Store, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	cat, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	opts := ledger.ServiceOptions{Logger: logger, Observer: metrics}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, projection cache disabled", slog.Any("error", err))
		} else {
			redisClient = client
			opts.Cache = ledger.NewCache(client, cfg.CacheTTL, metrics)
		}
	}

	return &Services{
		Catalog:   cat,
		Ledger:    ledger.NewService(store.Ledger, cat, store.Inventory, opts),
		Quotes:    quotes.NewService(store.Quotes, logger),
		Estimator: supply.NewEstimator(time.Now, logger),
		Redis:     redisClient,
	}, nil
}

// Close releases the redis client when one was opened.
func (s *Services) Close() error {
	if s == nil || s.Redis == nil {
		return nil
	}
	return s.Redis.Close()
}
