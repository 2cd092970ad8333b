package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type cacheCounter struct {
	mu      sync.Mutex
	results map[string]int
}

func (c *cacheCounter) ObserveCache(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string]int{}
	}
	c.results[result]++
}

func newTestCache(t *testing.T, observer CacheObserver) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute, observer)
}

func TestCacheBumpChangesKeys(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t, nil)

	first, err := cache.BuildKey(ctx, "report", "2025-01-01")
	require.NoError(t, err)
	require.Equal(t, "ledger:report:2025-01-01:v1", first)

	require.NoError(t, cache.Bump(ctx))
	second, err := cache.BuildKey(ctx, "report", "2025-01-01")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestCacheFetchJSONHitAndMiss(t *testing.T) {
	ctx := context.Background()
	counter := &cacheCounter{}
	cache := newTestCache(t, counter)

	var calls atomic.Int32
	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return FinancialReport{AsOfDate: "2025-01-01", CashBalance: decimal.RequireFromString("12.50")}, nil
	}

	var got FinancialReport
	require.NoError(t, cache.FetchJSON(ctx, "k", &got, loader))
	require.NoError(t, cache.FetchJSON(ctx, "k", &got, loader))
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, "12.5", got.CashBalance.String())
	require.Equal(t, 1, counter.results["miss"])
	require.Equal(t, 1, counter.results["hit"])
}

func TestNilCacheLoadsDirectly(t *testing.T) {
	var cache *Cache
	var got FinancialReport
	err := cache.FetchJSON(context.Background(), "k", &got, func(context.Context) (any, error) {
		return FinancialReport{AsOfDate: "2025-02-01"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "2025-02-01", got.AsOfDate)
	require.NoError(t, cache.Bump(context.Background()))
}

func TestServiceReportInvalidatedByAppend(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t, nil)
	svc, _ := newSQLiteService(t, ServiceOptions{Cache: cache})

	_, err := svc.Append(ctx, AppendInput{Type: "sales", Price: decimal.NewFromInt(100), Date: "2025-01-01"})
	require.NoError(t, err)
	report, err := svc.FinancialReport(ctx, "2025-01-31")
	require.NoError(t, err)
	require.Equal(t, "100", report.CashBalance.String())

	_, err = svc.Append(ctx, AppendInput{ItemName: ptr("A4 paper"), Type: "buy", Units: ptr(int64(200)), Price: decimal.NewFromInt(10), Date: "2025-01-02"})
	require.NoError(t, err)
	report, err = svc.FinancialReport(ctx, "2025-01-31")
	require.NoError(t, err)
	require.Equal(t, "90", report.CashBalance.String())
	require.Equal(t, "10", report.InventoryValue.String())
}

// staleCache keeps whatever it loaded first and cannot bump its version.
type staleCache struct {
	stored map[string]FinancialReport
	loads  int
}

func (c *staleCache) BuildKey(_ context.Context, parts ...string) (string, error) {
	return fmt.Sprint(parts), nil
}

func (c *staleCache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if report, ok := c.stored[key]; ok {
		*dest.(*FinancialReport) = report
		return nil
	}
	c.loads++
	v, err := loader(ctx)
	if err != nil {
		return err
	}
	report := v.(FinancialReport)
	c.stored[key] = report
	*dest.(*FinancialReport) = report
	return nil
}

func (c *staleCache) Bump(context.Context) error {
	return errors.New("redis: connection refused")
}

func TestFailedBumpDisablesReportCache(t *testing.T) {
	ctx := context.Background()
	cache := &staleCache{stored: map[string]FinancialReport{}}
	svc, _ := newSQLiteService(t, ServiceOptions{Cache: cache})

	report, err := svc.FinancialReport(ctx, "2025-01-31")
	require.NoError(t, err)
	require.True(t, report.CashBalance.IsZero())
	require.Equal(t, 1, cache.loads)

	_, err = svc.Append(ctx, AppendInput{Type: "sales", Price: decimal.NewFromInt(100), Date: "2025-01-01"})
	require.NoError(t, err)

	report, err = svc.FinancialReport(ctx, "2025-01-31")
	require.NoError(t, err)
	require.Equal(t, "100", report.CashBalance.String())
	require.Equal(t, 1, cache.loads)
}
