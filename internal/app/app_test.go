package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paperdesk/backoffice/internal/observability"
	"github.com/paperdesk/backoffice/internal/supply"
	_ "github.com/paperdesk/backoffice/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.StoreDriver)
	require.Equal(t, "2025-01-01", cfg.OpeningDate)
	cash, err := cfg.OpeningCashAmount()
	require.NoError(t, err)
	require.Equal(t, "50000", cash.String())
	require.Equal(t, 0.4, cfg.SeedCoverage)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"STORE_DRIVER":          "mysql",
		"SEED_COVERAGE":         "1.5",
		"OPENING_CASH":          "-10",
		"OPENING_DATE":          "2025/01/01",
		"RATE_LIMIT_PER_MINUTE": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestRouterHealthAndMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	metrics := observability.NewMetrics()
	ready := errors.New("store down")
	var failing bool
	router := NewRouter(RouterParams{
		Logger:        logger,
		Config:        &Config{AppEnv: "test", AppRequestTimeout: time.Second, RateLimitPerMinute: 1000},
		Metrics:       metrics,
		SupplyHandler: supply.NewHandler(supply.NewEstimator(nil, logger)),
		Ready: func(context.Context) error {
			if failing {
				return ready
			}
			return nil
		},
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	failing = true
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/delivery-estimate?date=2025-01-01&quantity=20", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"delivery_date":"2025-01-02"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `route="/api/delivery-estimate"`)
}

func TestTestModeFollowsEnvironment(t *testing.T) {
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	require.False(t, InTestMode())

	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())
}
