package supply

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 30, 22, 45, 0, 0, time.UTC)
}

func TestEstimateTiers(t *testing.T) {
	e := NewEstimator(fixedClock, nil)
	ctx := context.Background()
	cases := []struct {
		qty  int64
		want string
	}{
		{5, "2025-04-10"},
		{10, "2025-04-10"},
		{11, "2025-04-11"},
		{50, "2025-04-11"},
		{100, "2025-04-11"},
		{101, "2025-04-14"},
		{500, "2025-04-14"},
		{1000, "2025-04-14"},
		{1001, "2025-04-17"},
		{5000, "2025-04-17"},
	}
	for _, tc := range cases {
		got := e.Estimate(ctx, "2025-04-10", tc.qty)
		require.Equal(t, tc.want, got.DeliveryDate, "qty %d", tc.qty)
		require.False(t, got.Degraded)
	}
}

func TestEstimateTruncatesDatetime(t *testing.T) {
	e := NewEstimator(fixedClock, nil)
	got := e.Estimate(context.Background(), "2025-12-30T18:00:00", 500)
	require.Equal(t, "2026-01-03", got.DeliveryDate)
	require.Equal(t, 4, got.LeadDays)
}

func TestEstimateFallsBackToToday(t *testing.T) {
	e := NewEstimator(fixedClock, nil)
	got := e.Estimate(context.Background(), "next tuesday", 50)
	require.True(t, got.Degraded)
	require.Equal(t, "2025-07-01", got.DeliveryDate)
}

func TestHandlerEstimate(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(NewEstimator(fixedClock, nil)).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/delivery-estimate?date=2025-04-10&quantity=1001", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got Estimate
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, "2025-04-17", got.DeliveryDate)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/delivery-estimate?date=2025-04-10&quantity=ten", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/delivery-estimate?date=2025-04-10&quantity=-1", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/delivery-estimate?quantity=3", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.True(t, got.Degraded)
	require.Equal(t, "2025-06-30", got.DeliveryDate)
}

func TestEstimateFromNewYear(t *testing.T) {
	e := NewEstimator(fixedClock, nil)
	for qty, want := range map[int64]string{5: "2025-01-01", 50: "2025-01-02", 500: "2025-01-05", 5000: "2025-01-08"} {
		require.Equal(t, want, e.Estimate(context.Background(), "2025-01-01", qty).DeliveryDate)
	}
}
