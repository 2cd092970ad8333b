package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/paperdesk/backoffice/internal/shared"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newSQLiteService(t, ServiceOptions{})
	now := func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	NewHandler(nil, svc, now).MountRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandlerAppendAndQuery(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/transactions", `{"item_name":"A4 paper","transaction_type":"purchase","units":300,"price":"15","transaction_date":"2025-02-01"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created appendResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Positive(t, created.ID)

	rr = do(t, h, http.MethodGet, "/stock/A4%20paper?as_of=2025-02-01", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var stock stockResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stock))
	require.Equal(t, "A4 paper", stock.ItemName)
	require.Equal(t, int64(300), stock.Stock)

	rr = do(t, h, http.MethodGet, "/stock", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var all map[string]int64
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	require.Equal(t, map[string]int64{"A4 paper": 300}, all)

	rr = do(t, h, http.MethodGet, "/cash?as_of=2025-01-31", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"amount":"0"`)

	rr = do(t, h, http.MethodGet, "/reports/financial", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var report FinancialReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	require.Equal(t, "2025-03-01", report.AsOfDate)
	require.Equal(t, "-15", report.CashBalance.String())
}

func TestHandlerRejectsBadRequests(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/transactions", `{"transaction_type":"refund","price":"1","transaction_date":"2025-02-01"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

	rr = do(t, h, http.MethodPost, "/transactions", `{"transaction_type":"sales","price":"1"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/transactions", `{"transaction_type":"sales","price":"1","transaction_date":"2025-02-01","note":"x"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/cash?as_of=2025-13-01", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerReportWorkbook(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, http.MethodPost, "/transactions", `{"transaction_type":"sales","price":"1000","transaction_date":"2025-01-01"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, h, http.MethodGet, "/reports/financial.xlsx?as_of=2025-01-31", "")
	require.Equal(t, http.StatusOK, rr.Code)

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.Equal(t, []string{"Summary", "Inventory", "Top Sellers"}, f.GetSheetList())
	value, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	require.Equal(t, "1000", value)
}

func TestHandlerAppendIdempotencyKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, repo := newSQLiteService(t, ServiceOptions{})
	r := chi.NewRouter()
	NewHandler(nil, svc, nil).WithIdempotency(shared.NewIdempotencyStore(client, time.Hour)).MountRoutes(r)

	post := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", key)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}
	body := `{"item_name":"Cardstock","transaction_type":"sales","units":10,"price":"2","transaction_date":"2025-02-03"}`

	first := post("order-7", body)
	require.Equal(t, http.StatusCreated, first.Code)
	retry := post("order-7", body)
	require.Equal(t, http.StatusOK, retry.Code)
	require.JSONEq(t, first.Body.String(), retry.Body.String())

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	rejected := post("order-8", `{"transaction_type":"refund","price":"1","transaction_date":"2025-02-03"}`)
	require.Equal(t, http.StatusBadRequest, rejected.Code)
	require.Equal(t, http.StatusCreated, post("order-8", body).Code)
}

func TestHandlerEchoesCanonicalAsOfDate(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, http.MethodPost, "/transactions", `{"item_name":"A4 paper","transaction_type":"purchase","units":300,"price":"15","transaction_date":"2025-01-05"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, h, http.MethodGet, "/stock/A4%20paper?as_of=2025-01-05T23:59:59", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var stock stockResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stock))
	require.Equal(t, "2025-01-05", stock.AsOfDate)
	require.Equal(t, int64(300), stock.Stock)

	for _, path := range []string{"/cash", "/inventory-value"} {
		rr = do(t, h, http.MethodGet, path+"?as_of=2025-01-05T23:59:59", "")
		require.Equal(t, http.StatusOK, rr.Code, path)
		var amount amountResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &amount))
		require.Equal(t, "2025-01-05", amount.AsOfDate, path)
	}
}
