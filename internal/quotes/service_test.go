package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/backoffice/internal/platform/sqlite"
)

func newSQLiteService(t *testing.T, corpus Corpus) *Service {
	t.Helper()
	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewService(NewSQLiteRepository(db), nil)
	require.NoError(t, svc.Import(context.Background(), corpus))
	return svc
}

func fixtureCorpus() Corpus {
	return Corpus{
		Requests: []Request{
			{ID: 1, Response: "Glossy paper and napkins for a gala"},
			{ID: 2, Response: "Glossy paper for flyers"},
			{ID: 3, Response: "Need 100% recycled cardstock"},
			{ID: 4, Response: "Poster board for a school fair"},
		},
		Quotes: []Quote{
			{RequestID: 1, TotalAmount: decimal.NewFromInt(90), QuoteExplanation: "Bundle discount", OrderDate: "2025-01-01"},
			{RequestID: 2, TotalAmount: decimal.NewFromInt(40), QuoteExplanation: "Includes NAPKINS upsell", OrderDate: "2025-02-01"},
			{RequestID: 3, TotalAmount: decimal.NewFromInt(25), QuoteExplanation: "Recycled stock", OrderDate: "2025-01-15"},
			{RequestID: 4, TotalAmount: decimal.NewFromInt(15), QuoteExplanation: "Standard poster rate", OrderDate: "2025-01-01"},
		},
	}
}

func requestIDs(records []Record) []int64 {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.RequestID)
	}
	return ids
}

func TestSearchANDAcrossTermsORAcrossFields(t *testing.T) {
	svc := newSQLiteService(t, fixtureCorpus())
	ctx := context.Background()

	got, err := svc.Search(ctx, []string{"glossy", "napkins"}, 10)
	require.NoError(t, err)
	// Request 2 matches napkins only in its explanation.
	require.Equal(t, []int64{2, 1}, requestIDs(got))

	got, err = svc.Search(ctx, []string{"GLOSSY", "flyers"}, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, requestIDs(got))

	got, err = svc.Search(ctx, []string{"glossy", "vellum"}, 10)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSearchOrderingAndLimit(t *testing.T) {
	svc := newSQLiteService(t, fixtureCorpus())
	ctx := context.Background()

	got, err := svc.Search(ctx, nil, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3, 1, 4}, requestIDs(got))

	got, err = svc.Search(ctx, []string{" ", ""}, 2)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3}, requestIDs(got))
	require.Equal(t, "40", got[0].TotalAmount.String())
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	svc := newSQLiteService(t, fixtureCorpus())
	ctx := context.Background()

	got, err := svc.Search(ctx, []string{"100%"}, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{3}, requestIDs(got))

	got, err = svc.Search(ctx, []string{"%"}, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{3}, requestIDs(got))

	got, err = svc.Search(ctx, []string{"_"}, 10)
	require.NoError(t, err)
	require.Empty(t, got)
}

func manyQuotes(n int) Corpus {
	corpus := Corpus{}
	for i := 1; i <= n; i++ {
		corpus.Requests = append(corpus.Requests, Request{ID: int64(i), Response: fmt.Sprintf("order %d", i)})
		corpus.Quotes = append(corpus.Quotes, Quote{RequestID: int64(i), TotalAmount: decimal.NewFromInt(int64(i)), OrderDate: "2025-01-01"})
	}
	return corpus
}

func TestSearchHonoursCallerLimit(t *testing.T) {
	svc := newSQLiteService(t, manyQuotes(150))
	ctx := context.Background()

	got, err := svc.Search(ctx, nil, 120)
	require.NoError(t, err)
	require.Len(t, got, 120)

	got, err = svc.Search(ctx, []string{"order"}, 5)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3, 4, 5}, requestIDs(got))

	got, err = svc.Search(ctx, nil, 0)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = svc.Search(ctx, nil, -1)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestHandlerSearchLimits(t *testing.T) {
	svc := newSQLiteService(t, manyQuotes(150))
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)

	for _, tc := range []struct {
		query string
		want  int
	}{
		{"/quotes", DefaultLimit},
		{"/quotes?limit=0", 0},
		{"/quotes?limit=120", MaxLimit},
		{"/quotes?limit=7", 7},
	} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.query, nil))
		require.Equal(t, http.StatusOK, rr.Code, tc.query)
		var body searchResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body.Quotes, tc.want, tc.query)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/quotes?limit=-2", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerSearch(t *testing.T) {
	svc := newSQLiteService(t, fixtureCorpus())
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/quotes?q=glossy&q=napkins&limit=1", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var body searchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, []int64{2}, requestIDs(body.Quotes))

	req = httptest.NewRequest(http.MethodGet, "/quotes?q=glossy,flyers", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, []int64{2}, requestIDs(body.Quotes))

	req = httptest.NewRequest(http.MethodGet, "/quotes?limit=many", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
