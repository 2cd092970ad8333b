package quotes

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/paperdesk/backoffice/internal/shared"
)

// LoadRequests reads quote_requests.csv. Only the response column is used;
// ids are assigned 1..N in file order.
func LoadRequests(r io.Reader) ([]Request, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	col, ok := header["response"]
	if !ok {
		return nil, fmt.Errorf("%w: missing response column", ErrMalformedCorpus)
	}
	out := make([]Request, 0, len(rows))
	for i, row := range rows {
		out = append(out, Request{ID: int64(i + 1), Response: row[col]})
	}
	return out, nil
}

// LoadQuotes reads quotes.csv. request_id is assigned 1..N in file order and
// every quote is dated orderDate.
func LoadQuotes(r io.Reader, orderDate string) ([]Quote, error) {
	date, err := shared.ParseDate(orderDate)
	if err != nil {
		return nil, err
	}
	rows, header, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	amountCol, ok := header["total_amount"]
	if !ok {
		return nil, fmt.Errorf("%w: missing total_amount column", ErrMalformedCorpus)
	}
	explCol, ok := header["quote_explanation"]
	if !ok {
		return nil, fmt.Errorf("%w: missing quote_explanation column", ErrMalformedCorpus)
	}
	metaCol, hasMeta := header["request_metadata"]

	out := make([]Quote, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		amount, err := decimal.NewFromString(strings.TrimSpace(row[amountCol]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d total_amount: %v", ErrMalformedCorpus, line, err)
		}
		q := Quote{
			RequestID:        int64(i + 1),
			TotalAmount:      amount,
			QuoteExplanation: row[explCol],
			OrderDate:        date,
		}
		if hasMeta {
			meta, err := ParseMetadata(row[metaCol])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			q.JobType, q.OrderSize, q.EventType = meta.JobType, meta.OrderSize, meta.EventType
		}
		out = append(out, q)
	}
	return out, nil
}

// LoadCorpusFiles reads both CSV files from disk. Quotes without a matching
// request are dropped and counted in the returned total.
func LoadCorpusFiles(requestsPath, quotesPath, orderDate string) (Corpus, int, error) {
	rf, err := os.Open(requestsPath)
	if err != nil {
		return Corpus{}, 0, fmt.Errorf("quotes: open requests: %w", err)
	}
	defer rf.Close()
	requests, err := LoadRequests(rf)
	if err != nil {
		return Corpus{}, 0, fmt.Errorf("quotes: %s: %w", requestsPath, err)
	}

	qf, err := os.Open(quotesPath)
	if err != nil {
		return Corpus{}, 0, fmt.Errorf("quotes: open quotes: %w", err)
	}
	defer qf.Close()
	quotes, err := LoadQuotes(qf, orderDate)
	if err != nil {
		return Corpus{}, 0, fmt.Errorf("quotes: %s: %w", quotesPath, err)
	}

	corpus, dropped := NewCorpus(requests, quotes)
	return corpus, dropped, nil
}

// NewCorpus pairs quotes with requests, dropping quotes whose request_id has
// no request.
func NewCorpus(requests []Request, quotes []Quote) (Corpus, int) {
	ids := make(map[int64]struct{}, len(requests))
	for _, r := range requests {
		ids[r.ID] = struct{}{}
	}
	kept := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if _, ok := ids[q.RequestID]; ok {
			kept = append(kept, q)
		}
	}
	return Corpus{Requests: requests, Quotes: kept}, len(quotes) - len(kept)
}

func readCSV(r io.Reader) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: empty file", ErrMalformedCorpus)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedCorpus, err)
	}
	header := make(map[string]int, len(first))
	for i, name := range first {
		header[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformedCorpus, err)
		}
		if len(row) < len(first) {
			padded := make([]string, len(first))
			copy(padded, row)
			row = padded
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}
