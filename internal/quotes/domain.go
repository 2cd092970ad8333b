package quotes

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Request is a historical customer inquiry.
type Request struct {
	ID       int64
	Response string
}

// Quote is the answer sent for a request, keyed 1:1 by RequestID.
type Quote struct {
	RequestID        int64
	TotalAmount      decimal.Decimal
	QuoteExplanation string
	OrderDate        string
	JobType          string
	OrderSize        string
	EventType        string
}

// Record is a search hit: a quote joined with its originating request.
type Record struct {
	RequestID        int64           `json:"request_id"`
	OriginalRequest  string          `json:"original_request"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	QuoteExplanation string          `json:"quote_explanation"`
	JobType          string          `json:"job_type"`
	OrderSize        string          `json:"order_size"`
	EventType        string          `json:"event_type"`
	OrderDate        string          `json:"order_date"`
}

// Corpus is the full quote history loaded at initialisation.
type Corpus struct {
	Requests []Request
	Quotes   []Quote
}

const (
	// DefaultLimit applies when a request omits the limit.
	DefaultLimit = 5
	// MaxLimit caps a single search over HTTP.
	MaxLimit = 100
)

var (
	// ErrMalformedCorpus indicates a CSV file that cannot be loaded.
	ErrMalformedCorpus = errors.New("quotes: malformed corpus")
	// ErrMalformedMetadata indicates a request_metadata value that is not a dict literal.
	ErrMalformedMetadata = errors.New("quotes: malformed request metadata")
)
