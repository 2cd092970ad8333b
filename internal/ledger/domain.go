package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/paperdesk/backoffice/internal/shared"
)

// TransactionType enumerates ledger entry kinds. The string values are the
// canonical stored spellings.
type TransactionType string

const (
	// StockOrder buys units from a supplier: stock goes up, cash goes down.
	StockOrder TransactionType = "stock_orders"
	// Sale sells units to a customer: stock goes down, cash goes up.
	Sale TransactionType = "sales"
)

var typeSynonyms = map[string]TransactionType{
	"stock_orders": StockOrder,
	"stock_order":  StockOrder,
	"order":        StockOrder,
	"purchase":     StockOrder,
	"buy":          StockOrder,
	"sales":        Sale,
	"sale":         Sale,
	"sell":         Sale,
}

// ParseTransactionType normalises a caller-supplied kind, accepting the
// recognised synonyms case-insensitively.
func ParseTransactionType(raw string) (TransactionType, error) {
	if t, ok := typeSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w %q: %w", ErrInvalidTransactionType, raw, shared.ErrValidation)
}

// Transaction is one immutable ledger row. A nil ItemName marks a pure cash
// movement; Price is always a positive magnitude whose sign follows Type.
type Transaction struct {
	ID       int64           `json:"id"`
	ItemName *string         `json:"item_name"`
	Type     TransactionType `json:"transaction_type"`
	Units    *int64          `json:"units"`
	Price    decimal.Decimal `json:"price"`
	Date     string          `json:"transaction_date"`
}

// UnitDelta is the signed stock change contributed by the entry.
func (t Transaction) UnitDelta() int64 {
	if t.Units == nil {
		return 0
	}
	if t.Type == Sale {
		return -*t.Units
	}
	return *t.Units
}

// CashDelta is the signed cash change contributed by the entry.
func (t Transaction) CashDelta() decimal.Decimal {
	if t.Type == Sale {
		return t.Price
	}
	return t.Price.Neg()
}

// AppendInput is an unvalidated command to add a ledger entry.
type AppendInput struct {
	ItemName *string
	Type     string
	Units    *int64
	Price    decimal.Decimal
	Date     string
}

// OpeningBalance describes the seed entries written into an empty ledger.
type OpeningBalance struct {
	Cash decimal.Decimal
	Date string
}

// InventoryLine is one row of the financial report's inventory summary.
type InventoryLine struct {
	ItemName  string          `json:"item_name"`
	Stock     int64           `json:"stock"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

// SellerRow ranks an item by sales revenue.
type SellerRow struct {
	ItemName     string          `json:"item_name"`
	TotalUnits   int64           `json:"total_units"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// FinancialReport is the point-in-time company position.
type FinancialReport struct {
	AsOfDate           string          `json:"as_of_date"`
	CashBalance        decimal.Decimal `json:"cash_balance"`
	InventoryValue     decimal.Decimal `json:"inventory_value"`
	TotalAssets        decimal.Decimal `json:"total_assets"`
	InventorySummary   []InventoryLine `json:"inventory_summary"`
	TopSellingProducts []SellerRow     `json:"top_selling_products"`
}

// ReorderCandidate is a reference item whose projected stock fell below its
// minimum level.
type ReorderCandidate struct {
	ItemName      string `json:"item_name"`
	Stock         int64  `json:"stock"`
	MinStockLevel int64  `json:"min_stock_level"`
	Shortfall     int64  `json:"shortfall"`
}

// HistoryEntry is a stock card line: the entry plus the running balance
// after applying it.
type HistoryEntry struct {
	Transaction
	Delta   int64 `json:"delta"`
	Balance int64 `json:"balance"`
}

// TopSellerLimit is the size of the report leaderboard.
const TopSellerLimit = 5

var (
	// ErrInvalidTransactionType indicates an unrecognised entry kind.
	ErrInvalidTransactionType = errors.New("ledger: invalid transaction type")
	// ErrPersistence indicates the ledger store failed; no entry was written.
	ErrPersistence = shared.ErrPersistence
	// ErrAlreadySeeded indicates opening balances were requested for a non-empty ledger.
	ErrAlreadySeeded = errors.New("ledger: already seeded")
)
