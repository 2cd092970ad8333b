package toolserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	"github.com/paperdesk/backoffice/internal/ledger"
	"github.com/paperdesk/backoffice/internal/quotes"
	"github.com/paperdesk/backoffice/internal/shared"
)

// CreateTransactionInput is the create_transaction argument set.
type CreateTransactionInput struct {
	ItemName        *string `json:"item_name,omitempty" jsonschema:"catalog item name; omit for a pure cash entry"`
	TransactionType string  `json:"transaction_type" jsonschema:"stock_orders or sales (synonyms such as order or sale are accepted)"`
	Units           *int64  `json:"units,omitempty" jsonschema:"quantity moved; omit for a pure cash entry"`
	Price           float64 `json:"price" jsonschema:"total price of the entry, not per unit"`
	Date            string  `json:"date" jsonschema:"transaction date, YYYY-MM-DD"`
}

// CreateTransactionResult reports the stored entry id.
type CreateTransactionResult struct {
	ID int64 `json:"id" jsonschema:"ledger entry id"`
}

// AsOfInput carries an optional point-in-time cutoff.
type AsOfInput struct {
	AsOf string `json:"as_of,omitempty" jsonschema:"cutoff date, YYYY-MM-DD; defaults to today"`
}

// StockLevelInput is the check_stock_level argument set.
type StockLevelInput struct {
	ItemName string `json:"item_name" jsonschema:"catalog item name"`
	AsOf     string `json:"as_of,omitempty" jsonschema:"cutoff date, YYYY-MM-DD; defaults to today"`
}

// StockLevelResult is the projected stock of one item.
type StockLevelResult struct {
	ItemName     string `json:"item_name" jsonschema:"catalog item name"`
	AsOf         string `json:"as_of" jsonschema:"cutoff date applied"`
	CurrentStock int64  `json:"current_stock" jsonschema:"projected units on hand"`
}

// InventoryResult lists every item with positive stock.
type InventoryResult struct {
	AsOf  string           `json:"as_of" jsonschema:"cutoff date applied"`
	Items map[string]int64 `json:"items" jsonschema:"item name to units on hand"`
}

// CashBalanceResult is the projected cash position.
type CashBalanceResult struct {
	AsOf    string `json:"as_of" jsonschema:"cutoff date applied"`
	Balance string `json:"balance" jsonschema:"decimal cash balance"`
}

// InventoryLine is one report inventory row.
type InventoryLine struct {
	ItemName  string `json:"item_name"`
	Stock     int64  `json:"stock"`
	UnitPrice string `json:"unit_price"`
	Value     string `json:"value"`
}

// SellerLine is one report leaderboard row.
type SellerLine struct {
	ItemName     string `json:"item_name"`
	TotalUnits   int64  `json:"total_units"`
	TotalRevenue string `json:"total_revenue"`
}

// FinancialReportResult mirrors ledger.FinancialReport with decimal strings.
type FinancialReportResult struct {
	AsOfDate           string          `json:"as_of_date"`
	CashBalance        string          `json:"cash_balance"`
	InventoryValue     string          `json:"inventory_value"`
	TotalAssets        string          `json:"total_assets"`
	InventorySummary   []InventoryLine `json:"inventory_summary"`
	TopSellingProducts []SellerLine    `json:"top_selling_products"`
}

// ReorderResult lists items below their minimum stock level.
type ReorderResult struct {
	AsOf       string                    `json:"as_of" jsonschema:"cutoff date applied"`
	Candidates []ledger.ReorderCandidate `json:"candidates" jsonschema:"items to reorder, sorted by name"`
}

// SearchQuotesInput is the search_quote_history argument set.
type SearchQuotesInput struct {
	SearchTerms []string `json:"search_terms" jsonschema:"terms that must all appear in the request or quote explanation"`
	Limit       *int     `json:"limit,omitempty" jsonschema:"maximum rows, default 5"`
}

// QuoteLine is one historical quote.
type QuoteLine struct {
	OriginalRequest  string `json:"original_request"`
	TotalAmount      string `json:"total_amount"`
	QuoteExplanation string `json:"quote_explanation"`
	JobType          string `json:"job_type"`
	OrderSize        string `json:"order_size"`
	EventType        string `json:"event_type"`
	OrderDate        string `json:"order_date"`
}

// SearchQuotesResult wraps matching quotes, newest first.
type SearchQuotesResult struct {
	Quotes []QuoteLine `json:"quotes"`
}

// EstimateDeliveryInput is the estimate_delivery argument set.
type EstimateDeliveryInput struct {
	InputDate string `json:"order_date" jsonschema:"order date, YYYY-MM-DD; an unparseable value falls back to today"`
	Quantity  int64  `json:"quantity" jsonschema:"number of units ordered"`
}

// EstimateDeliveryResult is the projected supplier delivery.
type EstimateDeliveryResult struct {
	DeliveryDate string `json:"delivery_date" jsonschema:"expected delivery date, YYYY-MM-DD"`
	LeadDays     int    `json:"lead_days" jsonschema:"supplier lead time in days"`
	Degraded     bool   `json:"degraded" jsonschema:"true when the order date was unusable and today was used"`
}

func registerLedgerTools(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_transaction",
		Description: "Record a stock order or a sale in the append-only ledger.",
	}, createTransactionHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_stock_level",
		Description: "Projected units on hand for one item as of a date.",
	}, stockLevelHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_all_inventory",
		Description: "Every item with positive stock as of a date.",
	}, allInventoryHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cash_balance",
		Description: "Cash position as of a date: sales minus stock orders.",
	}, cashBalanceHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_financial_report",
		Description: "Cash, inventory valuation, total assets and top sellers as of a date.",
	}, financialReportHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_reorder_candidates",
		Description: "Items whose projected stock is below their minimum level.",
	}, reorderHandler(deps))
}

func registerQuoteTools(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_quote_history",
		Description: "Search past customer requests and quotes by keyword.",
	}, searchQuotesHandler(deps))
}

func registerSupplyTools(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "estimate_delivery",
		Description: "Supplier delivery date for an order of the given size.",
	}, estimateDeliveryHandler(deps))
}

func createTransactionHandler(deps Deps) mcp.ToolHandlerFor[CreateTransactionInput, CreateTransactionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CreateTransactionInput) (*mcp.CallToolResult, CreateTransactionResult, error) {
		id, err := deps.Ledger.Append(ctx, ledger.AppendInput{
			ItemName: input.ItemName,
			Type:     input.TransactionType,
			Units:    input.Units,
			Price:    decimal.NewFromFloat(input.Price),
			Date:     input.Date,
		})
		if err != nil {
			deps.Logger.WarnContext(ctx, "create_transaction failed", slog.Any("error", err))
			return nil, CreateTransactionResult{}, fmt.Errorf("create transaction: %w", err)
		}
		return nil, CreateTransactionResult{ID: id}, nil
	}
}

func stockLevelHandler(deps Deps) mcp.ToolHandlerFor[StockLevelInput, StockLevelResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StockLevelInput) (*mcp.CallToolResult, StockLevelResult, error) {
		asOf := deps.asOf(input.AsOf)
		stock, err := deps.Ledger.StockOf(ctx, input.ItemName, asOf)
		if err != nil {
			return nil, StockLevelResult{}, fmt.Errorf("check stock level: %w", err)
		}
		return nil, StockLevelResult{ItemName: input.ItemName, AsOf: asOf, CurrentStock: stock}, nil
	}
}

func allInventoryHandler(deps Deps) mcp.ToolHandlerFor[AsOfInput, InventoryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AsOfInput) (*mcp.CallToolResult, InventoryResult, error) {
		asOf := deps.asOf(input.AsOf)
		items, err := deps.Ledger.AllStock(ctx, asOf)
		if err != nil {
			return nil, InventoryResult{}, fmt.Errorf("get all inventory: %w", err)
		}
		if items == nil {
			items = map[string]int64{}
		}
		return nil, InventoryResult{AsOf: asOf, Items: items}, nil
	}
}

func cashBalanceHandler(deps Deps) mcp.ToolHandlerFor[AsOfInput, CashBalanceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AsOfInput) (*mcp.CallToolResult, CashBalanceResult, error) {
		asOf := deps.asOf(input.AsOf)
		balance, err := deps.Ledger.CashBalance(ctx, asOf)
		if err != nil {
			return nil, CashBalanceResult{}, fmt.Errorf("get cash balance: %w", err)
		}
		return nil, CashBalanceResult{AsOf: asOf, Balance: balance.StringFixed(2)}, nil
	}
}

func financialReportHandler(deps Deps) mcp.ToolHandlerFor[AsOfInput, FinancialReportResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AsOfInput) (*mcp.CallToolResult, FinancialReportResult, error) {
		report, err := deps.Ledger.FinancialReport(ctx, deps.asOf(input.AsOf))
		if err != nil {
			return nil, FinancialReportResult{}, fmt.Errorf("get financial report: %w", err)
		}
		return nil, toReportResult(report), nil
	}
}

func reorderHandler(deps Deps) mcp.ToolHandlerFor[AsOfInput, ReorderResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AsOfInput) (*mcp.CallToolResult, ReorderResult, error) {
		asOf := deps.asOf(input.AsOf)
		candidates, err := deps.Ledger.ReorderCandidates(ctx, asOf)
		if err != nil {
			return nil, ReorderResult{}, fmt.Errorf("get reorder candidates: %w", err)
		}
		if candidates == nil {
			candidates = []ledger.ReorderCandidate{}
		}
		return nil, ReorderResult{AsOf: asOf, Candidates: candidates}, nil
	}
}

func searchQuotesHandler(deps Deps) mcp.ToolHandlerFor[SearchQuotesInput, SearchQuotesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchQuotesInput) (*mcp.CallToolResult, SearchQuotesResult, error) {
		limit := quotes.DefaultLimit
		if input.Limit != nil {
			if *input.Limit < 0 {
				return nil, SearchQuotesResult{}, fmt.Errorf("search quote history: limit must not be negative: %w", shared.ErrValidation)
			}
			limit = *input.Limit
		}
		records, err := deps.Quotes.Search(ctx, input.SearchTerms, limit)
		if err != nil {
			return nil, SearchQuotesResult{}, fmt.Errorf("search quote history: %w", err)
		}
		return nil, SearchQuotesResult{Quotes: toQuoteLines(records)}, nil
	}
}

func estimateDeliveryHandler(deps Deps) mcp.ToolHandlerFor[EstimateDeliveryInput, EstimateDeliveryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EstimateDeliveryInput) (*mcp.CallToolResult, EstimateDeliveryResult, error) {
		if input.Quantity < 0 {
			return nil, EstimateDeliveryResult{}, fmt.Errorf("estimate delivery: quantity must not be negative: %w", shared.ErrValidation)
		}
		est := deps.Estimator.Estimate(ctx, input.InputDate, input.Quantity)
		return nil, EstimateDeliveryResult{DeliveryDate: est.DeliveryDate, LeadDays: est.LeadDays, Degraded: est.Degraded}, nil
	}
}

func (d Deps) asOf(value string) string {
	if value != "" {
		if date, err := shared.ParseDate(value); err == nil {
			return date
		}
		return value
	}
	if d.Today != nil {
		return d.Today()
	}
	return shared.FormatDate(time.Now())
}

func toReportResult(report ledger.FinancialReport) FinancialReportResult {
	out := FinancialReportResult{
		AsOfDate:           report.AsOfDate,
		CashBalance:        report.CashBalance.StringFixed(2),
		InventoryValue:     report.InventoryValue.StringFixed(2),
		TotalAssets:        report.TotalAssets.StringFixed(2),
		InventorySummary:   make([]InventoryLine, 0, len(report.InventorySummary)),
		TopSellingProducts: make([]SellerLine, 0, len(report.TopSellingProducts)),
	}
	for _, line := range report.InventorySummary {
		out.InventorySummary = append(out.InventorySummary, InventoryLine{
			ItemName:  line.ItemName,
			Stock:     line.Stock,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Value:     line.Value.StringFixed(2),
		})
	}
	for _, row := range report.TopSellingProducts {
		out.TopSellingProducts = append(out.TopSellingProducts, SellerLine{
			ItemName:     row.ItemName,
			TotalUnits:   row.TotalUnits,
			TotalRevenue: row.TotalRevenue.StringFixed(2),
		})
	}
	return out
}

func toQuoteLines(records []quotes.Record) []QuoteLine {
	out := make([]QuoteLine, 0, len(records))
	for _, r := range records {
		out = append(out, QuoteLine{
			OriginalRequest:  r.OriginalRequest,
			TotalAmount:      r.TotalAmount.StringFixed(2),
			QuoteExplanation: r.QuoteExplanation,
			JobType:          r.JobType,
			OrderSize:        r.OrderSize,
			EventType:        r.EventType,
			OrderDate:        r.OrderDate,
		})
	}
	return out
}
