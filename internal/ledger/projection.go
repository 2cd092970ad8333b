package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/paperdesk/backoffice/internal/catalog"
)

// The functions below replay a slice of entries up to an inclusive cutoff.
// They ignore entries dated after asOf, so callers may pass a superset, and
// they never depend on the order of the slice.

// PriceList resolves current unit prices.
type PriceList interface {
	UnitPrice(name string) (decimal.Decimal, bool)
}

func included(t Transaction, asOf string) bool {
	return t.Date <= asOf
}

// StockOf returns the net units of item as of asOf, 0 when it never moved.
func StockOf(entries []Transaction, item, asOf string) int64 {
	var stock int64
	for _, t := range entries {
		if t.ItemName == nil || *t.ItemName != item || !included(t, asOf) {
			continue
		}
		stock += t.UnitDelta()
	}
	return stock
}

// StockLevels returns net units for every item that has entries, including
// zero and negative balances.
func StockLevels(entries []Transaction, asOf string) map[string]int64 {
	levels := make(map[string]int64)
	for _, t := range entries {
		if t.ItemName == nil || !included(t, asOf) {
			continue
		}
		levels[*t.ItemName] += t.UnitDelta()
	}
	return levels
}

// PositiveStock is StockLevels restricted to items with stock above zero.
func PositiveStock(entries []Transaction, asOf string) map[string]int64 {
	levels := StockLevels(entries, asOf)
	for item, qty := range levels {
		if qty <= 0 {
			delete(levels, item)
		}
	}
	return levels
}

// CashBalance is sales revenue minus stock order spend, 0 for no entries.
func CashBalance(entries []Transaction, asOf string) decimal.Decimal {
	cash := decimal.Zero
	for _, t := range entries {
		if !included(t, asOf) {
			continue
		}
		cash = cash.Add(t.CashDelta())
	}
	return cash
}

// InventoryValue prices signed stock at the current list price, so negative
// stock counts against the total. Items missing from prices are worth nothing.
func InventoryValue(levels map[string]int64, prices PriceList) decimal.Decimal {
	total := decimal.Zero
	for item, qty := range levels {
		total = total.Add(lineValue(item, qty, prices))
	}
	return total
}

func lineValue(item string, qty int64, prices PriceList) decimal.Decimal {
	price, ok := prices.UnitPrice(item)
	if !ok {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(qty))
}

// TopSellers ranks items by summed sale price, highest first, ties broken by
// item name ascending. Cash-only sales entries are not ranked.
func TopSellers(entries []Transaction, asOf string, limit int) []SellerRow {
	byItem := make(map[string]*SellerRow)
	for _, t := range entries {
		if t.Type != Sale || t.ItemName == nil || !included(t, asOf) {
			continue
		}
		row, ok := byItem[*t.ItemName]
		if !ok {
			row = &SellerRow{ItemName: *t.ItemName, TotalRevenue: decimal.Zero}
			byItem[*t.ItemName] = row
		}
		if t.Units != nil {
			row.TotalUnits += *t.Units
		}
		row.TotalRevenue = row.TotalRevenue.Add(t.Price)
	}
	rows := make([]SellerRow, 0, len(byItem))
	for _, row := range byItem {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if cmp := rows[i].TotalRevenue.Cmp(rows[j].TotalRevenue); cmp != 0 {
			return cmp > 0
		}
		return rows[i].ItemName < rows[j].ItemName
	})
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// BuildFinancialReport assembles the full position as of asOf. The inventory
// summary lists every reference item plus any other item with non-zero
// stock, sorted by name.
func BuildFinancialReport(entries []Transaction, asOf string, prices PriceList, reference []catalog.InventoryRecord) FinancialReport {
	levels := StockLevels(entries, asOf)

	names := make(map[string]struct{}, len(levels)+len(reference))
	for _, rec := range reference {
		names[rec.ItemName] = struct{}{}
	}
	for item, qty := range levels {
		if qty != 0 {
			names[item] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	summary := make([]InventoryLine, 0, len(sorted))
	for _, name := range sorted {
		price, ok := prices.UnitPrice(name)
		if !ok {
			price = decimal.Zero
		}
		qty := levels[name]
		summary = append(summary, InventoryLine{
			ItemName:  name,
			Stock:     qty,
			UnitPrice: price,
			Value:     lineValue(name, qty, prices),
		})
	}

	cash := CashBalance(entries, asOf)
	value := InventoryValue(levels, prices)
	return FinancialReport{
		AsOfDate:           asOf,
		CashBalance:        cash,
		InventoryValue:     value,
		TotalAssets:        cash.Add(value),
		InventorySummary:   summary,
		TopSellingProducts: TopSellers(entries, asOf, TopSellerLimit),
	}
}

// ReorderCandidates lists reference items whose projected stock is below
// their minimum level, sorted by name.
func ReorderCandidates(levels map[string]int64, reference []catalog.InventoryRecord) []ReorderCandidate {
	out := []ReorderCandidate{}
	for _, rec := range reference {
		stock := levels[rec.ItemName]
		if stock >= rec.MinStockLevel {
			continue
		}
		out = append(out, ReorderCandidate{
			ItemName:      rec.ItemName,
			Stock:         stock,
			MinStockLevel: rec.MinStockLevel,
			Shortfall:     rec.MinStockLevel - stock,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out
}

// StockHistory returns item's entries up to asOf in (date, id) order with a
// running balance.
func StockHistory(entries []Transaction, item, asOf string) []HistoryEntry {
	selected := make([]Transaction, 0)
	for _, t := range entries {
		if t.ItemName != nil && *t.ItemName == item && included(t, asOf) {
			selected = append(selected, t)
		}
	}
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].Date != selected[j].Date {
			return selected[i].Date < selected[j].Date
		}
		return selected[i].ID < selected[j].ID
	})
	out := make([]HistoryEntry, 0, len(selected))
	var balance int64
	for _, t := range selected {
		delta := t.UnitDelta()
		balance += delta
		out = append(out, HistoryEntry{Transaction: t, Delta: delta, Balance: balance})
	}
	return out
}
