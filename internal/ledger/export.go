package ledger

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet   = "Summary"
	inventorySheet = "Inventory"
	sellersSheet   = "Top Sellers"
)

// WriteReportWorkbook renders report as an xlsx workbook with a summary,
// inventory and top sellers sheet.
func WriteReportWorkbook(w io.Writer, report FinancialReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("ledger export: %w", err)
	}
	for _, name := range []string{inventorySheet, sellersSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("ledger export: %w", err)
		}
	}

	summary := [][]any{
		{"As of date", report.AsOfDate},
		{"Cash balance", report.CashBalance.InexactFloat64()},
		{"Inventory value", report.InventoryValue.InexactFloat64()},
		{"Total assets", report.TotalAssets.InexactFloat64()},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}

	inventory := [][]any{{"Item", "Stock", "Unit price", "Value"}}
	for _, line := range report.InventorySummary {
		inventory = append(inventory, []any{line.ItemName, line.Stock, line.UnitPrice.InexactFloat64(), line.Value.InexactFloat64()})
	}
	if err := writeRows(f, inventorySheet, inventory); err != nil {
		return err
	}

	sellers := [][]any{{"Item", "Units sold", "Revenue"}}
	for _, row := range report.TopSellingProducts {
		sellers = append(sellers, []any{row.ItemName, row.TotalUnits, row.TotalRevenue.InexactFloat64()})
	}
	if err := writeRows(f, sellersSheet, sellers); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("ledger export: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("ledger export: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("ledger export: %w", err)
		}
	}
	return nil
}
