package reporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pos-sales-report/internal/models"
)

const (
	// ExportSheet is the single sheet of the flat export workbook.
	ExportSheet = "Sales Report"
	// DefaultExportFileName is used when no output path is given.
	DefaultExportFileName = "sales_report.xlsx"
)

// ExportHeaders is the header row of the flat export, in Row() order.
var ExportHeaders = []string{
	"Transaction Date",
	"Product Name/SKU",
	"Product SKU",
	"Category",
	"Location",
	"Quantity",
	"Tax",
	"Sales (Tax Inclusive)",
	"POST PAID",
}

var exportColumnWidths = []float64{15, 50, 20, 15, 12, 12, 15, 18, 15}

// WriteExcel writes the ranked summaries as a single-sheet workbook, one
// row per product under a bold header row.
func WriteExcel(summaries []*models.ProductSummary, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(ExportHeaders))
	for i, h := range ExportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(ExportHeaders), 1)
	if err := f.SetCellStyle(ExportSheet, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	for i, summary := range summaries {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := summary.Row()
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := setColumnWidths(f, ExportSheet, exportColumnWidths); err != nil {
		return err
	}

	if _, err := f.WriteTo(writer); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setColumnWidths(f *excelize.File, sheet string, widths []float64) error {
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}
	return nil
}
