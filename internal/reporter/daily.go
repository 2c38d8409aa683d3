package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"pos-sales-report/internal/models"
	"pos-sales-report/internal/reconciler"
)

const (
	// DailySheet is the single sheet of the daily report workbook.
	DailySheet = "Daily Report"
	// EmptySectionText marks an always-shown section that has no items.
	EmptySectionText = "No items in this section"
)

// DailyColumns is the column header of every daily report section.
var DailyColumns = []string{"NAME", "PRICE", "QUANTITY", "TAX", "TOTAL", "POST PAID", "REMARKS"}

var dailyColumnWidths = []float64{45, 14, 11, 12, 15, 13, 20}

// firstPage holds the sections printed on page one. Every other section
// goes on page two.
var firstPage = map[models.Category]bool{
	models.CategoryOEM:  true,
	models.CategoryShop: true,
}

// alwaysShown sections are rendered with a placeholder when empty.
var alwaysShown = map[models.Category]bool{
	models.CategoryOld:  true,
	models.CategoryMisc: true,
}

// DailyReport is the printable, sectioned view of a result.
type DailyReport struct {
	Title      string          `json:"title"`
	Date       string          `json:"date"`
	Weekday    string          `json:"weekday"`
	Source     string          `json:"source"`
	Pages      []*DailyPage    `json:"pages"`
	Totals     models.Totals   `json:"totals"`
	GrandTotal decimal.Decimal `json:"grand_total"`

	generatedAt time.Time
}

// DailyPage is one printed page.
type DailyPage struct {
	Number   int             `json:"number"`
	Sections []*DailySection `json:"sections"`
}

// DailySection is one category block with its TOTAL row.
type DailySection struct {
	Category models.Category `json:"category"`
	Name     string          `json:"name"`
	Rows     []*DailyRow     `json:"rows"`
	Totals   models.Totals   `json:"totals"`
}

// IsEmpty reports whether the section renders the placeholder row.
func (s *DailySection) IsEmpty() bool {
	return len(s.Rows) == 0
}

// DailyRow is one product line. Quantity is the absolute quantity.
type DailyRow struct {
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	PostPaid decimal.Decimal `json:"post_paid"`
	Remarks  string          `json:"remarks"`
}

func newDailyRow(s *models.ProductSummary) *DailyRow {
	name := s.ProductName
	if name == "" {
		name = s.SKU
	}
	return &DailyRow{
		Name:     name,
		SKU:      s.SKU,
		Price:    s.UnitPrice(),
		Quantity: s.Quantity.Abs(),
		Tax:      s.Tax,
		Total:    s.Sales,
		PostPaid: s.PostPaid,
	}
}

// BuildDailyReport lays out the result's groups as daily report pages.
// OEM and SHOP go on page one; the remaining sections on page two. Empty
// OLD and MISC sections are kept as placeholders, other empty sections are
// left out, and pages without sections are dropped.
func BuildDailyReport(result *reconciler.Result, config *ReportConfig) *DailyReport {
	now := config.now()
	report := &DailyReport{
		Title:       config.Title,
		Date:        FormatReportDate(now),
		Weekday:     strings.ToUpper(now.Weekday().String()),
		Source:      result.Source,
		Pages:       []*DailyPage{},
		generatedAt: now,
	}

	groups := result.Groups
	if groups == nil {
		groups = reconciler.Group(result.Summaries)
	}

	pages := []*DailyPage{{Number: 1}, {Number: 2}}
	for _, category := range models.Categories {
		items := groups.Items(category)
		if len(items) == 0 && !alwaysShown[category] {
			continue
		}

		section := &DailySection{
			Category: category,
			Name:     config.SectionName(category),
			Rows:     make([]*DailyRow, 0, len(items)),
			Totals:   reconciler.SectionTotals(items),
		}
		for _, item := range items {
			section.Rows = append(section.Rows, newDailyRow(item))
		}
		report.Totals = report.Totals.Merge(section.Totals)

		page := pages[1]
		if firstPage[category] {
			page = pages[0]
		}
		page.Sections = append(page.Sections, section)
	}

	for _, page := range pages {
		if len(page.Sections) > 0 {
			report.Pages = append(report.Pages, page)
		}
	}
	report.GrandTotal = report.Totals.Sales
	return report
}

// FormatReportDate renders a date as day/month/two-digit-year without
// zero padding, e.g. 5/3/24.
func FormatReportDate(t time.Time) string {
	return t.Format("2/1/06")
}

// DailyFileName is the default workbook name for a report dated t.
func DailyFileName(t time.Time) string {
	return fmt.Sprintf("daily-report-%s.xlsx", t.Format("2-1-06"))
}

// FileName is the default workbook name for this report.
func (r *DailyReport) FileName() string {
	return DailyFileName(r.generatedAt)
}

type dailyStyles struct {
	title, heading, header, money, total, totalMoney, placeholder int
}

func newDailyStyles(f *excelize.File) (*dailyStyles, error) {
	styles := &dailyStyles{}
	defs := []struct {
		id    *int
		style *excelize.Style
	}{
		{&styles.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 16},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&styles.heading, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 12},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&styles.header, &excelize.Style{
			Font:   &excelize.Font{Bold: true},
			Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
		}},
		{&styles.money, &excelize.Style{NumFmt: 4}},
		{&styles.total, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&styles.totalMoney, &excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4}},
		{&styles.placeholder, &excelize.Style{
			Font:      &excelize.Font{Italic: true, Color: "808080"},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
	}
	for _, def := range defs {
		id, err := f.NewStyle(def.style)
		if err != nil {
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
		*def.id = id
	}
	return styles, nil
}

// dailySheetWriter appends rows to the daily sheet.
type dailySheetWriter struct {
	f      *excelize.File
	styles *dailyStyles
	row    int
}

func (w *dailySheetWriter) cell(col int) string {
	name, _ := excelize.CoordinatesToCellName(col, w.row)
	return name
}

func (w *dailySheetWriter) set(col int, value interface{}, style int) error {
	cell := w.cell(col)
	if err := w.f.SetCellValue(DailySheet, cell, value); err != nil {
		return err
	}
	if style != 0 {
		return w.f.SetCellStyle(DailySheet, cell, cell, style)
	}
	return nil
}

// banner writes text merged across all columns.
func (w *dailySheetWriter) banner(text string, style int) error {
	first, last := w.cell(1), w.cell(len(DailyColumns))
	if err := w.f.SetCellValue(DailySheet, first, text); err != nil {
		return err
	}
	if err := w.f.MergeCell(DailySheet, first, last); err != nil {
		return err
	}
	return w.f.SetCellStyle(DailySheet, first, last, style)
}

func (w *dailySheetWriter) header() error {
	row := make([]interface{}, len(DailyColumns))
	for i, name := range DailyColumns {
		row[i] = name
	}
	if err := w.f.SetSheetRow(DailySheet, w.cell(1), &row); err != nil {
		return err
	}
	return w.f.SetCellStyle(DailySheet, w.cell(1), w.cell(len(DailyColumns)), w.styles.header)
}

func (w *dailySheetWriter) item(r *DailyRow) error {
	values := []struct {
		value interface{}
		style int
	}{
		{r.Name, 0},
		{r.Price.InexactFloat64(), w.styles.money},
		{r.Quantity.InexactFloat64(), 0},
		{r.Tax.InexactFloat64(), w.styles.money},
		{r.Total.InexactFloat64(), w.styles.money},
		{r.PostPaid.InexactFloat64(), w.styles.money},
		{r.Remarks, 0},
	}
	for i, v := range values {
		if err := w.set(i+1, v.value, v.style); err != nil {
			return err
		}
	}
	return nil
}

// totals writes a TOTAL row: quantity, tax, sales and post-paid under
// their columns.
func (w *dailySheetWriter) totals(label string, t models.Totals) error {
	if err := w.set(1, label, w.styles.total); err != nil {
		return err
	}
	values := []struct {
		col   int
		value float64
		style int
	}{
		{3, t.Quantity.Abs().InexactFloat64(), w.styles.total},
		{4, t.Tax.InexactFloat64(), w.styles.totalMoney},
		{5, t.Sales.InexactFloat64(), w.styles.totalMoney},
		{6, t.PostPaid.InexactFloat64(), w.styles.totalMoney},
	}
	for _, v := range values {
		if err := w.set(v.col, v.value, v.style); err != nil {
			return err
		}
	}
	return nil
}

func (w *dailySheetWriter) section(s *DailySection) error {
	if err := w.banner(s.Name, w.styles.heading); err != nil {
		return err
	}
	w.row++
	if err := w.header(); err != nil {
		return err
	}
	w.row++

	if s.IsEmpty() {
		if err := w.banner(EmptySectionText, w.styles.placeholder); err != nil {
			return err
		}
		w.row++
	}
	for _, r := range s.Rows {
		if err := w.item(r); err != nil {
			return err
		}
		w.row++
	}

	if err := w.totals("TOTAL", s.Totals); err != nil {
		return err
	}
	w.row += 2
	return nil
}

// WriteDailyWorkbook writes the report as a one-sheet workbook with a
// page break before the second page.
func WriteDailyWorkbook(report *DailyReport, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DailySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	styles, err := newDailyStyles(f)
	if err != nil {
		return err
	}

	w := &dailySheetWriter{f: f, styles: styles, row: 1}
	if err := w.banner(report.Title, styles.title); err != nil {
		return fmt.Errorf("failed to write title: %w", err)
	}
	w.row++
	if err := w.set(1, report.Date, styles.total); err != nil {
		return fmt.Errorf("failed to write date: %w", err)
	}
	if err := w.set(len(DailyColumns), report.Weekday, styles.total); err != nil {
		return fmt.Errorf("failed to write weekday: %w", err)
	}
	w.row += 2

	for i, page := range report.Pages {
		if i > 0 {
			if err := f.InsertPageBreak(DailySheet, w.cell(1)); err != nil {
				return fmt.Errorf("failed to insert page break: %w", err)
			}
		}
		for _, section := range page.Sections {
			if err := w.section(section); err != nil {
				return fmt.Errorf("failed to write section %s: %w", section.Category, err)
			}
		}
	}

	if err := w.totals("TOTAL", report.Totals); err != nil {
		return fmt.Errorf("failed to write totals: %w", err)
	}
	w.row++
	if err := w.set(1, "GRAND TOTAL", styles.total); err != nil {
		return fmt.Errorf("failed to write grand total: %w", err)
	}
	if err := w.set(5, report.GrandTotal.InexactFloat64(), styles.totalMoney); err != nil {
		return fmt.Errorf("failed to write grand total: %w", err)
	}

	if err := setColumnWidths(f, DailySheet, dailyColumnWidths); err != nil {
		return err
	}
	if _, err := f.WriteTo(writer); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
