package reporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pos-sales-report/internal/models"
	"pos-sales-report/internal/reconciler"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f9e2af"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	totalStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a6e3a1"))
	mutedStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#7f849c"))
)

func displayWidth(s string) int {
	return lipgloss.Width(s)
}

// paint applies style only when colors are enabled, so plain output stays
// free of escape sequences.
func (rg *ReportGenerator) paint(style lipgloss.Style, text string) string {
	if !rg.config.UseColors {
		return text
	}
	return style.Render(text)
}

// textTable is a fixed-width console table. Columns listed in numeric are
// right aligned. The flex column shrinks when the table is wider than the
// configured maximum.
type textTable struct {
	headers []string
	rows    [][]string
	footer  []string
	numeric map[int]bool
	flex    int
}

func (t *textTable) widths(maxWidth int) []int {
	widths := make([]int, len(t.headers))
	measure := func(cells []string) {
		for i, cell := range cells {
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}
	if t.footer != nil {
		measure(t.footer)
	}

	total := 2 * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	if over := total - maxWidth; over > 0 {
		widths[t.flex] = max(widths[t.flex]-over, 10)
	}
	return widths
}

func (t *textTable) line(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		cell = truncate(cell, widths[i])
		if t.numeric[i] {
			parts[i] = padLeft(cell, widths[i])
		} else {
			parts[i] = padRight(cell, widths[i])
		}
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func (rg *ReportGenerator) renderTable(writer io.Writer, t *textTable) {
	widths := t.widths(rg.config.TableMaxWidth)
	fmt.Fprintln(writer, rg.paint(headerStyle, t.line(t.headers, widths)))

	ruleWidth := 2 * (len(widths) - 1)
	for _, w := range widths {
		ruleWidth += w
	}
	fmt.Fprintln(writer, strings.Repeat("-", ruleWidth))

	for _, row := range t.rows {
		fmt.Fprintln(writer, t.line(row, widths))
	}
	if t.footer != nil {
		fmt.Fprintln(writer, rg.paint(totalStyle, t.line(t.footer, widths)))
	}
}

// truncate shortens s to at most width display columns, marking the cut
// with "...".
func truncate(s string, width int) string {
	if displayWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && displayWidth(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// generateConsoleReport generates a human-readable console report
func (rg *ReportGenerator) generateConsoleReport(result *reconciler.Result, writer io.Writer) error {
	fmt.Fprintln(writer, rg.paint(titleStyle, "=== SALES REPORT ==="))
	fmt.Fprintf(writer, "Source:   %s\n", result.Source)
	if result.RunID != "" {
		fmt.Fprintf(writer, "Run ID:   %s\n", result.RunID)
	}
	fmt.Fprintf(writer, "Products: %d\n\n", len(result.Summaries))

	products := &textTable{
		headers: []string{"#", "PRODUCT", "SKU", "CATEGORY", "QTY", "TAX", "SALES", "POST PAID"},
		numeric: map[int]bool{0: true, 4: true, 5: true, 6: true, 7: true},
		flex:    1,
	}
	for i, s := range result.Summaries {
		products.rows = append(products.rows, []string{
			strconv.Itoa(i + 1),
			s.ProductName,
			s.SKU,
			s.Category.String(),
			s.Quantity.String(),
			FormatCurrency(s.Tax),
			FormatCurrency(s.Sales),
			FormatCurrency(s.PostPaid),
		})
	}
	products.footer = totalsCells("TOTAL", result.GrandTotals, 4)
	rg.renderTable(writer, products)

	fmt.Fprintln(writer)
	fmt.Fprintln(writer, rg.paint(titleStyle, "=== SECTION TOTALS ==="))
	sections := &textTable{
		headers: []string{"SECTION", "QTY", "TAX", "SALES", "POST PAID"},
		numeric: map[int]bool{1: true, 2: true, 3: true, 4: true},
	}
	for _, category := range models.Categories {
		sections.rows = append(sections.rows, totalsCells(category.String(), result.SectionTotals[category], 1))
	}
	sections.footer = totalsCells("GRAND TOTAL", result.GrandTotals, 1)
	rg.renderTable(writer, sections)
	return nil
}

// totalsCells lays out a totals row with the label in the first cell and
// the four figures starting at column offset.
func totalsCells(label string, t models.Totals, offset int) []string {
	cells := make([]string, offset+4)
	cells[0] = label
	cells[offset] = t.Quantity.String()
	cells[offset+1] = FormatCurrency(t.Tax)
	cells[offset+2] = FormatCurrency(t.Sales)
	cells[offset+3] = FormatCurrency(t.PostPaid)
	return cells
}

// generateConsoleDaily prints the daily report page by page.
func (rg *ReportGenerator) generateConsoleDaily(report *DailyReport, writer io.Writer) error {
	fmt.Fprintln(writer, rg.paint(titleStyle, report.Title))
	fmt.Fprintf(writer, "%s  %s\n", report.Date, report.Weekday)

	for _, page := range report.Pages {
		fmt.Fprintf(writer, "\n--- PAGE %d ---\n", page.Number)
		for _, section := range page.Sections {
			fmt.Fprintln(writer)
			fmt.Fprintln(writer, rg.paint(headingStyle, section.Name))
			if section.IsEmpty() {
				fmt.Fprintln(writer, rg.paint(mutedStyle, EmptySectionText))
				continue
			}
			table := &textTable{
				headers: DailyColumns,
				numeric: map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true},
			}
			for _, r := range section.Rows {
				table.rows = append(table.rows, []string{
					r.Name,
					FormatCurrency(r.Price),
					FormatQuantity(r.Quantity),
					FormatCurrency(r.Tax),
					FormatCurrency(r.Total),
					FormatCurrency(r.PostPaid),
					r.Remarks,
				})
			}
			table.footer = dailyTotalsCells("TOTAL", section.Totals)
			rg.renderTable(writer, table)
		}
	}

	fmt.Fprintln(writer)
	fmt.Fprintln(writer, rg.paint(totalStyle, fmt.Sprintf("TOTAL  quantity %s  tax %s  sales %s  post paid %s",
		FormatQuantity(report.Totals.Quantity),
		FormatCurrency(report.Totals.Tax),
		FormatCurrency(report.Totals.Sales),
		FormatCurrency(report.Totals.PostPaid))))
	fmt.Fprintln(writer, rg.paint(totalStyle, "GRAND TOTAL  "+FormatCurrency(report.GrandTotal)))
	return nil
}

func dailyTotalsCells(label string, t models.Totals) []string {
	return []string{
		label,
		"",
		FormatQuantity(t.Quantity),
		FormatCurrency(t.Tax),
		FormatCurrency(t.Sales),
		FormatCurrency(t.PostPaid),
		"",
	}
}
