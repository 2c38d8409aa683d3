package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"pos-sales-report/internal/models"
	"pos-sales-report/internal/reconciler"
	apperrors "pos-sales-report/pkg/errors"
	"pos-sales-report/pkg/logger"
)

var reportDay = time.Date(2024, time.March, 5, 18, 30, 0, 0, time.UTC)

func summary(sku, name string, category models.Category, quantity, tax, sales, postPaid string) *models.ProductSummary {
	s := models.NewProductSummary(models.ProductKey(sku), "Mar 5, 2024", name, category, "Main")
	s.Add(
		decimal.RequireFromString(quantity),
		decimal.RequireFromString(tax),
		decimal.RequireFromString(sales),
		decimal.RequireFromString(postPaid),
	)
	return s
}

// testResult has an OEM, a SHOP and a WORK product; TYRE, OLD and MISC
// are empty.
func testResult() *reconciler.Result {
	ranked := reconciler.Rank([]*models.ProductSummary{
		summary("777", "Oil Filter", models.CategoryShop, "-1", "10", "100", "0"),
		summary("BP-2", "Brake Pad", models.CategoryOEM, "2", "15.5", "155", "155"),
		summary("1001", "Labour", models.CategoryWork, "1", "15", "150", "0"),
	})
	groups := reconciler.Group(ranked)
	return &reconciler.Result{
		RunID:         "run-1",
		Source:        "sales.csv",
		ProcessedAt:   reportDay,
		Summaries:     ranked,
		Groups:        groups,
		SectionTotals: reconciler.CategoryTotals(groups),
		GrandTotals:   reconciler.GrandTotals(groups),
	}
}

func testConfig(format OutputFormat) *ReportConfig {
	config := DefaultReportConfig()
	config.Format = format
	config.UseColors = false
	config.Clock = func() time.Time { return reportDay }
	return config
}

func newGenerator(t *testing.T, format OutputFormat) *ReportGenerator {
	t.Helper()
	generator, err := NewReportGenerator(testConfig(format))
	require.NoError(t, err)
	return generator
}

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return rows
}

func TestNewReportGenerator(t *testing.T) {
	tests := []struct {
		name        string
		config      *ReportConfig
		expectError bool
	}{
		{
			name:        "default config",
			config:      nil,
			expectError: false,
		},
		{
			name:        "valid config",
			config:      DefaultReportConfig(),
			expectError: false,
		},
		{
			name: "invalid format",
			config: &ReportConfig{
				Format:        "pdf",
				TableMaxWidth: 120,
			},
			expectError: true,
		},
		{
			name: "table width too small",
			config: &ReportConfig{
				Format:        FormatConsole,
				TableMaxWidth: 30,
			},
			expectError: true,
		},
		{
			name: "unknown section",
			config: &ReportConfig{
				Format:        FormatXLSX,
				TableMaxWidth: 120,
				SectionNames:  map[models.Category]string{"PARTS": "Parts"},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if generator == nil {
					t.Errorf("expected generator but got nil")
				}
			}
		})
	}
}

func TestOutputFormatValidation(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
		daily  bool
	}{
		{FormatConsole, true, true},
		{FormatJSON, true, true},
		{FormatYAML, true, false},
		{FormatCSV, true, false},
		{FormatXLSX, true, true},
		{"pdf", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := tt.format.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
			if got := tt.format.IsValidDaily(); got != tt.daily {
				t.Errorf("IsValidDaily() = %v, want %v", got, tt.daily)
			}
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"5", "5.00"},
		{"1234.5", "1,234.50"},
		{"1000000", "1,000,000.00"},
		{"0.005", "0.01"},
		{"-42.1", "-42.10"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "2", FormatQuantity(decimal.RequireFromString("2.00")))
	assert.Equal(t, "1.5", FormatQuantity(decimal.RequireFromString("1.50")))
	assert.Equal(t, "3", FormatQuantity(decimal.RequireFromString("-3")))
	assert.Equal(t, "0", FormatQuantity(decimal.Zero))
}

func TestSectionName(t *testing.T) {
	config := DefaultReportConfig()
	assert.Equal(t, "ورشة WORKSHOP", config.SectionName(models.CategoryWork))

	config.SectionNames = map[models.Category]string{models.CategoryWork: "Workshop"}
	assert.Equal(t, "Workshop", config.SectionName(models.CategoryWork))
	assert.Equal(t, "MISC", config.SectionName(models.CategoryMisc))
}

func TestExportExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newGenerator(t, FormatXLSX).GenerateReport(testResult(), &buf))

	rows := readRows(t, buf.Bytes(), ExportSheet)
	require.Len(t, rows, 4)
	assert.Equal(t, ExportHeaders, rows[0])
	assert.Equal(t, []string{"Mar 5, 2024", "Brake Pad", "BP-2", "OEM", "Main", "2", "15.5", "155", "155"}, rows[1])
	assert.Equal(t, "1001", rows[2][2])
	assert.Equal(t, "777", rows[3][2])
	assert.Equal(t, "-1", rows[3][5])
}

func TestExportExcelColumnWidths(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(testResult().Summaries, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	width, err := f.GetColWidth(ExportSheet, "B")
	require.NoError(t, err)
	assert.Equal(t, 50.0, width)
	width, err = f.GetColWidth(ExportSheet, "H")
	require.NoError(t, err)
	assert.Equal(t, 18.0, width)
}

func TestExportExcelEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(nil, &buf))

	rows := readRows(t, buf.Bytes(), ExportSheet)
	require.Len(t, rows, 1)
	assert.Equal(t, ExportHeaders, rows[0])
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newGenerator(t, FormatCSV).GenerateReport(testResult(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(ExportHeaders, ","), lines[0])
	assert.Equal(t, `"Mar 5, 2024",Brake Pad,BP-2,OEM,Main,2,15.5,155,155`, lines[1])
	assert.Equal(t, `"Mar 5, 2024",Oil Filter,777,SHOP,Main,-1,10,100,0`, lines[3])
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newGenerator(t, FormatJSON).GenerateReport(testResult(), &buf))

	var doc struct {
		RunID       string `json:"run_id"`
		Products    int    `json:"products"`
		Summaries   []map[string]interface{}
		Sections    map[string][]map[string]interface{} `json:"sections"`
		GrandTotals map[string]string                   `json:"grand_totals"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, 3, doc.Products)
	assert.Equal(t, "BP-2", doc.Summaries[0]["sku"])
	assert.Len(t, doc.Sections["OEM"], 1)
	assert.Empty(t, doc.Sections["TYRE"])
	assert.Equal(t, "405", doc.GrandTotals["total_sales"])
	assert.Equal(t, "155", doc.GrandTotals["total_post_paid"])
}

func TestExportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newGenerator(t, FormatYAML).GenerateReport(testResult(), &buf))

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc["run_id"])
	assert.Equal(t, "sales.csv", doc["source"])
	assert.Equal(t, 3, doc["products"])
	assert.Contains(t, buf.String(), "total_sales: \"405\"")
}

func TestExportConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newGenerator(t, FormatConsole).GenerateReport(testResult(), &buf))

	out := buf.String()
	assert.Contains(t, out, "=== SALES REPORT ===")
	assert.Contains(t, out, "Products: 3")
	assert.Contains(t, out, "Brake Pad")
	assert.Contains(t, out, "=== SECTION TOTALS ===")
	assert.Contains(t, out, "GRAND TOTAL")
	assert.Contains(t, out, "405.00")
	assert.NotContains(t, out, "\x1b[")
	assert.Less(t, strings.Index(out, "Brake Pad"), strings.Index(out, "Labour"))
	assert.Less(t, strings.Index(out, "Labour"), strings.Index(out, "Oil Filter"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "...", truncate("abcdef", 2))
}

func TestBuildDailyReport(t *testing.T) {
	report := BuildDailyReport(testResult(), testConfig(FormatXLSX))

	assert.Equal(t, "DAILY REPORT", report.Title)
	assert.Equal(t, "5/3/24", report.Date)
	assert.Equal(t, "TUESDAY", report.Weekday)
	assert.Equal(t, "daily-report-5-3-24.xlsx", report.FileName())

	require.Len(t, report.Pages, 2)
	var first, second []models.Category
	for _, s := range report.Pages[0].Sections {
		first = append(first, s.Category)
	}
	for _, s := range report.Pages[1].Sections {
		second = append(second, s.Category)
	}
	assert.Equal(t, []models.Category{models.CategoryOEM, models.CategoryShop}, first)
	assert.Equal(t, []models.Category{models.CategoryWork, models.CategoryOld, models.CategoryMisc}, second)

	oem := report.Pages[0].Sections[0]
	assert.Equal(t, "قطع وكال ORIGNAL", oem.Name)
	require.Len(t, oem.Rows, 1)
	assert.True(t, oem.Rows[0].Price.Equal(decimal.RequireFromString("77.5")))
	assert.True(t, oem.Totals.Sales.Equal(decimal.NewFromInt(155)))

	shop := report.Pages[0].Sections[1]
	assert.True(t, shop.Rows[0].Quantity.Equal(decimal.NewFromInt(1)), "quantity is absolute")

	assert.True(t, report.Pages[1].Sections[1].IsEmpty())
	assert.True(t, report.GrandTotal.Equal(decimal.NewFromInt(405)))
	assert.True(t, report.Totals.Equal(testResult().GrandTotals))
}

func TestBuildDailyReportEmptyFirstPage(t *testing.T) {
	ranked := []*models.ProductSummary{
		summary("T-1", "Tyre 205/55", models.CategoryTyre, "4", "0", "800", "0"),
	}
	groups := reconciler.Group(ranked)
	result := &reconciler.Result{Summaries: ranked, Groups: groups}

	report := BuildDailyReport(result, testConfig(FormatXLSX))
	require.Len(t, report.Pages, 1)
	assert.Equal(t, 2, report.Pages[0].Number)
	assert.Len(t, report.Pages[0].Sections, 3)
}

func TestBuildDailyReportZeroQuantityPrice(t *testing.T) {
	ranked := []*models.ProductSummary{
		summary("X", "Refund", models.CategoryShop, "0", "0", "25", "0"),
	}
	report := BuildDailyReport(&reconciler.Result{Summaries: ranked}, testConfig(FormatXLSX))

	row := report.Pages[0].Sections[0].Rows[0]
	assert.True(t, row.Price.Equal(decimal.NewFromInt(25)))
}

func TestDailyWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newGenerator(t, FormatXLSX).GenerateDailyReport(testResult(), &buf))

	rows := readRows(t, buf.Bytes(), DailySheet)
	require.NotEmpty(t, rows)
	assert.Equal(t, "DAILY REPORT", rows[0][0])
	assert.Equal(t, "5/3/24", rows[1][0])
	assert.Equal(t, "TUESDAY", rows[1][6])

	var firstCells []string
	for _, row := range rows {
		if len(row) > 0 {
			firstCells = append(firstCells, row[0])
		}
	}
	assert.Contains(t, firstCells, "قطع وكال ORIGNAL")
	assert.Contains(t, firstCells, "ورشة WORKSHOP")
	assert.NotContains(t, firstCells, "كفرات TYRE")

	placeholders := 0
	for _, cell := range firstCells {
		if cell == EmptySectionText {
			placeholders++
		}
	}
	assert.Equal(t, 2, placeholders)

	last := rows[len(rows)-1]
	assert.Equal(t, "GRAND TOTAL", last[0])
	assert.Equal(t, "405", last[4])

	overall := rows[len(rows)-2]
	assert.Equal(t, []string{"TOTAL", "", "2", "40.5", "405", "155"}, overall)
}

func TestDailyConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newGenerator(t, FormatConsole).GenerateDailyReport(testResult(), &buf))

	out := buf.String()
	assert.Contains(t, out, "DAILY REPORT")
	assert.Contains(t, out, "5/3/24  TUESDAY")
	assert.Contains(t, out, "--- PAGE 1 ---")
	assert.Contains(t, out, "--- PAGE 2 ---")
	assert.Contains(t, out, "مشكل SHOP")
	assert.Equal(t, 2, strings.Count(out, EmptySectionText))
	assert.Contains(t, out, "GRAND TOTAL  405.00")
}

func TestDailyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newGenerator(t, FormatJSON).GenerateDailyReport(testResult(), &buf))

	var doc struct {
		Date       string `json:"date"`
		GrandTotal string `json:"grand_total"`
		Pages      []struct {
			Sections []struct {
				Category string `json:"category"`
			} `json:"sections"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "5/3/24", doc.Date)
	assert.Equal(t, "405", doc.GrandTotal)
	assert.Len(t, doc.Pages, 2)
}

func TestDailyRejectsExportOnlyFormats(t *testing.T) {
	var buf bytes.Buffer
	err := newGenerator(t, FormatCSV).GenerateDailyReport(testResult(), &buf)
	assert.Error(t, err)
}

func newSafeGenerator(t *testing.T, format OutputFormat, fs afero.Fs) *SafeReportGenerator {
	t.Helper()
	generator, err := NewSafeReportGenerator(testConfig(format), fs, logger.NewWithWriter(&bytes.Buffer{}, logger.ErrorLevel))
	require.NoError(t, err)
	return generator
}

func TestSafeReportGeneratorWriteFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	generator := newSafeGenerator(t, FormatXLSX, fs)

	path := "/out/reports/" + generator.FileName(KindDaily, "", false)
	written, err := generator.WriteFile(testResult(), KindDaily, path)
	require.NoError(t, err)
	assert.Equal(t, "/out/reports/daily-report-5-3-24.xlsx", written)

	data, err := afero.ReadFile(fs, written)
	require.NoError(t, err)
	rows := readRows(t, data, DailySheet)
	assert.Equal(t, "DAILY REPORT", rows[0][0])

	exists, err := afero.Exists(fs, written+".tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSafeReportGeneratorReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/out/sales_report.csv", []byte("old"), 0o644))
	generator := newSafeGenerator(t, FormatCSV, afero.NewReadOnlyFs(base))

	_, err := generator.WriteFile(testResult(), KindExport, "/out/sales_report.csv")
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryOutput, err.(*apperrors.ReportError).Category)
}

func TestSafeReportGeneratorRejectsInvalidInput(t *testing.T) {
	generator := newSafeGenerator(t, FormatCSV, afero.NewMemMapFs())

	err := generator.Render(nil, KindExport, &bytes.Buffer{})
	require.Error(t, err)

	err = generator.Render(testResult(), KindDaily, &bytes.Buffer{})
	require.Error(t, err)
	reportErr, ok := apperrors.AsReportError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CategoryConfiguration, reportErr.Category)
}

func TestSafeReportGeneratorInvalidConfig(t *testing.T) {
	_, err := NewSafeReportGenerator(&ReportConfig{Format: "pdf", TableMaxWidth: 120}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, 4, apperrors.ExitCode(err))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		format OutputFormat
		kind   ReportKind
		input  string
		unique bool
		want   string
	}{
		{FormatXLSX, KindExport, "in/sales.csv", false, "sales_report.xlsx"},
		{FormatCSV, KindExport, "in/sales.csv", false, "sales_report.csv"},
		{FormatXLSX, KindExport, "in/monday.csv", true, "monday_sales_report.xlsx"},
		{FormatXLSX, KindDaily, "", false, "daily-report-5-3-24.xlsx"},
		{FormatConsole, KindDaily, "b.csv", true, "b_daily-report-5-3-24.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			generator := newSafeGenerator(t, tt.format, afero.NewMemMapFs())
			assert.Equal(t, tt.want, generator.FileName(tt.kind, tt.input, tt.unique))
		})
	}
}
