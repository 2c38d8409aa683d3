// Package reporter renders sales report results.
//
// Two report kinds are produced from a reconciler.Result:
//
//   - Export: the flat ranked product list, one row per product, as xlsx,
//     csv, json, yaml or console text.
//   - Daily report: products split into sections with section totals and a
//     grand total, as xlsx, json or console text.
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	if err != nil {
//		return err
//	}
//	err = generator.GenerateReport(result, os.Stdout)
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"pos-sales-report/internal/models"
	"pos-sales-report/internal/reconciler"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatCSV     OutputFormat = "csv"
	FormatXLSX    OutputFormat = "xlsx"
)

// IsValid checks if the output format is supported by the export
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatYAML, FormatCSV, FormatXLSX:
		return true
	default:
		return false
	}
}

// IsValidDaily checks if the daily report can be rendered in this format
func (f OutputFormat) IsValidDaily() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatXLSX:
		return true
	default:
		return false
	}
}

// Extension returns the file extension for the format, without the dot.
// Console output is written as plain text.
func (f OutputFormat) Extension() string {
	if f == FormatConsole {
		return "txt"
	}
	return string(f)
}

// DefaultSectionNames are the daily report section headings.
var DefaultSectionNames = map[models.Category]string{
	models.CategoryOEM:  "قطع وكال ORIGNAL",
	models.CategoryShop: "مشكل SHOP",
	models.CategoryWork: "ورشة WORKSHOP",
	models.CategoryTyre: "كفرات TYRE",
	models.CategoryOld:  "بيع قطع مستعمل OLD",
	models.CategoryMisc: "MISC",
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format" mapstructure:"format"`

	// Daily report options
	Title        string                     `json:"title" mapstructure:"title"`
	SectionNames map[models.Category]string `json:"section_names" mapstructure:"sections"`

	// Console formatting options
	UseColors     bool `json:"use_colors" mapstructure:"use_colors"`
	TableMaxWidth int  `json:"table_max_width" mapstructure:"table_max_width"`

	// Clock supplies the daily report date. Nil means time.Now.
	Clock func() time.Time `json:"-" mapstructure:"-"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	names := make(map[models.Category]string, len(DefaultSectionNames))
	for category, name := range DefaultSectionNames {
		names[category] = name
	}
	return &ReportConfig{
		Format:        FormatXLSX,
		Title:         "DAILY REPORT",
		SectionNames:  names,
		UseColors:     true,
		TableMaxWidth: 120,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.TableMaxWidth < 50 {
		return fmt.Errorf("table max width must be at least 50 characters, got %d", c.TableMaxWidth)
	}

	for category := range c.SectionNames {
		if !category.IsValid() {
			return fmt.Errorf("unknown report section: %s", category)
		}
	}

	return nil
}

// SectionName returns the configured heading for a section, falling back
// to the default heading and then to the category itself.
func (c *ReportConfig) SectionName(category models.Category) string {
	if name := c.SectionNames[category]; name != "" {
		return name
	}
	if name := DefaultSectionNames[category]; name != "" {
		return name
	}
	return category.String()
}

func (c *ReportConfig) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// ReportGenerator generates sales reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// Config returns the generator's configuration.
func (rg *ReportGenerator) Config() *ReportConfig {
	return rg.config
}

// GenerateReport writes the flat product export in the configured format.
func (rg *ReportGenerator) GenerateReport(result *reconciler.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatYAML:
		return rg.generateYAMLReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	case FormatXLSX:
		return WriteExcel(result.Summaries, writer)
	default:
		return fmt.Errorf("unsupported format: %s", rg.config.Format)
	}
}

// GenerateDailyReport writes the sectioned daily report in the configured
// format.
func (rg *ReportGenerator) GenerateDailyReport(result *reconciler.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}
	if !rg.config.Format.IsValidDaily() {
		return fmt.Errorf("unsupported daily report format: %s", rg.config.Format)
	}

	report := BuildDailyReport(result, rg.config)
	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleDaily(report, writer)
	case FormatJSON:
		return writeJSON(report, writer)
	default:
		return WriteDailyWorkbook(report, writer)
	}
}

// exportDocument is the json and yaml shape of the export.
type exportDocument struct {
	RunID         string                              `json:"run_id" yaml:"run_id"`
	Source        string                              `json:"source" yaml:"source"`
	ProcessedAt   time.Time                           `json:"processed_at" yaml:"processed_at"`
	Products      int                                 `json:"products" yaml:"products"`
	Summaries     []*models.ProductSummary            `json:"summaries" yaml:"summaries"`
	Sections      map[string][]*models.ProductSummary `json:"sections" yaml:"sections"`
	SectionTotals map[models.Category]models.Totals   `json:"section_totals" yaml:"section_totals"`
	GrandTotals   models.Totals                       `json:"grand_totals" yaml:"grand_totals"`
	Stats         *reconciler.ProcessingStats         `json:"stats,omitempty" yaml:"stats,omitempty"`
}

func newExportDocument(result *reconciler.Result) *exportDocument {
	doc := &exportDocument{
		RunID:         result.RunID,
		Source:        result.Source,
		ProcessedAt:   result.ProcessedAt,
		Products:      len(result.Summaries),
		Summaries:     result.Summaries,
		SectionTotals: result.SectionTotals,
		GrandTotals:   result.GrandTotals,
		Stats:         result.Stats,
	}
	if doc.Summaries == nil {
		doc.Summaries = []*models.ProductSummary{}
	}
	if result.Groups != nil {
		doc.Sections = result.Groups.Map()
	}
	return doc
}

// generateJSONReport generates a JSON format report
func (rg *ReportGenerator) generateJSONReport(result *reconciler.Result, writer io.Writer) error {
	return writeJSON(newExportDocument(result), writer)
}

func writeJSON(v interface{}, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// generateYAMLReport generates a YAML format report
func (rg *ReportGenerator) generateYAMLReport(result *reconciler.Result, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(newExportDocument(result)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// csvRow is one exported product. Numbers keep their exact decimal form.
type csvRow struct {
	Date        string `csv:"Transaction Date"`
	ProductName string `csv:"Product Name/SKU"`
	SKU         string `csv:"Product SKU"`
	Category    string `csv:"Category"`
	Location    string `csv:"Location"`
	Quantity    string `csv:"Quantity"`
	Tax         string `csv:"Tax"`
	Sales       string `csv:"Sales (Tax Inclusive)"`
	PostPaid    string `csv:"POST PAID"`
}

func newCSVRow(s *models.ProductSummary) *csvRow {
	return &csvRow{
		Date:        s.Date,
		ProductName: s.ProductName,
		SKU:         s.SKU,
		Category:    s.Category.String(),
		Location:    s.Location,
		Quantity:    s.Quantity.String(),
		Tax:         s.Tax.String(),
		Sales:       s.Sales.String(),
		PostPaid:    s.PostPaid.String(),
	}
}

// generateCSVReport generates a CSV format report
func (rg *ReportGenerator) generateCSVReport(result *reconciler.Result, writer io.Writer) error {
	rows := make([]*csvRow, 0, len(result.Summaries))
	for _, summary := range result.Summaries {
		rows = append(rows, newCSVRow(summary))
	}
	if err := gocsv.Marshal(rows, writer); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

