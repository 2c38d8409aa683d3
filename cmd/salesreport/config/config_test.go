package config

import (
	"testing"

	"github.com/spf13/afero"

	"pos-sales-report/internal/models"
	"pos-sales-report/internal/parsers"
	"pos-sales-report/internal/reporter"
	"pos-sales-report/pkg/errors"
	"pos-sales-report/pkg/logger"
)

func TestDefaultsMatchComponentDefaults(t *testing.T) {
	v := New()

	columns, err := CreateColumnConfig(v)
	if err != nil {
		t.Fatalf("failed to create column config: %v", err)
	}
	if *columns != *parsers.DefaultColumnConfig() {
		t.Errorf("expected default columns, got %+v", columns)
	}

	rc, err := CreateReconcilerConfig(v)
	if err != nil {
		t.Fatalf("failed to create reconciler config: %v", err)
	}
	if rc.SaleLineType != "Sale Line" || rc.PaymentLineType != "Payment" {
		t.Errorf("unexpected line types %q, %q", rc.SaleLineType, rc.PaymentLineType)
	}
	if rc.PostPayMethod != "Post Pay" {
		t.Errorf("expected post-pay method 'Post Pay', got %q", rc.PostPayMethod)
	}
	if rc.MaxKeyLength != 50 {
		t.Errorf("expected max key length 50, got %d", rc.MaxKeyLength)
	}

	pc, err := CreateParseConfig(v)
	if err != nil {
		t.Fatalf("failed to create parse config: %v", err)
	}
	if pc.Delimiter != ',' {
		t.Errorf("expected delimiter ',', got %q", pc.Delimiter)
	}

	report, err := CreateReportConfig(v, "xlsx")
	if err != nil {
		t.Fatalf("failed to create report config: %v", err)
	}
	if report.Title != "DAILY REPORT" {
		t.Errorf("expected title 'DAILY REPORT', got %q", report.Title)
	}
	if report.SectionName(models.CategoryTyre) != "كفرات TYRE" {
		t.Errorf("unexpected TYRE heading %q", report.SectionName(models.CategoryTyre))
	}

	if Concurrency(v) != 4 {
		t.Errorf("expected concurrency 4, got %d", Concurrency(v))
	}
}

func TestLoadConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `
columns:
  sku: "Product Code"
  sales: "Gross"
line_types:
  sale: "Item"
payments:
  post_pay_method: "On Account"
csv:
  delimiter: ";"
report:
  title: "SHOP DAY"
  sections:
    work: "Workshop"
concurrency: 2
`
	if err := afero.WriteFile(fs, "/etc/salesreport.yaml", []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	v, err := Load(fs, "/etc/salesreport.yaml")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	rc, err := CreateReconcilerConfig(v)
	if err != nil {
		t.Fatalf("failed to create reconciler config: %v", err)
	}
	if rc.Columns.SKU != "Product Code" || rc.Columns.Sales != "Gross" {
		t.Errorf("column overrides not applied: %+v", rc.Columns)
	}
	if rc.Columns.Details != "Details" {
		t.Errorf("expected untouched column to keep its default, got %q", rc.Columns.Details)
	}
	if rc.SaleLineType != "Item" || rc.PostPayMethod != "On Account" {
		t.Errorf("overrides not applied: %+v", rc)
	}

	pc, err := CreateParseConfig(v)
	if err != nil {
		t.Fatalf("failed to create parse config: %v", err)
	}
	if pc.Delimiter != ';' {
		t.Errorf("expected delimiter ';', got %q", pc.Delimiter)
	}

	report, err := CreateReportConfig(v, "console")
	if err != nil {
		t.Fatalf("failed to create report config: %v", err)
	}
	if report.Title != "SHOP DAY" {
		t.Errorf("expected title override, got %q", report.Title)
	}
	if report.SectionName(models.CategoryWork) != "Workshop" {
		t.Errorf("expected WORK heading override, got %q", report.SectionName(models.CategoryWork))
	}
	if report.SectionName(models.CategoryOEM) != "قطع وكال ORIGNAL" {
		t.Errorf("expected OEM heading default, got %q", report.SectionName(models.CategoryOEM))
	}

	if Concurrency(v) != 2 {
		t.Errorf("expected concurrency 2, got %d", Concurrency(v))
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nope.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if errors.ExitCode(err) != 4 {
		t.Errorf("expected configuration exit code 4, got %d", errors.ExitCode(err))
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SALESREPORT_COLUMNS_LINE_TYPE", "Row Kind")
	t.Setenv("SALESREPORT_PRODUCT_KEY_MAX_LENGTH", "20")
	t.Setenv("SALESREPORT_REPORT_USE_COLORS", "false")

	v := New()

	rc, err := CreateReconcilerConfig(v)
	if err != nil {
		t.Fatalf("failed to create reconciler config: %v", err)
	}
	if rc.Columns.LineType != "Row Kind" {
		t.Errorf("expected env column override, got %q", rc.Columns.LineType)
	}
	if rc.MaxKeyLength != 20 {
		t.Errorf("expected env max key length 20, got %d", rc.MaxKeyLength)
	}

	report, err := CreateReportConfig(v, "console")
	if err != nil {
		t.Fatalf("failed to create report config: %v", err)
	}
	if report.UseColors {
		t.Error("expected colors disabled by environment")
	}
}

func TestCreateReportConfigFormats(t *testing.T) {
	tests := []struct {
		format      string
		want        reporter.OutputFormat
		expectError bool
	}{
		{"xlsx", reporter.FormatXLSX, false},
		{"CSV", reporter.FormatCSV, false},
		{" json ", reporter.FormatJSON, false},
		{"yaml", reporter.FormatYAML, false},
		{"console", reporter.FormatConsole, false},
		{"pdf", "", true},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			config, err := CreateReportConfig(v, tt.format)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Format != tt.want {
				t.Errorf("expected format %s, got %s", tt.want, config.Format)
			}
		})
	}
}

func TestInvalidSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"blank column", KeyColumns + ".sku", " "},
		{"same line types", KeyPaymentLineType, "Sale Line"},
		{"zero key length", KeyMaxKeyLength, 0},
		{"long delimiter", KeyDelimiter, ";;"},
		{"bad log level", KeyLogLevel, "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.value)

			var err error
			switch tt.key {
			case KeyDelimiter:
				_, err = CreateParseConfig(v)
			case KeyLogLevel:
				_, err = CreateLoggerConfig(v, false)
			default:
				_, err = CreateReconcilerConfig(v)
			}
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if reportErr, ok := errors.AsReportError(err); !ok || reportErr.Category != errors.CategoryConfiguration {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestTabDelimiter(t *testing.T) {
	v := New()
	v.Set(KeyDelimiter, `\t`)

	pc, err := CreateParseConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.Delimiter != '\t' {
		t.Errorf("expected tab delimiter, got %q", pc.Delimiter)
	}
}

func TestCreateLoggerConfig(t *testing.T) {
	v := New()

	config, err := CreateLoggerConfig(v, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Level != logger.WarnLevel {
		t.Errorf("expected warn level, got %s", config.Level)
	}

	config, err = CreateLoggerConfig(v, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Level != logger.DebugLevel {
		t.Errorf("expected verbose to force debug level, got %s", config.Level)
	}
}
