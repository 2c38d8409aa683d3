// Package config maps viper settings onto the typed configurations of the
// parser, reconciler, reporter and logger.
//
// Settings come from, in increasing priority: built-in defaults, an optional
// config file (yaml, json or toml), and SALESREPORT_* environment variables
// where dots become underscores (columns.sku is SALESREPORT_COLUMNS_SKU).
package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"pos-sales-report/internal/models"
	"pos-sales-report/internal/parsers"
	"pos-sales-report/internal/reconciler"
	"pos-sales-report/internal/reporter"
	"pos-sales-report/pkg/errors"
	"pos-sales-report/pkg/logger"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SALESREPORT"

// Setting keys
const (
	KeyColumns         = "columns"
	KeySaleLineType    = "line_types.sale"
	KeyPaymentLineType = "line_types.payment"
	KeyPostPayMethod   = "payments.post_pay_method"
	KeyMaxKeyLength    = "product_key.max_length"
	KeyDelimiter       = "csv.delimiter"
	KeyMaxFieldSize    = "csv.max_field_size"
	KeyReportTitle     = "report.title"
	KeySections        = "report.sections"
	KeyUseColors       = "report.use_colors"
	KeyTableWidth      = "report.table_width"
	KeyConcurrency     = "concurrency"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyLogOutput       = "log.output"
	KeyLogFile         = "log.file"
)

// columnKeys lists the logical column names under KeyColumns.
var columnKeys = []string{
	"line_type", "sku", "details", "date", "location",
	"quantity", "tax", "sales", "invoice_number", "payment_method",
}

// New returns a viper instance with defaults and environment overrides
// wired up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load is New followed by reading path from fs, when path is not empty.
// A nil fs means the OS filesystem.
func Load(fs afero.Fs, path string) (*viper.Viper, error) {
	v := New()
	if path == "" {
		return v, nil
	}

	if fs != nil {
		v.SetFs(fs)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", path, err).
			WithSuggestion("Check that the config file exists and is valid yaml, json or toml")
	}
	return v, nil
}

// SetDefaults registers the default of every setting.
func SetDefaults(v *viper.Viper) {
	columns := parsers.DefaultColumnConfig()
	for _, key := range columnKeys {
		v.SetDefault(KeyColumns+"."+key, columns.GetColumnName(key))
	}

	rc := reconciler.DefaultConfig()
	v.SetDefault(KeySaleLineType, rc.SaleLineType)
	v.SetDefault(KeyPaymentLineType, rc.PaymentLineType)
	v.SetDefault(KeyPostPayMethod, rc.PostPayMethod)
	v.SetDefault(KeyMaxKeyLength, rc.MaxKeyLength)

	pc := parsers.DefaultParseConfig()
	v.SetDefault(KeyDelimiter, string(pc.Delimiter))
	v.SetDefault(KeyMaxFieldSize, pc.MaxFieldSize)

	report := reporter.DefaultReportConfig()
	v.SetDefault(KeyReportTitle, report.Title)
	for _, category := range models.Categories {
		v.SetDefault(sectionKey(category), report.SectionName(category))
	}
	v.SetDefault(KeyUseColors, report.UseColors)
	v.SetDefault(KeyTableWidth, report.TableMaxWidth)
	v.SetDefault(KeyConcurrency, 4)

	log := logger.DefaultConfig()
	v.SetDefault(KeyLogLevel, string(log.Level))
	v.SetDefault(KeyLogFormat, string(log.Format))
	v.SetDefault(KeyLogOutput, string(log.Output))
	v.SetDefault(KeyLogFile, "")
}

func sectionKey(category models.Category) string {
	return KeySections + "." + strings.ToLower(category.String())
}

// CreateColumnConfig reads the column names.
func CreateColumnConfig(v *viper.Viper) (*parsers.ColumnConfig, error) {
	get := func(key string) string {
		return strings.TrimSpace(v.GetString(KeyColumns + "." + key))
	}
	config := &parsers.ColumnConfig{
		LineType:      get("line_type"),
		SKU:           get("sku"),
		Details:       get("details"),
		Date:          get("date"),
		Location:      get("location"),
		Quantity:      get("quantity"),
		Tax:           get("tax"),
		Sales:         get("sales"),
		InvoiceNumber: get("invoice_number"),
		PaymentMethod: get("payment_method"),
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeyColumns, config, err)
	}
	return config, nil
}

// CreateParseConfig reads the CSV dialect settings.
func CreateParseConfig(v *viper.Viper) (*parsers.ParseConfig, error) {
	config := parsers.DefaultParseConfig()

	delimiter := v.GetString(KeyDelimiter)
	if delimiter == `\t` {
		delimiter = "\t"
	}
	if utf8.RuneCountInString(delimiter) != 1 {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeyDelimiter, delimiter,
			fmt.Errorf("delimiter must be a single character"))
	}
	config.Delimiter, _ = utf8.DecodeRuneInString(delimiter)
	config.MaxFieldSize = v.GetInt(KeyMaxFieldSize)

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "csv", delimiter, err)
	}
	return config, nil
}

// CreateReconcilerConfig reads the line type, payment and product key
// settings.
func CreateReconcilerConfig(v *viper.Viper) (*reconciler.Config, error) {
	columns, err := CreateColumnConfig(v)
	if err != nil {
		return nil, err
	}

	config := &reconciler.Config{
		Columns:         columns,
		SaleLineType:    v.GetString(KeySaleLineType),
		PaymentLineType: v.GetString(KeyPaymentLineType),
		PostPayMethod:   v.GetString(KeyPostPayMethod),
		MaxKeyLength:    v.GetInt(KeyMaxKeyLength),
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "reconciler", config, err)
	}
	return config, nil
}

// CreateReportConfig reads the report settings for the given output format.
func CreateReportConfig(v *viper.Viper, format string) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(strings.ToLower(strings.TrimSpace(format)))
	config.Title = v.GetString(KeyReportTitle)
	config.UseColors = v.GetBool(KeyUseColors)
	config.TableMaxWidth = v.GetInt(KeyTableWidth)
	for _, category := range models.Categories {
		if name := strings.TrimSpace(v.GetString(sectionKey(category))); name != "" {
			config.SectionNames[category] = name
		}
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", format, err).
			WithSuggestion("Use one of: xlsx, csv, json, yaml, console")
	}
	return config, nil
}

// CreateLoggerConfig reads the log settings. verbose forces debug level.
func CreateLoggerConfig(v *viper.Viper, verbose bool) (*logger.Config, error) {
	config := &logger.Config{
		Level:  logger.Level(strings.ToLower(v.GetString(KeyLogLevel))),
		Format: logger.Format(strings.ToLower(v.GetString(KeyLogFormat))),
		Output: logger.Output(strings.ToLower(v.GetString(KeyLogOutput))),
		File:   v.GetString(KeyLogFile),
	}
	if verbose {
		config.Level = logger.DebugLevel
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "log", config, err)
	}
	return config, nil
}

// Concurrency returns how many inputs are processed at once, at least one.
func Concurrency(v *viper.Viper) int {
	if n := v.GetInt(KeyConcurrency); n > 0 {
		return n
	}
	return 1
}
