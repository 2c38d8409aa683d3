// Package reconciler turns raw POS export records into ranked, categorized
// product summaries.
//
// The pipeline has four stages, each usable on its own:
//  1. Reconcile: split records into sale lines and payments, join sale
//     lines to their invoice's payment method and aggregate by product key
//  2. Rank: order summaries by sales, highest first, keeping first-seen
//     order among equal sales
//  3. Group: place ranked summaries into the six report sections
//  4. SectionTotals / GrandTotals: fold the numeric fields
//
// Service chains the stages behind CSV parsing for one file, and
// BatchProcessor runs Service over many files concurrently.
//
// Example usage:
//
//	summaries, err := reconciler.Reconcile(records)
//	if errors.Is(err, apperrors.ErrNoMatchingRecords) {
//	    // wrong export type or renamed "Line type" column
//	}
//	groups := reconciler.Group(reconciler.Rank(summaries))
//	grand := reconciler.GrandTotals(groups)
package reconciler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"pos-sales-report/internal/classifier"
	"pos-sales-report/internal/models"
	"pos-sales-report/internal/parsers"
	"pos-sales-report/pkg/errors"
	"pos-sales-report/pkg/logger"
)

// Config holds the names and literals the engine matches against.
type Config struct {
	Columns         *parsers.ColumnConfig `mapstructure:"columns"`
	SaleLineType    string                `mapstructure:"sale_line_type"`
	PaymentLineType string                `mapstructure:"payment_line_type"`
	PostPayMethod   string                `mapstructure:"post_pay_method"`
	MaxKeyLength    int                   `mapstructure:"max_key_length"`
}

// DefaultConfig returns the configuration for a standard invoice export
func DefaultConfig() *Config {
	return &Config{
		Columns:         parsers.DefaultColumnConfig(),
		SaleLineType:    models.LineTypeSale.String(),
		PaymentLineType: models.LineTypePayment.String(),
		PostPayMethod:   models.PaymentMethodPostPay,
		MaxKeyLength:    models.MaxDescriptionKeyLength,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Columns == nil {
		return fmt.Errorf("column configuration is required")
	}
	if err := c.Columns.Validate(); err != nil {
		return fmt.Errorf("invalid column configuration: %w", err)
	}
	if strings.TrimSpace(c.SaleLineType) == "" {
		return fmt.Errorf("sale line type cannot be empty")
	}
	if strings.TrimSpace(c.PaymentLineType) == "" {
		return fmt.Errorf("payment line type cannot be empty")
	}
	if c.SaleLineType == c.PaymentLineType {
		return fmt.Errorf("sale and payment line types must differ, both are %q", c.SaleLineType)
	}
	if strings.TrimSpace(c.PostPayMethod) == "" {
		return fmt.Errorf("post-pay method cannot be empty")
	}
	if c.MaxKeyLength <= 0 {
		return fmt.Errorf("max key length must be positive, got %d", c.MaxKeyLength)
	}
	return nil
}

// EngineStats counts what one reconciliation saw.
type EngineStats struct {
	Rows          int `json:"rows"`
	SaleLines     int `json:"sale_lines"`
	Payments      int `json:"payments"`
	Ignored       int `json:"ignored"`
	Invoices      int `json:"invoices"`
	PostPaidLines int `json:"post_paid_lines"`
	Products      int `json:"products"`
}

// Reconciliation is the output of Engine.Run: summaries in first-seen
// order plus counters.
type Reconciliation struct {
	Summaries []*models.ProductSummary
	Stats     EngineStats
}

// Engine aggregates sale lines into product summaries. It keeps no state
// between calls and is safe for concurrent use.
type Engine struct {
	config *Config
	logger logger.Logger
}

// NewEngine creates an engine. A nil config means DefaultConfig.
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "reconciler", err.Error(), err)
	}
	return &Engine{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("reconciliation_engine"),
	}, nil
}

// Reconcile aggregates records with the default configuration. Summaries
// come back in first-seen order; see Rank for report order.
func Reconcile(records []models.RawRecord) ([]*models.ProductSummary, error) {
	engine, err := NewEngine(nil)
	if err != nil {
		return nil, err
	}
	return engine.Reconcile(records)
}

// Reconcile aggregates records into one summary per product key, in
// first-seen order.
func (e *Engine) Reconcile(records []models.RawRecord) ([]*models.ProductSummary, error) {
	out, err := e.Run(records)
	if err != nil {
		return nil, err
	}
	return out.Summaries, nil
}

// Run is Reconcile with counters. It fails with ErrEmptyInput when records
// is empty and with ErrNoMatchingRecords when no record is a sale line.
// Malformed numeric fields count as zero and never fail.
func (e *Engine) Run(records []models.RawRecord) (*Reconciliation, error) {
	stats := EngineStats{Rows: len(records)}
	if len(records) == 0 {
		e.logger.Debug("No records to reconcile")
		return nil, errors.EmptyInputError("records")
	}

	cols := e.config.Columns
	var saleLines, payments []models.RawRecord
	for _, raw := range records {
		record := parsers.NormalizeRecord(raw)
		switch strings.TrimSpace(parsers.GetField(record, cols.LineType)) {
		case e.config.SaleLineType:
			saleLines = append(saleLines, record)
		case e.config.PaymentLineType:
			payments = append(payments, record)
		default:
			stats.Ignored++
		}
	}
	stats.SaleLines = len(saleLines)
	stats.Payments = len(payments)

	if len(saleLines) == 0 {
		headers := recordHeaders(records)
		candidates := parsers.SuggestColumns(cols.LineType, headers, 3)
		e.logger.WithFields(logger.Fields{
			"rows":       stats.Rows,
			"payments":   stats.Payments,
			"ignored":    stats.Ignored,
			"headers":    headers,
			"candidates": candidates,
		}).Debug("No sale lines found")
		return nil, errors.NoMatchingRecordsError("records", stats.Rows, headers, candidates)
	}

	invoiceMethods := e.paymentMethods(payments)
	stats.Invoices = len(invoiceMethods)

	accumulators := make(map[models.ProductKey]*models.ProductSummary)
	var order []*models.ProductSummary

	for _, line := range saleLines {
		sku := strings.TrimSpace(parsers.GetField(line, cols.SKU))
		name := strings.TrimSpace(parsers.GetField(line, cols.Details))
		key := models.NewProductKey(sku, name, e.config.MaxKeyLength)

		quantity := parsers.ParseLenientAmount(parsers.GetField(line, cols.Quantity))
		tax := parsers.ParseLenientAmount(parsers.GetField(line, cols.Tax))
		sales := parsers.ParseLenientAmount(parsers.GetField(line, cols.Sales))

		postPaid := decimal.Zero
		invoice := strings.TrimSpace(parsers.GetField(line, cols.InvoiceNumber))
		if method, ok := invoiceMethods[invoice]; ok && method == e.config.PostPayMethod {
			postPaid = sales
			stats.PostPaidLines++
		}

		summary, seen := accumulators[key]
		if !seen {
			summary = models.NewProductSummary(
				key,
				parsers.FormatDisplayDate(parsers.GetField(line, cols.Date)),
				name,
				classifier.Classify(string(key), name),
				strings.TrimSpace(parsers.GetField(line, cols.Location)),
			)
			accumulators[key] = summary
			order = append(order, summary)
		}
		summary.Add(quantity, tax, sales, postPaid)
	}
	stats.Products = len(order)

	e.logger.WithFields(logger.Fields{
		"rows":       stats.Rows,
		"sale_lines": stats.SaleLines,
		"payments":   stats.Payments,
		"ignored":    stats.Ignored,
		"products":   stats.Products,
	}).Debug("Reconciled records")

	return &Reconciliation{Summaries: order, Stats: stats}, nil
}

// paymentMethods maps invoice numbers to payment methods. Payments without
// an invoice number are skipped and a later payment for the same invoice
// replaces an earlier one.
func (e *Engine) paymentMethods(payments []models.RawRecord) map[string]string {
	cols := e.config.Columns
	methods := make(map[string]string, len(payments))
	for _, payment := range payments {
		invoice := strings.TrimSpace(parsers.GetField(payment, cols.InvoiceNumber))
		if invoice == "" {
			continue
		}
		methods[invoice] = strings.TrimSpace(parsers.GetField(payment, cols.PaymentMethod))
	}
	return methods
}

// recordHeaders returns the distinct normalized keys of the first record,
// sorted. CSV input gives every record the same keys.
func recordHeaders(records []models.RawRecord) []string {
	if len(records) == 0 {
		return nil
	}
	headers := make([]string, 0, len(records[0]))
	for key := range parsers.NormalizeRecord(records[0]) {
		headers = append(headers, key)
	}
	sort.Strings(headers)
	return headers
}
