package parsers

import (
	"fmt"
	"strings"
)

// ColumnConfig names the export columns the pipeline reads. POS versions
// rename columns now and then, so every logical field is configurable.
type ColumnConfig struct {
	LineType      string `json:"line_type" mapstructure:"line_type"`
	SKU           string `json:"sku" mapstructure:"sku"`
	Details       string `json:"details" mapstructure:"details"`
	Date          string `json:"date" mapstructure:"date"`
	Location      string `json:"location" mapstructure:"location"`
	Quantity      string `json:"quantity" mapstructure:"quantity"`
	Tax           string `json:"tax" mapstructure:"tax"`
	Sales         string `json:"sales" mapstructure:"sales"`
	InvoiceNumber string `json:"invoice_number" mapstructure:"invoice_number"`
	PaymentMethod string `json:"payment_method" mapstructure:"payment_method"`
}

// DefaultColumnConfig returns the column names of a standard invoice line
// export.
func DefaultColumnConfig() *ColumnConfig {
	return &ColumnConfig{
		LineType:      "Line type",
		SKU:           "Sku",
		Details:       "Details",
		Date:          "Date",
		Location:      "Location",
		Quantity:      "Quantity",
		Tax:           "Total tax",
		Sales:         "Total (Tax inclusive)",
		InvoiceNumber: "Invoice Number",
		PaymentMethod: "Payment method",
	}
}

// Validate checks that no column name is blank
func (cc *ColumnConfig) Validate() error {
	for name, column := range cc.fields() {
		if strings.TrimSpace(column) == "" {
			return fmt.Errorf("%s column cannot be empty", name)
		}
	}
	return nil
}

// GetColumnName returns the configured column for a logical field name, or
// the name itself when it is not a known field.
func (cc *ColumnConfig) GetColumnName(standardName string) string {
	if column, ok := cc.fields()[standardName]; ok {
		return column
	}
	return standardName
}

func (cc *ColumnConfig) fields() map[string]string {
	return map[string]string{
		"line_type":      cc.LineType,
		"sku":            cc.SKU,
		"details":        cc.Details,
		"date":           cc.Date,
		"location":       cc.Location,
		"quantity":       cc.Quantity,
		"tax":            cc.Tax,
		"sales":          cc.Sales,
		"invoice_number": cc.InvoiceNumber,
		"payment_method": cc.PaymentMethod,
	}
}
