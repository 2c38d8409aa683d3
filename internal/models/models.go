package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RawRecord is one CSV row keyed by column header. Keys may carry stray
// whitespace, a byte-order mark or unexpected casing.
type RawRecord map[string]string

// LineType classifies a row of an invoice export by its "Line type" column.
type LineType string

const (
	// LineTypeSale is a sold item on an invoice.
	LineTypeSale LineType = "Sale Line"
	// LineTypePayment is a payment event tied to an invoice.
	LineTypePayment LineType = "Payment"
)

// String returns the string representation of LineType
func (t LineType) String() string {
	return string(t)
}

// IsValid reports whether the pipeline consumes rows of this type.
func (t LineType) IsValid() bool {
	return t == LineTypeSale || t == LineTypePayment
}

// PaymentMethodPostPay is the method whose sales are reported as post-paid.
const PaymentMethodPostPay = "Post Pay"

// PaymentRecord links an invoice to the method it was paid with.
type PaymentRecord struct {
	InvoiceNumber string `json:"invoice_number"`
	PaymentMethod string `json:"payment_method"`
}

// IsPostPay reports whether the payment was deferred.
func (p PaymentRecord) IsPostPay() bool {
	return p.PaymentMethod == PaymentMethodPostPay
}

// ProductKey identifies a product across sale lines. Two lines belong to the
// same summary iff their keys are byte-for-byte equal.
type ProductKey string

// MaxDescriptionKeyLength is how many characters of the description stand in
// for a missing SKU.
const MaxDescriptionKeyLength = 50

// NewProductKey returns the trimmed SKU, or the first maxLen characters of
// the trimmed description when the SKU is blank.
func NewProductKey(sku, description string, maxLen int) ProductKey {
	if sku != "" {
		return ProductKey(sku)
	}
	runes := []rune(description)
	if maxLen > 0 && len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	return ProductKey(runes)
}

// Category is a report section. The classifier only produces OEM, SHOP,
// WORK and TYRE; OLD and MISC exist as grouping buckets.
type Category string

const (
	CategoryOEM  Category = "OEM"
	CategoryShop Category = "SHOP"
	CategoryWork Category = "WORK"
	CategoryTyre Category = "TYRE"
	CategoryOld  Category = "OLD"
	CategoryMisc Category = "MISC"
)

// Categories lists every bucket in report order.
var Categories = []Category{
	CategoryOEM,
	CategoryShop,
	CategoryWork,
	CategoryTyre,
	CategoryOld,
	CategoryMisc,
}

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is one of the six buckets
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ProductSummary aggregates every sale line sharing a ProductKey. The
// descriptive fields come from the first line seen; the numeric fields are
// sums and only change through Add.
type ProductSummary struct {
	Date        string          `json:"date" yaml:"date"`
	ProductName string          `json:"product_name" yaml:"product_name"`
	SKU         string          `json:"sku" yaml:"sku"`
	Category    Category        `json:"category" yaml:"category"`
	Location    string          `json:"location" yaml:"location"`
	Quantity    decimal.Decimal `json:"quantity" yaml:"quantity"`
	Tax         decimal.Decimal `json:"tax" yaml:"tax"`
	Sales       decimal.Decimal `json:"sales" yaml:"sales"`
	PostPaid    decimal.Decimal `json:"post_paid" yaml:"post_paid"`
}

// NewProductSummary seeds a summary with zeroed totals.
func NewProductSummary(key ProductKey, date, name string, category Category, location string) *ProductSummary {
	return &ProductSummary{
		Date:        date,
		ProductName: name,
		SKU:         string(key),
		Category:    category,
		Location:    location,
		Quantity:    decimal.Zero,
		Tax:         decimal.Zero,
		Sales:       decimal.Zero,
		PostPaid:    decimal.Zero,
	}
}

// Add accumulates one sale line.
func (s *ProductSummary) Add(quantity, tax, sales, postPaid decimal.Decimal) {
	s.Quantity = s.Quantity.Add(quantity)
	s.Tax = s.Tax.Add(tax)
	s.Sales = s.Sales.Add(sales)
	s.PostPaid = s.PostPaid.Add(postPaid)
}

// Row returns the nine-field tuple handed to spreadsheet sinks:
// date, name, sku, category, location, quantity, tax, sales, post-paid.
func (s *ProductSummary) Row() []interface{} {
	return []interface{}{
		s.Date,
		s.ProductName,
		s.SKU,
		s.Category.String(),
		s.Location,
		s.Quantity.InexactFloat64(),
		s.Tax.InexactFloat64(),
		s.Sales.InexactFloat64(),
		s.PostPaid.InexactFloat64(),
	}
}

// UnitPrice is sales divided by quantity, or sales when quantity is zero.
func (s *ProductSummary) UnitPrice() decimal.Decimal {
	if s.Quantity.IsZero() {
		return s.Sales
	}
	return s.Sales.Div(s.Quantity)
}

// String returns a string representation of the summary
func (s *ProductSummary) String() string {
	return fmt.Sprintf("ProductSummary{SKU: %s, Category: %s, Quantity: %s, Sales: %s, PostPaid: %s}",
		s.SKU, s.Category, s.Quantity, s.Sales, s.PostPaid)
}

// Totals is an additive fold over the numeric fields of a set of summaries.
type Totals struct {
	Quantity decimal.Decimal `json:"total_quantity" yaml:"total_quantity"`
	Tax      decimal.Decimal `json:"total_tax" yaml:"total_tax"`
	Sales    decimal.Decimal `json:"total_sales" yaml:"total_sales"`
	PostPaid decimal.Decimal `json:"total_post_paid" yaml:"total_post_paid"`
}

// Add folds one summary into the totals.
func (t Totals) Add(s *ProductSummary) Totals {
	return Totals{
		Quantity: t.Quantity.Add(s.Quantity),
		Tax:      t.Tax.Add(s.Tax),
		Sales:    t.Sales.Add(s.Sales),
		PostPaid: t.PostPaid.Add(s.PostPaid),
	}
}

// Merge adds two totals.
func (t Totals) Merge(other Totals) Totals {
	return Totals{
		Quantity: t.Quantity.Add(other.Quantity),
		Tax:      t.Tax.Add(other.Tax),
		Sales:    t.Sales.Add(other.Sales),
		PostPaid: t.PostPaid.Add(other.PostPaid),
	}
}

// Equal compares totals numerically.
func (t Totals) Equal(other Totals) bool {
	return t.Quantity.Equal(other.Quantity) &&
		t.Tax.Equal(other.Tax) &&
		t.Sales.Equal(other.Sales) &&
		t.PostPaid.Equal(other.PostPaid)
}

// CategoryGroups holds the ranked summaries split by bucket. Every bucket
// is present, possibly empty.
type CategoryGroups struct {
	buckets map[Category][]*ProductSummary
}

// NewCategoryGroups returns groups with all six buckets empty.
func NewCategoryGroups() *CategoryGroups {
	buckets := make(map[Category][]*ProductSummary, len(Categories))
	for _, c := range Categories {
		buckets[c] = []*ProductSummary{}
	}
	return &CategoryGroups{buckets: buckets}
}

// Append adds a summary to its bucket, or to MISC when its category is not
// one of the buckets.
func (g *CategoryGroups) Append(s *ProductSummary) {
	category := s.Category
	if !category.IsValid() {
		category = CategoryMisc
	}
	g.buckets[category] = append(g.buckets[category], s)
}

// Items returns the bucket's summaries in ranked order.
func (g *CategoryGroups) Items(c Category) []*ProductSummary {
	return g.buckets[c]
}

// Len returns the number of summaries across all buckets.
func (g *CategoryGroups) Len() int {
	n := 0
	for _, items := range g.buckets {
		n += len(items)
	}
	return n
}

// Map exposes the buckets keyed by category name, for serialization.
func (g *CategoryGroups) Map() map[string][]*ProductSummary {
	out := make(map[string][]*ProductSummary, len(g.buckets))
	for c, items := range g.buckets {
		out[c.String()] = items
	}
	return out
}
