package reporter

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// displayCurrency is a symbol-less currency used only for rendering
// amounts with two decimals and thousands separators.
const displayCurrency = "RPT"

func init() {
	money.AddCurrency(displayCurrency, "", "1", ".", ",", 2)
}

// FormatCurrency renders an amount with two decimals and thousands
// separators, e.g. 1234.5 as "1,234.50". Half cents round away from zero.
func FormatCurrency(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, displayCurrency).Display()
}

// FormatQuantity renders the absolute quantity in its shortest form:
// 2 as "2", 1.50 as "1.5".
func FormatQuantity(quantity decimal.Decimal) string {
	return quantity.Abs().String()
}

// padRight and padLeft pad by display width so wide runes line up.
func padRight(s string, width int) string {
	if gap := width - displayWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func padLeft(s string, width int) string {
	if gap := width - displayWidth(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}
