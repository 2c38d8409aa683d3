// Package classifier assigns report categories to products.
//
// Classification is a pure function of the product key and the product
// description. Rules are evaluated top to bottom and the first match wins;
// the tyre rule looks at the description and must run before the SKU shape
// rules, because tyre SKUs can themselves look like part numbers.
//
// Example usage:
//
//	category := classifier.Classify("1001", "Labour")        // WORK
//	category = classifier.Classify("", "205/55/16 Michelin") // TYRE
//	category = classifier.Classify("BP-220", "Brake pad")    // OEM
package classifier

import (
	"regexp"
	"strings"

	"pos-sales-report/internal/models"
)

// WorkshopSKU is the internal service SKU used for workshop labour.
const WorkshopSKU = "1001"

var tyreSizePattern = regexp.MustCompile(`\d+/\d+/\d+`)

// Rule is one classification step.
type Rule struct {
	Name     string
	Category models.Category
	Match    func(sku, productName string) bool
}

// Rules is the ordered rule table. Anything no rule matches is SHOP.
var Rules = []Rule{
	{
		Name:     "workshop sku",
		Category: models.CategoryWork,
		Match: func(sku, _ string) bool {
			return sku == WorkshopSKU
		},
	},
	{
		Name:     "tyre size in description",
		Category: models.CategoryTyre,
		Match: func(_, productName string) bool {
			return tyreSizePattern.MatchString(productName)
		},
	},
	{
		Name:     "part number with letters or hyphen",
		Category: models.CategoryOEM,
		Match: func(sku, _ string) bool {
			return sku != "" && strings.IndexFunc(sku, isLetterOrHyphen) >= 0
		},
	},
	{
		Name:     "part number ending in 00",
		Category: models.CategoryOEM,
		Match: func(sku, _ string) bool {
			return len(sku) >= 2 && strings.HasSuffix(sku, "00")
		},
	},
}

// Fallback is the category of products no rule matches.
const Fallback = models.CategoryShop

// Classify returns the category of a product. Both inputs are trimmed
// first. The result is always OEM, SHOP, WORK or TYRE.
func Classify(sku, productName string) models.Category {
	category, _ := Explain(sku, productName)
	return category
}

// Explain is Classify that also names the rule that decided. The name is
// "default" when no rule matched.
func Explain(sku, productName string) (models.Category, string) {
	sku = strings.TrimSpace(sku)
	productName = strings.TrimSpace(productName)

	for _, rule := range Rules {
		if rule.Match(sku, productName) {
			return rule.Category, rule.Name
		}
	}
	return Fallback, "default"
}

func isLetterOrHyphen(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-'
}
