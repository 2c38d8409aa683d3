package reconciler

import (
	"pos-sales-report/internal/models"
)

// Group places ranked summaries into their report sections, keeping rank
// order within each section. Summaries with an unknown category go to MISC.
func Group(ranked []*models.ProductSummary) *models.CategoryGroups {
	groups := models.NewCategoryGroups()
	for _, summary := range ranked {
		groups.Append(summary)
	}
	return groups
}

// SectionTotals adds up the numeric fields of items. No rounding happens
// here; formatting is up to the sink.
func SectionTotals(items []*models.ProductSummary) models.Totals {
	totals := models.Totals{}
	for _, item := range items {
		totals = totals.Add(item)
	}
	return totals
}

// CategoryTotals returns SectionTotals for every section.
func CategoryTotals(groups *models.CategoryGroups) map[models.Category]models.Totals {
	out := make(map[models.Category]models.Totals, len(models.Categories))
	for _, category := range models.Categories {
		out[category] = SectionTotals(groups.Items(category))
	}
	return out
}

// GrandTotals folds every section in report order, item by item, with the
// same addition SectionTotals uses.
func GrandTotals(groups *models.CategoryGroups) models.Totals {
	totals := models.Totals{}
	for _, category := range models.Categories {
		for _, item := range groups.Items(category) {
			totals = totals.Add(item)
		}
	}
	return totals
}
