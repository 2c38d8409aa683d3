package reconciler

import (
	"sort"

	"pos-sales-report/internal/models"
)

// Rank returns the summaries ordered by sales, highest first. Summaries
// with equal sales keep their input order. The input slice is not
// modified.
func Rank(summaries []*models.ProductSummary) []*models.ProductSummary {
	ranked := make([]*models.ProductSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Sales.GreaterThan(ranked[j].Sales)
	})
	return ranked
}
