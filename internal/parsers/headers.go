package parsers

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SuggestColumns returns up to limit headers that look like a misspelt or
// renamed version of column, closest first. Headers that already match
// column case-insensitively are not suggested.
func SuggestColumns(column string, headers []string, limit int) []string {
	want := strings.ToLower(NormalizeColumnName(column))
	if want == "" || len(headers) == 0 {
		return nil
	}

	type candidate struct {
		header   string
		distance int
	}
	seen := make(map[string]bool)
	var candidates []candidate

	add := func(header string, distance int) {
		if seen[header] {
			return
		}
		seen[header] = true
		candidates = append(candidates, candidate{header: header, distance: distance})
	}

	// Headers containing the wanted name as a subsequence ("Line type (POS)").
	for _, rank := range fuzzy.RankFindNormalizedFold(want, headers) {
		if strings.ToLower(NormalizeColumnName(rank.Target)) == want {
			continue
		}
		add(rank.Target, rank.Distance)
	}

	// Near misses by edit distance ("Line typ", "LineType").
	maxDistance := len(want) / 3
	if maxDistance < 2 {
		maxDistance = 2
	}
	for _, header := range headers {
		normalized := strings.ToLower(NormalizeColumnName(header))
		if normalized == want {
			continue
		}
		if d := levenshtein.ComputeDistance(want, normalized); d <= maxDistance {
			add(header, d)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.header
	}
	return out
}
