package parsers

import (
	"sort"
	"strings"

	"pos-sales-report/internal/models"
)

const bom = '\uFEFF'

// NormalizeColumnName trims whitespace and a leading byte-order mark.
func NormalizeColumnName(name string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), string(bom)))
}

// GetField looks a column up in a record, tolerating header drift. It tries
// the exact key, then the normalized key, then a case-insensitive match of
// normalized keys. A missing column yields "". When several keys match
// case-insensitively the lexically smallest wins.
func GetField(record models.RawRecord, column string) string {
	if value, ok := record[column]; ok {
		return value
	}

	normalized := NormalizeColumnName(column)
	if value, ok := record[normalized]; ok {
		return value
	}

	lower := strings.ToLower(normalized)
	var matches []string
	for key := range record {
		if strings.ToLower(NormalizeColumnName(key)) == lower {
			matches = append(matches, key)
		}
	}
	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return record[matches[0]]
}

// NormalizeRecord returns a copy of record with normalized keys. When two
// keys normalize to the same name the one already normalized wins,
// otherwise the lexically smallest.
func NormalizeRecord(record models.RawRecord) models.RawRecord {
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(models.RawRecord, len(record))
	for _, key := range keys {
		normalized := NormalizeColumnName(key)
		if _, exists := out[normalized]; exists && key != normalized {
			continue
		}
		out[normalized] = record[key]
	}
	return out
}
