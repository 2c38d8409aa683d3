package parsers

import (
	"fmt"
	"strings"
	"time"
)

// DisplayDateLayout is how sale dates appear in reports, e.g. "Jan 5, 2025".
const DisplayDateLayout = "Jan 2, 2006"

// Date layouts seen in POS exports. Slash dates are month first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Mon Jan 2 2006",
}

// ParseDate trims surrounding whitespace and quotes and tries each known
// layout in turn.
func ParseDate(s string) (time.Time, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// FormatDisplayDate renders s as DisplayDateLayout, or returns s unchanged
// when it is not a recognizable date.
func FormatDisplayDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format(DisplayDateLayout)
}
