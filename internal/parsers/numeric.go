package parsers

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseLenientAmount reads the leading decimal number of s and never fails.
// Leading whitespace is skipped and anything after the longest valid
// number prefix is ignored, so "12.5 units" reads as 12.5. Blank input or
// input without a numeric prefix reads as zero.
//
// Thousands separators and currency symbols are not understood: "1,234"
// reads as 1 and "$5" reads as 0.
//
// An exponent beyond MaxExponent in either direction makes the whole cell
// malformed, so "1e900000000" reads as 0.
func ParseLenientAmount(s string) decimal.Decimal {
	prefix := numericPrefix(s)
	if prefix == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MaxExponent bounds the exponent of a lenient amount. Larger exponents
// would make every later sum rescale to that many digits.
const MaxExponent = 30

// numericPrefix returns the longest prefix of s (after leading space) that
// forms a decimal literal, rewritten into a form decimal.NewFromString
// accepts: no plus sign, no bare leading or trailing dot.
func numericPrefix(s string) string {
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == bom
	})

	i := 0
	negative := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}

	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intPart := s[intStart:i]

	var fracPart string
	if i < len(s) && s[i] == '.' {
		fracStart := i + 1
		j := fracStart
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracPart = s[fracStart:j]
		i = j
	}

	if intPart == "" && fracPart == "" {
		return ""
	}

	var exp string
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		digitsStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > digitsStart {
			if !exponentInRange(s[digitsStart:j]) {
				return ""
			}
			exp = "e" + strings.TrimPrefix(s[i+1:j], "+")
		}
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	if intPart == "" {
		b.WriteByte('0')
	} else {
		b.WriteString(intPart)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	b.WriteString(exp)
	return b.String()
}

// exponentInRange reports whether the unsigned exponent digits are at most
// MaxExponent.
func exponentInRange(digits string) bool {
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return true
	}
	if len(digits) > 3 {
		return false
	}
	n, err := strconv.Atoi(digits)
	return err == nil && n <= MaxExponent
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
