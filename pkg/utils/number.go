package utils

import (
	"strconv"
	"strings"
)

// Unit multipliers used by Indian statement vendors.
const (
	Lakh  = 1e5
	Crore = 1e7
)

// ParseNumber parses a statement cell. It accepts thousands separators,
// currency symbols, a trailing %, accounting negatives "(1,234)", and
// Cr/Lakh suffixes. ok is false for blanks and placeholders such as "-",
// "--", "N/A" and "NaN".
func ParseNumber(s string) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "--", "\u2014", "n/a", "na", "nan", "null", "none":
		return 0, false
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer(",", "", "%", "", "₹", "", "$", "", "Rs.", "", " ", "").Replace(s)
	s = strings.TrimSpace(s)

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "Cr."):
		s, mult = strings.TrimSuffix(s, "Cr."), Crore
	case strings.HasSuffix(s, "Cr"):
		s, mult = strings.TrimSuffix(s, "Cr"), Crore
	case strings.HasSuffix(s, "Lakh"):
		s, mult = strings.TrimSuffix(s, "Lakh"), Lakh
	case strings.HasSuffix(s, "L"):
		s, mult = strings.TrimSuffix(s, "L"), Lakh
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f * mult, true
}
