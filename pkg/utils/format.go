// Package utils holds small parsing and formatting helpers shared by the
// data sources and exporters.
package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCompact formats an amount with a K/M/B/T suffix.
// e.g., 1927345 → "1.93M", -383290000000 → "-383.29B"
func FormatCompact(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	a := math.Abs(amount)
	switch {
	case a >= 1e12:
		return sign + trimDecimals(a/1e12) + "T"
	case a >= 1e9:
		return sign + trimDecimals(a/1e9) + "B"
	case a >= 1e6:
		return sign + trimDecimals(a/1e6) + "M"
	case a >= 1e3:
		return sign + trimDecimals(a/1e3) + "K"
	default:
		return sign + trimDecimals(a)
	}
}

// FormatGrouped formats an amount with thousands separators and no
// fractional part. e.g., 1234567.8 → "1,234,568"
func FormatGrouped(amount float64) string {
	n := int64(math.Round(amount))
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPct formats a fraction as a percentage, e.g., 0.1234 → "12.34%".
func FormatPct(frac float64) string {
	return fmt.Sprintf("%.2f%%", frac*100)
}

// FormatRatio formats a plain ratio with four significant decimals.
func FormatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// trimDecimals formats with up to 2 decimal places, dropping trailing zeros.
func trimDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
