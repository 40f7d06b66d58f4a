package utils

import "strings"

// NormalizeTicker uppercases and trims user input and drops a leading "$".
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	return strings.TrimPrefix(ticker, "$")
}

// StripExchangeSuffix removes a Yahoo exchange suffix (.NS, .BO) to get the
// bare exchange symbol.
func StripExchangeSuffix(ticker string) string {
	t := NormalizeTicker(ticker)
	for _, sfx := range []string{".NS", ".BO"} {
		t = strings.TrimSuffix(t, sfx)
	}
	return t
}

// YahooSymbol returns the Yahoo Finance symbol for ticker, appending suffix
// (e.g. ".NS") unless the ticker already carries an exchange suffix.
func YahooSymbol(ticker, suffix string) string {
	t := NormalizeTicker(ticker)
	if suffix == "" || strings.Contains(t, ".") || strings.HasPrefix(t, "^") {
		return t
	}
	return t + strings.ToUpper(suffix)
}
