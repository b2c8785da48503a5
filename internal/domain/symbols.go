package domain

import "strings"

// StableQuotes are the quote currencies we treat as USD-equivalent when
// stripping exchange pair symbols down to their base asset.
var StableQuotes = []string{"USDT", "USDC", "USD"}

// BaseAsset normalizes an exchange pair symbol to its uppercase base asset.
// Spot symbols arrive as ABCUSDT, ABC-USDT, or ABCUSDT_SPBL depending on the
// endpoint; all collapse to ABC. Returns "" when no stable quote suffix is
// present and the symbol is too short to guess.
func BaseAsset(symbol string) string {
	s := strings.ToUpper(symbol)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.TrimSuffix(s, "_SPBL")
	for _, quote := range StableQuotes {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return s[:len(s)-len(quote)]
		}
	}
	if len(s) < 2 {
		return ""
	}
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

// IsStableQuote reports whether target is one of the USD-equivalent quotes.
func IsStableQuote(target string) bool {
	t := strings.ToUpper(strings.TrimSpace(target))
	for _, quote := range StableQuotes {
		if t == quote {
			return true
		}
	}
	return false
}
