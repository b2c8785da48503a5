package screener

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"smallcap-radar/internal/domain"
)

// Pass labels distinguish the primary scan from the secondary relabeled pass.
const (
	PassManual   = "MANUAL CHECK"
	PassEnhanced = "ENHANCED AI"

	takeProfitPct = 3.0
	stopLossPct   = 3.0
)

// FormatAlert renders a candidate into the fixed alert template. With markup
// enabled the output uses Telegram HTML (bold header, escaped fields); with
// markup disabled it is plain text with no markup characters at all.
func FormatAlert(c domain.Candidate, label string, useMarkup bool, maxScore float64) string {
	base := c.Base
	symbol := c.Symbol
	if useMarkup {
		base = html.EscapeString(base)
		symbol = html.EscapeString(symbol)
	}

	header := headerLine(label, useMarkup)
	tp := c.Price * (1 + takeProfitPct/100)
	sl := c.Price * (1 - stopLossPct/100)

	macdState := "Neutral"
	if c.Conditions[domain.CondMACDBullCross] {
		macdState = "Bullish"
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "🚀 $%s (%s) Bullish Signal on Bitget\n", base, symbol)
	fmt.Fprintf(&b, "📊 Entry: %s  |  TP: %s (+%.1f%%)  |  SL: %s\n",
		formatPrice(c.Price), formatPrice(tp), takeProfitPct, formatPrice(sl))
	fmt.Fprintf(&b, "📈 RSI: %.2f  |  MACD: %s  |  24h: %+.2f%%\n",
		c.Indicators["rsi"], macdState, c.Change24hPct)
	fmt.Fprintf(&b, "💰 Market Cap: $%s\n", groupThousands(c.MarketCap))
	fmt.Fprintf(&b, "⭐ Score: %s/%s\n", formatScore(c.Score), formatScore(maxScore))
	fmt.Fprintf(&b, "✅ %s", firedConditions(c.Conditions))
	return b.String()
}

func headerLine(label string, useMarkup bool) string {
	squares := "🟩🟩🟩"
	if label == PassEnhanced {
		squares = "🟥🟥🟥"
	}
	line := fmt.Sprintf("%s %s %s", squares, label, squares)
	if useMarkup {
		return "<b>" + line + "</b>"
	}
	return line
}

// firedConditions lists the human-readable names of satisfied conditions in
// the fixed condition order.
func firedConditions(conds map[string]bool) string {
	var names []string
	for _, key := range domain.ConditionOrder {
		if conds[key] {
			names = append(names, domain.ConditionLabels[key])
		}
	}
	if len(names) == 0 {
		return "No conditions fired"
	}
	return strings.Join(names, ", ")
}

// formatPrice renders a fixed six decimals so entry/TP/SL line up for the
// micro-cap price ranges this scanner targets.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func groupThousands(v float64) string {
	n := int64(v)
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
