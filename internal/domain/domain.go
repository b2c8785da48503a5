package domain

// Ticker is one exchange spot ticker as reported for the trailing 24h window.
type Ticker struct {
	Symbol       string  `json:"symbol"`
	LastPrice    float64 `json:"last_price"`
	Change24hPct float64 `json:"change_24h_pct"`
	Volume24h    float64 `json:"volume_24h"`
}

// CapMap maps a normalized base asset (uppercase, quote suffix stripped) to
// its market capitalization in USD. A missing key means the cap is unknown,
// which is distinct from a zero cap.
type CapMap map[string]float64

// Candidate is a ticker that survived filtering, enriched with its resolved
// market cap and, after scoring, indicator values and a composite score.
// Candidates live for a single scan cycle only.
type Candidate struct {
	Base         string             `json:"base"`
	Symbol       string             `json:"symbol"`
	Price        float64            `json:"price"`
	Change24hPct float64            `json:"change_24h_pct"`
	Volume24h    float64            `json:"volume_24h"`
	MarketCap    float64            `json:"market_cap"`
	Score        float64            `json:"score"`
	Conditions   map[string]bool    `json:"conditions,omitempty"`
	Indicators   map[string]float64 `json:"indicators,omitempty"`
}

// Condition keys produced by the scorer.
const (
	CondRSICross50      = "rsi_cross_50"
	CondMACDBullCross   = "macd_bullish_cross"
	CondPriceAboveEMAs  = "price_above_ema20_50"
	CondEMA20AboveEMA50 = "ema20_gt_ema50"
	CondBullishPattern  = "bullish_pattern"
	CondVolSpike15m     = "vol_spike_15m"
	CondRSI15mAbove50   = "rsi_15m_gt_50"
	CondBreakRes15m     = "break_resistance_15m"
)

// ConditionLabels holds the operator-facing names used in alerts.
var ConditionLabels = map[string]string{
	CondRSICross50:      "RSI crossed 50 (1h)",
	CondMACDBullCross:   "MACD bullish cross (1h)",
	CondPriceAboveEMAs:  "Price above EMA20/50 (1h)",
	CondEMA20AboveEMA50: "EMA20 above EMA50 (1h)",
	CondBullishPattern:  "Bullish candle pattern (1h)",
	CondVolSpike15m:     "Volume spike (15m)",
	CondRSI15mAbove50:   "RSI above 50 (15m)",
	CondBreakRes15m:     "Resistance break (15m)",
}

// ConditionOrder fixes the listing order of conditions in alerts and stats so
// output is deterministic across cycles.
var ConditionOrder = []string{
	CondRSICross50,
	CondMACDBullCross,
	CondPriceAboveEMAs,
	CondEMA20AboveEMA50,
	CondBullishPattern,
	CondVolSpike15m,
	CondRSI15mAbove50,
	CondBreakRes15m,
}
