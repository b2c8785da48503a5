package ta

import (
	"math"

	"smallcap-radar/internal/domain"
)

// Bullish reversal patterns checked on the latest candles of a series.
const (
	PatternBullishEngulfing   = "bullish_engulfing"
	PatternHammer             = "hammer"
	PatternMorningStar        = "morning_star"
	PatternThreeWhiteSoldiers = "three_white_soldiers"
)

var BullishPatterns = []string{
	PatternBullishEngulfing,
	PatternHammer,
	PatternMorningStar,
	PatternThreeWhiteSoldiers,
}

// Shape thresholds, expressed as fractions of the candle's full range.
const (
	dojiMaxBodyPct = 0.10

	hammerLowerMin = 0.60
	hammerUpperMax = 0.15
	hammerBodyMin  = 0.15

	soldierBodyMin = 0.50

	engulfBodyRatio = 1.0
)

type candleParts struct {
	Body, Upper, Lower, Range float64
	BodyPct, LowerPct, UpPct  float64
	IsBull, IsBear, IsDoji    bool
}

func split(c domain.Candle) candleParts {
	tr := c.High - c.Low
	if tr <= 0 {
		tr = 1e-9
	}
	body := math.Abs(c.Close - c.Open)
	upper := c.High - math.Max(c.Close, c.Open)
	lower := math.Min(c.Close, c.Open) - c.Low

	cp := candleParts{
		Body: body, Upper: upper, Lower: lower, Range: tr,
		BodyPct:  body / tr,
		UpPct:    upper / tr,
		LowerPct: lower / tr,
		IsBull:   c.Close > c.Open,
		IsBear:   c.Open > c.Close,
	}
	cp.IsDoji = cp.BodyPct <= dojiMaxBodyPct
	return cp
}

// DetectBullishPatterns evaluates the bullish pattern set against the tail of
// the series. The returned map always contains every pattern key.
func DetectBullishPatterns(candles []domain.Candle) map[string]bool {
	res := map[string]bool{
		PatternBullishEngulfing:   false,
		PatternHammer:             false,
		PatternMorningStar:        false,
		PatternThreeWhiteSoldiers: false,
	}
	n := len(candles)
	if n == 0 {
		return res
	}
	if n >= 2 {
		res[PatternBullishEngulfing] = isBullishEngulfing(candles[n-2], candles[n-1])
	}
	res[PatternHammer] = isHammer(candles[n-1])
	if n >= 3 {
		res[PatternMorningStar] = isMorningStar(candles[n-3], candles[n-2], candles[n-1])
		res[PatternThreeWhiteSoldiers] = isThreeWhiteSoldiers(candles[n-3], candles[n-2], candles[n-1])
	}
	return res
}

// AnyBullishPattern reports whether at least one pattern fired.
func AnyBullishPattern(candles []domain.Candle) bool {
	for _, hit := range DetectBullishPatterns(candles) {
		if hit {
			return true
		}
	}
	return false
}

func isBullishEngulfing(prev, cur domain.Candle) bool {
	p, c := split(prev), split(cur)
	if !p.IsBear || !c.IsBull {
		return false
	}
	if c.Body < engulfBodyRatio*p.Body {
		return false
	}
	return cur.Open <= prev.Close && cur.Close >= prev.Open
}

func isHammer(cur domain.Candle) bool {
	c := split(cur)
	return c.LowerPct >= hammerLowerMin &&
		c.UpPct <= hammerUpperMax &&
		c.BodyPct >= hammerBodyMin
}

func isMorningStar(a, b, c domain.Candle) bool {
	pa, pb, pc := split(a), split(b), split(c)
	if !pa.IsBear || !pc.IsBull {
		return false
	}
	// Middle candle is a small body gapping below the first close.
	if pb.BodyPct > 0.30 {
		return false
	}
	if math.Max(b.Open, b.Close) > a.Close {
		return false
	}
	// Third candle closes into the upper half of the first body.
	midpoint := (a.Open + a.Close) / 2
	return c.Close > midpoint
}

func isThreeWhiteSoldiers(a, b, c domain.Candle) bool {
	pa, pb, pc := split(a), split(b), split(c)
	if !pa.IsBull || !pb.IsBull || !pc.IsBull {
		return false
	}
	if pa.BodyPct < soldierBodyMin || pb.BodyPct < soldierBodyMin || pc.BodyPct < soldierBodyMin {
		return false
	}
	return b.Close > a.Close && c.Close > b.Close &&
		b.Open > a.Open && c.Open > b.Open
}
