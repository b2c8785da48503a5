package screener

import "smallcap-radar/internal/domain"

// Thresholds are the numeric gates applied by the candidate filter.
type Thresholds struct {
	MinMarketCap     float64
	MaxMarketCap     float64
	SkipIf24hGainPct float64
}

// Filter selects tickers whose resolved market cap lies inside the inclusive
// cap range and whose 24h gain is strictly below the ceiling. Tickers without
// a cap entry are excluded; an unknown cap never passes as zero. Output
// preserves input order. Pure: no network, no clock.
func Filter(tickers []domain.Ticker, caps domain.CapMap, th Thresholds) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(tickers))
	for _, t := range tickers {
		base := domain.BaseAsset(t.Symbol)
		if base == "" {
			continue
		}
		cap, ok := caps[base]
		if !ok {
			continue
		}
		if cap < th.MinMarketCap || cap > th.MaxMarketCap {
			continue
		}
		if t.Change24hPct >= th.SkipIf24hGainPct {
			continue
		}
		out = append(out, domain.Candidate{
			Base:         base,
			Symbol:       t.Symbol,
			Price:        t.LastPrice,
			Change24hPct: t.Change24hPct,
			Volume24h:    t.Volume24h,
			MarketCap:    cap,
		})
	}
	return out
}
