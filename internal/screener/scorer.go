package screener

import (
	"context"
	"fmt"
	"math"
	"strings"

	"smallcap-radar/internal/domain"
	"smallcap-radar/internal/ta"

	"go.opentelemetry.io/otel/trace"
)

const (
	// minWindow is the shortest candle series the scorer will work with.
	// It covers the MACD slow EMA (26) plus signal warm-up and the EMA50
	// trend baseline with room to settle.
	minWindow = 60

	rsiPeriod          = 14
	macdFast           = 12
	macdSlow           = 26
	macdSignal         = 9
	emaShort           = 20
	emaLong            = 50
	volSpikePeriod     = 20
	volSpikeMultiple   = 2.0
	resistanceLookback = 20
)

// CandleSource supplies OHLCV series for a symbol, oldest first.
type CandleSource interface {
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
}

// Scorer evaluates indicator conditions on a candidate's 1h and 15m candle
// series and assigns a weighted composite score.
type Scorer struct {
	tracer      trace.Tracer
	source      CandleSource
	weights     Weights
	candleLimit int
}

func NewScorer(tracer trace.Tracer, source CandleSource, weights Weights, candleLimit int) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	if candleLimit < minWindow {
		candleLimit = 300
	}
	return &Scorer{
		tracer:      tracer,
		source:      source,
		weights:     weights,
		candleLimit: candleLimit,
	}
}

// Score fetches both timeframes and computes the candidate's conditions and
// composite score. Returns (nil, nil) when the symbol lacks enough candle
// history: a short series is a skip, never a partial score.
func (s *Scorer) Score(ctx context.Context, cand domain.Candidate) (*domain.Candidate, error) {
	ctx, span := s.tracer.Start(ctx, "screener.score")
	defer span.End()

	hourly, quarter, err := s.fetchSeries(ctx, cand.Symbol)
	if err != nil {
		return nil, err
	}
	if len(hourly) < minWindow || len(quarter) < minWindow {
		return nil, nil
	}

	conds := make(map[string]bool, len(domain.ConditionOrder))
	indicators := make(map[string]float64, 5)

	closes1h := domain.Closes(hourly)

	rsi := ta.RSISeries(closes1h, rsiPeriod)
	rsiNow := rsi[len(rsi)-1]
	rsiPrev := rsi[len(rsi)-2]
	conds[domain.CondRSICross50] = rsiPrev <= 50 && rsiNow > 50 && rsiNow < 80
	indicators["rsi"] = rsiNow

	macdLine, signalLine := ta.MACDSeries(closes1h, macdFast, macdSlow, macdSignal)
	histNow := macdLine[len(macdLine)-1] - signalLine[len(signalLine)-1]
	histPrev := macdLine[len(macdLine)-2] - signalLine[len(signalLine)-2]
	conds[domain.CondMACDBullCross] = histPrev <= 0 && histNow > 0
	indicators["macd"] = macdLine[len(macdLine)-1]
	indicators["macd_signal"] = signalLine[len(signalLine)-1]

	ema20 := ta.EMASeries(closes1h, emaShort)
	ema50 := ta.EMASeries(closes1h, emaLong)
	price := closes1h[len(closes1h)-1]
	e20 := ema20[len(ema20)-1]
	e50 := ema50[len(ema50)-1]
	conds[domain.CondPriceAboveEMAs] = price > e20 && price > e50
	conds[domain.CondEMA20AboveEMA50] = e20 > e50
	indicators["ema20"] = e20
	indicators["ema50"] = e50

	conds[domain.CondBullishPattern] = ta.AnyBullishPattern(hourly)

	conds[domain.CondVolSpike15m] = ta.VolumeSpike(domain.Volumes(quarter), volSpikePeriod, volSpikeMultiple)

	rsi15 := ta.RSISeries(domain.Closes(quarter), rsiPeriod)
	conds[domain.CondRSI15mAbove50] = rsi15[len(rsi15)-1] > 50

	recentHigh := ta.RecentHigh(domain.Highs(quarter), resistanceLookback)
	lastClose15 := quarter[len(quarter)-1].Close
	conds[domain.CondBreakRes15m] = !math.IsNaN(recentHigh) && lastClose15 > recentHigh

	var score float64
	for key, hit := range conds {
		if hit {
			score += s.weights[key]
		}
	}

	cand.Price = price
	cand.Score = score
	cand.Conditions = conds
	cand.Indicators = indicators
	return &cand, nil
}

// fetchSeries fetches the 1h and 15m series, retrying with the _SPBL symbol
// variant when the plain symbol yields nothing usable.
func (s *Scorer) fetchSeries(ctx context.Context, symbol string) ([]domain.Candle, []domain.Candle, error) {
	variants := []string{symbol}
	if !strings.HasSuffix(symbol, "_SPBL") {
		variants = append(variants, symbol+"_SPBL")
	}

	var lastErr error
	for _, variant := range variants {
		hourly, err := s.source.FetchCandles(ctx, variant, "1h", s.candleLimit)
		if err != nil {
			lastErr = err
			continue
		}
		quarter, err := s.source.FetchCandles(ctx, variant, "15m", s.candleLimit)
		if err != nil {
			lastErr = err
			continue
		}
		if len(hourly) > 0 && len(quarter) > 0 {
			return hourly, quarter, nil
		}
	}
	if lastErr != nil {
		return nil, nil, fmt.Errorf("fetch candles for %s: %w", symbol, lastErr)
	}
	return nil, nil, nil
}
