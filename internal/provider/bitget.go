package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"smallcap-radar/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const bitgetBaseURL = "https://api.bitget.com"

// BitgetProvider fetches spot tickers and candles from the Bitget public API.
// Credentials are not required for market data; when present they are sent as
// headers and otherwise ignored.
type BitgetProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
	apiKey  string
}

func NewBitgetProvider(tracer trace.Tracer) *BitgetProvider {
	return &BitgetProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: bitgetBaseURL,
		tracer:  tracer,
		limiter: newBitgetLimiter(),
	}
}

// WithAPIKey sets an optional API key passed through on requests.
func (p *BitgetProvider) WithAPIKey(key string) *BitgetProvider {
	p.apiKey = key
	return p
}

type bitgetEnvelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type bitgetTickerRow struct {
	Symbol       string `json:"symbol"`
	Close        string `json:"close"`
	PriceChgPct  string `json:"priceChgPct"`
	QuoteVol     string `json:"quoteVol"`
	UsdtVol      string `json:"usdtVol"`
	ChangePercnt string `json:"change"`
}

// FetchTickers fetches all 24h spot tickers.
func (p *BitgetProvider) FetchTickers(ctx context.Context) ([]domain.Ticker, error) {
	_, span := p.tracer.Start(ctx, "bitget.fetch-tickers")
	defer span.End()

	body, err := p.doRequest(ctx, p.baseURL+"/api/spot/v1/market/tickers")
	if err != nil {
		return nil, fmt.Errorf("fetch tickers: %w", err)
	}

	var rows []bitgetTickerRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse tickers: %w", err)
	}

	tickers := make([]domain.Ticker, 0, len(rows))
	for _, row := range rows {
		if row.Symbol == "" {
			continue
		}
		price, _ := strconv.ParseFloat(row.Close, 64)
		vol, _ := strconv.ParseFloat(row.UsdtVol, 64)
		if vol == 0 {
			vol, _ = strconv.ParseFloat(row.QuoteVol, 64)
		}
		tickers = append(tickers, domain.Ticker{
			Symbol:       row.Symbol,
			LastPrice:    price,
			Change24hPct: normalizeChangePct(firstNonEmpty(row.PriceChgPct, row.ChangePercnt)),
			Volume24h:    vol,
		})
	}
	return tickers, nil
}

// FetchCandles fetches OHLCV candles for a symbol and interval, oldest first.
// Bitget returns newest-first rows; they are reversed and truncated to limit.
func (p *BitgetProvider) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	_, span := p.tracer.Start(ctx, "bitget.fetch-candles")
	defer span.End()

	gran := intervalToSeconds(interval)
	if gran == 0 {
		return nil, fmt.Errorf("unsupported interval: %s", interval)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("granularity", strconv.Itoa(gran))
	body, err := p.doRequest(ctx, p.baseURL+"/api/spot/v1/market/candles?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", symbol, err)
	}

	// Row format: [timestamp(ms), open, high, low, close, volume], strings.
	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse candles for %s: %w", symbol, err)
	}

	candles := make([]domain.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 6 {
			continue
		}
		tsMs, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		open, err1 := strconv.ParseFloat(row[1], 64)
		high, err2 := strconv.ParseFloat(row[2], 64)
		low, err3 := strconv.ParseFloat(row[3], 64)
		closePx, err4 := strconv.ParseFloat(row[4], 64)
		vol, err5 := strconv.ParseFloat(row[5], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		candles = append(candles, domain.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: time.UnixMilli(tsMs).UTC(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePx,
			Volume:   vol,
		})
	}

	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func (p *BitgetProvider) doRequest(ctx context.Context, rawURL string) (json.RawMessage, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("ACCESS-KEY", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bitget API error %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env bitgetEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	if env.Code != "00000" && env.Code != "0" {
		return nil, fmt.Errorf("bitget error code %s: %s", env.Code, env.Msg)
	}
	return env.Data, nil
}

// normalizeChangePct converts Bitget's 24h change to a 0-100 percent scale.
// The API reports a fraction (0.0123 = 1.23%); defensively, values already on
// the percent scale (|v| >= 2) pass through unchanged.
func normalizeChangePct(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	if math.Abs(v) < 2 {
		return v * 100
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func intervalToSeconds(interval string) int {
	switch interval {
	case "1m":
		return 60
	case "5m":
		return 300
	case "15m":
		return 900
	case "30m":
		return 1800
	case "1h":
		return 3600
	case "4h":
		return 14400
	case "1d":
		return 86400
	default:
		return 0
	}
}
