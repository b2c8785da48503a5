package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches exchange ticker listings and global market
// listings from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a provider with built-in free-tier rate
// limiting.
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: newCoinGeckoLimiter(),
	}
}

// ExchangeTicker is one pair listed on an exchange, as reported by
// /exchanges/{id}/tickers.
type ExchangeTicker struct {
	Base   string
	Target string
	CoinID string
}

// MarketRow is one asset row from /coins/markets.
type MarketRow struct {
	ID        string
	Symbol    string
	MarketCap float64
}

// FetchExchangeTickersPage fetches one page of an exchange's pair listings.
// An empty result signals the end of pagination.
func (p *CoinGeckoProvider) FetchExchangeTickersPage(ctx context.Context, exchangeID string, page int) ([]ExchangeTicker, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-exchange-tickers")
	defer span.End()

	u := fmt.Sprintf("%s/exchanges/%s/tickers?page=%d", p.baseURL, url.PathEscape(exchangeID), page)
	body, err := p.doRequest(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch exchange tickers page %d: %w", page, err)
	}

	var raw struct {
		Tickers []struct {
			Base   string `json:"base"`
			Target string `json:"target"`
			CoinID string `json:"coin_id"`
			Coin   struct {
				ID string `json:"id"`
			} `json:"coin"`
		} `json:"tickers"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse exchange tickers page %d: %w", page, err)
	}

	out := make([]ExchangeTicker, 0, len(raw.Tickers))
	for _, t := range raw.Tickers {
		coinID := t.CoinID
		if coinID == "" {
			coinID = t.Coin.ID
		}
		out = append(out, ExchangeTicker{
			Base:   strings.ToUpper(t.Base),
			Target: strings.ToUpper(t.Target),
			CoinID: coinID,
		})
	}
	return out, nil
}

// FetchMarketsPage fetches one page of the global market listing ordered by
// ascending market cap, 250 rows per page.
func (p *CoinGeckoProvider) FetchMarketsPage(ctx context.Context, page int) ([]MarketRow, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-markets-page")
	defer span.End()

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_asc")
	q.Set("per_page", "250")
	q.Set("page", strconv.Itoa(page))
	q.Set("sparkline", "false")

	body, err := p.doRequest(ctx, p.baseURL+"/coins/markets?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch markets page %d: %w", page, err)
	}
	return parseMarketRows(body)
}

// FetchMarketsByIDs fetches market data for specific coin IDs (max ~250 per call).
func (p *CoinGeckoProvider) FetchMarketsByIDs(ctx context.Context, ids []string) ([]MarketRow, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-markets-by-ids")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("ids", strings.Join(ids, ","))
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(len(ids)))
	q.Set("page", "1")
	q.Set("sparkline", "false")

	body, err := p.doRequest(ctx, p.baseURL+"/coins/markets?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch markets by ids: %w", err)
	}
	return parseMarketRows(body)
}

func parseMarketRows(body []byte) ([]MarketRow, error) {
	var raw []struct {
		ID        string   `json:"id"`
		Symbol    string   `json:"symbol"`
		MarketCap *float64 `json:"market_cap"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse market rows: %w", err)
	}

	out := make([]MarketRow, 0, len(raw))
	for _, row := range raw {
		if row.Symbol == "" || row.MarketCap == nil {
			// Null caps are dropped here so absence stays distinguishable
			// from zero downstream.
			continue
		}
		out = append(out, MarketRow{
			ID:        row.ID,
			Symbol:    strings.ToUpper(row.Symbol),
			MarketCap: *row.MarketCap,
		})
	}
	return out, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
