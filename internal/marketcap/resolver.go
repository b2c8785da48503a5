package marketcap

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"smallcap-radar/internal/domain"
	"smallcap-radar/internal/provider"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	capMapCacheTTL = 10 * time.Minute
	idsPerChunk    = 200
)

// CapSource is the paginated market-cap provider consumed by the resolver.
type CapSource interface {
	FetchExchangeTickersPage(ctx context.Context, exchangeID string, page int) ([]provider.ExchangeTicker, error)
	FetchMarketsPage(ctx context.Context, page int) ([]provider.MarketRow, error)
	FetchMarketsByIDs(ctx context.Context, ids []string) ([]provider.MarketRow, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Resolver assembles a base-asset to market-cap mapping from two paginated
// CoinGecko listings. Page failures degrade completeness, never the cycle.
type Resolver struct {
	tracer     trace.Tracer
	source     CapSource
	redis      RedisClient
	exchangeID string
}

func NewResolver(tracer trace.Tracer, source CapSource, redisClient RedisClient, exchangeID string) *Resolver {
	return &Resolver{
		tracer:     tracer,
		source:     source,
		redis:      redisClient,
		exchangeID: exchangeID,
	}
}

// Resolve builds the cap map from exchangePages of exchange-ticker listings
// and marketPages of global market listings. The global listing is
// authoritative when both sources know a symbol. A fully failing provider
// yields an empty map, not an error.
func (r *Resolver) Resolve(ctx context.Context, exchangePages, marketPages int) domain.CapMap {
	ctx, span := r.tracer.Start(ctx, "marketcap.resolve")
	defer span.End()

	if cached := r.getCache(ctx, exchangePages, marketPages); cached != nil {
		log.Printf("Market-cap map served from cache (%d entries)", len(cached))
		return cached
	}

	caps := r.resolveFromExchange(ctx, exchangePages)
	for symbol, cap := range r.resolveFromMarkets(ctx, marketPages) {
		caps[symbol] = cap
	}

	if len(caps) > 0 {
		r.setCache(ctx, exchangePages, marketPages, caps)
	}
	return caps
}

// resolveFromExchange collects coin IDs quoted against stable targets on the
// configured exchange, then resolves their caps in chunked lookups. Duplicate
// symbols keep the largest cap.
func (r *Resolver) resolveFromExchange(ctx context.Context, pages int) domain.CapMap {
	var coinIDs []string
	seen := make(map[string]struct{})
	for page := 1; page <= pages; page++ {
		tickers, err := r.source.FetchExchangeTickersPage(ctx, r.exchangeID, page)
		if err != nil {
			log.Printf("Warning: exchange tickers page %d skipped: %v", page, err)
			continue
		}
		if len(tickers) == 0 {
			break
		}
		for _, t := range tickers {
			if t.CoinID == "" || !domain.IsStableQuote(t.Target) {
				continue
			}
			if _, ok := seen[t.CoinID]; ok {
				continue
			}
			seen[t.CoinID] = struct{}{}
			coinIDs = append(coinIDs, t.CoinID)
		}
	}

	caps := make(domain.CapMap)
	for start := 0; start < len(coinIDs); start += idsPerChunk {
		end := start + idsPerChunk
		if end > len(coinIDs) {
			end = len(coinIDs)
		}
		rows, err := r.source.FetchMarketsByIDs(ctx, coinIDs[start:end])
		if err != nil {
			log.Printf("Warning: markets-by-ids chunk skipped: %v", err)
			continue
		}
		for _, row := range rows {
			if row.MarketCap > caps[row.Symbol] {
				caps[row.Symbol] = row.MarketCap
			}
		}
	}
	return caps
}

// resolveFromMarkets walks the global market listing. Symbols collide across
// chains, so the median cap per symbol is used to damp outliers.
func (r *Resolver) resolveFromMarkets(ctx context.Context, pages int) domain.CapMap {
	bySymbol := make(map[string][]float64)
	for page := 1; page <= pages; page++ {
		rows, err := r.source.FetchMarketsPage(ctx, page)
		if err != nil {
			log.Printf("Warning: markets page %d skipped: %v", page, err)
			continue
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			bySymbol[row.Symbol] = append(bySymbol[row.Symbol], row.MarketCap)
		}
	}

	caps := make(domain.CapMap, len(bySymbol))
	for symbol, values := range bySymbol {
		sort.Float64s(values)
		caps[symbol] = values[len(values)/2]
	}
	return caps
}

func (r *Resolver) cacheKey(exchangePages, marketPages int) string {
	return fmt.Sprintf("capmap:%s:%d:%d", r.exchangeID, exchangePages, marketPages)
}

func (r *Resolver) getCache(ctx context.Context, exchangePages, marketPages int) domain.CapMap {
	if r.redis == nil {
		return nil
	}
	data, err := r.redis.Get(ctx, r.cacheKey(exchangePages, marketPages)).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		log.Printf("redis cache read error: %v", err)
		return nil
	}
	var caps domain.CapMap
	if err := json.Unmarshal(data, &caps); err != nil {
		log.Printf("redis cache decode error: %v", err)
		return nil
	}
	return caps
}

func (r *Resolver) setCache(ctx context.Context, exchangePages, marketPages int, caps domain.CapMap) {
	if r.redis == nil {
		return
	}
	data, err := json.Marshal(caps)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, r.cacheKey(exchangePages, marketPages), data, capMapCacheTTL).Err(); err != nil {
		log.Printf("redis cache write error: %v", err)
	}
}
