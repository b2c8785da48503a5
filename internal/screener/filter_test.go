package screener

import (
	"testing"

	"smallcap-radar/internal/domain"
)

func TestFilterCapRange(t *testing.T) {
	t.Parallel()

	tickers := []domain.Ticker{
		{Symbol: "LOWUSDT", LastPrice: 1, Change24hPct: 2},
		{Symbol: "MIDUSDT", LastPrice: 2, Change24hPct: 3},
		{Symbol: "BIGUSDT", LastPrice: 3, Change24hPct: 4},
	}
	caps := domain.CapMap{
		"LOW": 4_999_999,
		"MID": 50_000_000,
		"BIG": 250_000_001,
	}
	th := Thresholds{MinMarketCap: 5_000_000, MaxMarketCap: 250_000_000, SkipIf24hGainPct: 30}

	out := Filter(tickers, caps, th)
	if len(out) != 1 || out[0].Base != "MID" {
		t.Fatalf("expected only MID, got %+v", out)
	}
	if out[0].MarketCap != 50_000_000 || out[0].Symbol != "MIDUSDT" {
		t.Fatalf("unexpected candidate: %+v", out[0])
	}
}

func TestFilterBoundsInclusive(t *testing.T) {
	t.Parallel()

	tickers := []domain.Ticker{
		{Symbol: "MINUSDT"},
		{Symbol: "MAXUSDT"},
	}
	caps := domain.CapMap{"MIN": 5_000_000, "MAX": 250_000_000}
	th := Thresholds{MinMarketCap: 5_000_000, MaxMarketCap: 250_000_000, SkipIf24hGainPct: 30}

	if out := Filter(tickers, caps, th); len(out) != 2 {
		t.Fatalf("boundary caps should pass, got %+v", out)
	}
}

func TestFilterGainCeiling(t *testing.T) {
	t.Parallel()

	tickers := []domain.Ticker{
		{Symbol: "HOTUSDT", Change24hPct: 30}, // exactly at ceiling: excluded
		{Symbol: "OKUSDT", Change24hPct: 29.9},
	}
	caps := domain.CapMap{"HOT": 10_000_000, "OK": 10_000_000}
	th := Thresholds{MinMarketCap: 5_000_000, MaxMarketCap: 250_000_000, SkipIf24hGainPct: 30}

	out := Filter(tickers, caps, th)
	if len(out) != 1 || out[0].Base != "OK" {
		t.Fatalf("expected only OK, got %+v", out)
	}
}

func TestFilterMissingCapExcludes(t *testing.T) {
	t.Parallel()

	tickers := []domain.Ticker{{Symbol: "GHOSTUSDT"}}
	th := Thresholds{MinMarketCap: 0, MaxMarketCap: 1e12, SkipIf24hGainPct: 30}

	if out := Filter(tickers, domain.CapMap{}, th); len(out) != 0 {
		t.Fatalf("unknown cap must not pass as zero, got %+v", out)
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	t.Parallel()

	tickers := []domain.Ticker{
		{Symbol: "BBBUSDT"},
		{Symbol: "AAAUSDT"},
		{Symbol: "CCCUSDT"},
	}
	caps := domain.CapMap{"BBB": 10_000_000, "AAA": 10_000_000, "CCC": 10_000_000}
	th := Thresholds{MinMarketCap: 5_000_000, MaxMarketCap: 250_000_000, SkipIf24hGainPct: 30}

	out := Filter(tickers, caps, th)
	if len(out) != 3 || out[0].Base != "BBB" || out[1].Base != "AAA" || out[2].Base != "CCC" {
		t.Fatalf("input order not preserved: %+v", out)
	}
}
