package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "REDIS_URL",
		"MIN_MARKET_CAP", "MAX_MARKET_CAP", "SKIP_IF_24H_GAIN_PCT",
		"COINGECKO_PAGES", "COINGECKO_EXCHANGE_PAGES", "COINGECKO_EXCHANGE_ID",
		"SCAN_INTERVAL_SECS", "MIN_SCORE", "SCORE_WORKERS", "CANDLE_LIMIT",
		"GEMINI_API_KEY", "HTTP_PORT", "API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.MinMarketCap != 5_000_000 || cfg.MaxMarketCap != 250_000_000 {
		t.Fatalf("unexpected cap defaults: %f..%f", cfg.MinMarketCap, cfg.MaxMarketCap)
	}
	if cfg.SkipIf24hGainPct != 30 {
		t.Fatalf("unexpected gain ceiling: %f", cfg.SkipIf24hGainPct)
	}
	if cfg.CoinGeckoPages != 8 || cfg.CoinGeckoExchangePages != 5 {
		t.Fatalf("unexpected page defaults: %d/%d", cfg.CoinGeckoPages, cfg.CoinGeckoExchangePages)
	}
	if cfg.ExchangeID != "bitget" {
		t.Fatalf("unexpected exchange: %s", cfg.ExchangeID)
	}
	if cfg.ScanIntervalSecs != 300 || cfg.MinScore != 5 || cfg.ScoreWorkers != 6 || cfg.CandleLimit != 300 {
		t.Fatalf("unexpected scan defaults: %+v", cfg)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("unexpected port: %d", cfg.HTTPPort)
	}
	if cfg.NotifierConfigured() {
		t.Fatal("notifier should not be configured without credentials")
	}
	if cfg.EnhancedPassEnabled() {
		t.Fatal("enhanced pass should be off without a key")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("MIN_MARKET_CAP", "1000000")
	t.Setenv("MAX_MARKET_CAP", "90000000")
	t.Setenv("SKIP_IF_24H_GAIN_PCT", "20")
	t.Setenv("COINGECKO_EXCHANGE_ID", "binance")
	t.Setenv("SCAN_INTERVAL_SECS", "60")
	t.Setenv("MIN_SCORE", "6")
	t.Setenv("SCORE_WORKERS", "4")
	t.Setenv("CANDLE_LIMIT", "120")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("HTTP_PORT", "9090")

	cfg := Load()
	if cfg.TelegramChatID != -100123 {
		t.Fatalf("unexpected chat id: %d", cfg.TelegramChatID)
	}
	if !cfg.NotifierConfigured() {
		t.Fatal("notifier should be configured")
	}
	if cfg.MinMarketCap != 1_000_000 || cfg.MaxMarketCap != 90_000_000 {
		t.Fatalf("cap overrides not applied: %f..%f", cfg.MinMarketCap, cfg.MaxMarketCap)
	}
	if cfg.SkipIf24hGainPct != 20 || cfg.ExchangeID != "binance" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ScanIntervalSecs != 60 || cfg.MinScore != 6 || cfg.ScoreWorkers != 4 || cfg.CandleLimit != 120 {
		t.Fatalf("scan overrides not applied: %+v", cfg)
	}
	if !cfg.EnhancedPassEnabled() {
		t.Fatal("enhanced pass should be on with a key")
	}
	if cfg.HTTPPort != 9090 {
		t.Fatalf("port override not applied: %d", cfg.HTTPPort)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	t.Setenv("MIN_MARKET_CAP", "-5")
	t.Setenv("SCORE_WORKERS", "100") // above cap
	t.Setenv("CANDLE_LIMIT", "10")   // below floor
	t.Setenv("HTTP_PORT", "zero")

	cfg := Load()
	if cfg.TelegramChatID != 0 {
		t.Fatalf("invalid chat id should stay zero, got %d", cfg.TelegramChatID)
	}
	if cfg.MinMarketCap != 5_000_000 {
		t.Fatalf("negative cap should fall back, got %f", cfg.MinMarketCap)
	}
	if cfg.ScoreWorkers != 6 {
		t.Fatalf("oversized worker count should fall back, got %d", cfg.ScoreWorkers)
	}
	if cfg.CandleLimit != 300 {
		t.Fatalf("tiny candle limit should fall back, got %d", cfg.CandleLimit)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("invalid port should fall back, got %d", cfg.HTTPPort)
	}
}
