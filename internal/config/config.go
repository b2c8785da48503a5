package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramBotToken string
	TelegramChatID   int64
	RedisURL         string

	MinMarketCap     float64
	MaxMarketCap     float64
	SkipIf24hGainPct float64

	CoinGeckoPages         int
	CoinGeckoExchangePages int
	ExchangeID             string

	BitgetAPIKey string

	ScanIntervalSecs int
	MinScore         float64
	ScoreWorkers     int
	CandleLimit      int

	GeminiAPIKey string

	HTTPPort int
	APIKey   string
}

// EnhancedPassEnabled reports whether the labeled secondary alert pass runs.
// The pass is a relabeling stub; presence of the key only toggles it.
func (c *Config) EnhancedPassEnabled() bool {
	return strings.TrimSpace(c.GeminiAPIKey) != ""
}

// NotifierConfigured reports whether Telegram delivery credentials are set.
func (c *Config) NotifierConfigured() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:         os.Getenv("REDIS_URL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		APIKey:           os.Getenv("API_KEY"),
		BitgetAPIKey:     os.Getenv("BITGET_API_KEY"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, alerts will be logged only")
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_CHAT_ID %q", v)
		}
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, market-cap cache disabled")
	}

	cfg.MinMarketCap = 5_000_000
	if v := strings.TrimSpace(os.Getenv("MIN_MARKET_CAP")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 0 {
			cfg.MinMarketCap = n
		}
	}

	cfg.MaxMarketCap = 250_000_000
	if v := strings.TrimSpace(os.Getenv("MAX_MARKET_CAP")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.MaxMarketCap = n
		}
	}

	cfg.SkipIf24hGainPct = 30
	if v := strings.TrimSpace(os.Getenv("SKIP_IF_24H_GAIN_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.SkipIf24hGainPct = n
		}
	}

	cfg.CoinGeckoPages = 8
	if v := strings.TrimSpace(os.Getenv("COINGECKO_PAGES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CoinGeckoPages = n
		}
	}

	cfg.CoinGeckoExchangePages = 5
	if v := strings.TrimSpace(os.Getenv("COINGECKO_EXCHANGE_PAGES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CoinGeckoExchangePages = n
		}
	}

	cfg.ExchangeID = strings.TrimSpace(os.Getenv("COINGECKO_EXCHANGE_ID"))
	if cfg.ExchangeID == "" {
		cfg.ExchangeID = "bitget"
	}

	cfg.ScanIntervalSecs = 300
	if v := strings.TrimSpace(os.Getenv("SCAN_INTERVAL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ScanIntervalSecs = n
		}
	}

	cfg.MinScore = 5
	if v := strings.TrimSpace(os.Getenv("MIN_SCORE")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.MinScore = n
		}
	}

	cfg.ScoreWorkers = 6
	if v := strings.TrimSpace(os.Getenv("SCORE_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 32 {
			cfg.ScoreWorkers = n
		}
	}

	cfg.CandleLimit = 300
	if v := strings.TrimSpace(os.Getenv("CANDLE_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 60 {
			cfg.CandleLimit = n
		}
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	return cfg
}
