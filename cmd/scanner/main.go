package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"smallcap-radar/internal/bot"
	"smallcap-radar/internal/cache"
	"smallcap-radar/internal/config"
	"smallcap-radar/internal/handler"
	"smallcap-radar/internal/job"
	"smallcap-radar/internal/marketcap"
	"smallcap-radar/internal/provider"
	"smallcap-radar/internal/screener"
	"smallcap-radar/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initRedisFunc  = cache.InitRedis
	initTracerFunc = tracing.InitTracer
	newBitgetProviderFunc = func(tracer trace.Tracer, apiKey string) job.TickerSource {
		return provider.NewBitgetProvider(tracer).WithAPIKey(apiKey)
	}
	newCandleSourceFunc = func(tracer trace.Tracer, apiKey string) screener.CandleSource {
		return provider.NewBitgetProvider(tracer).WithAPIKey(apiKey)
	}
	newCapSourceFunc = func(tracer trace.Tracer) marketcap.CapSource {
		return provider.NewCoinGeckoProvider(tracer)
	}
	newNotifierFunc = func(token string, chatID int64) (*bot.TelegramNotifier, error) {
		return bot.NewTelegramNotifier(token, chatID)
	}
	startScanJobFunc       = func(j *job.ScanJob, ctx context.Context) { go j.Start(ctx) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Data sources and pipeline components
	tickerSource := newBitgetProviderFunc(tracer, cfg.BitgetAPIKey)
	candleSource := newCandleSourceFunc(tracer, cfg.BitgetAPIKey)
	capSource := newCapSourceFunc(tracer)

	var resolverRedis marketcap.RedisClient
	if redisClient != nil {
		resolverRedis = redisClient
	}
	resolver := marketcap.NewResolver(tracer, capSource, resolverRedis, cfg.ExchangeID)

	weights := screener.DefaultWeights()
	scorer := screener.NewScorer(tracer, candleSource, weights, cfg.CandleLimit)

	// Notifier (optional; nil disables delivery but not scanning)
	notifier, err := newNotifierFunc(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatalf("failed to create Telegram notifier: %v", err)
	}

	opts := job.Options{
		Interval: time.Duration(cfg.ScanIntervalSecs) * time.Second,
		Thresholds: screener.Thresholds{
			MinMarketCap:     cfg.MinMarketCap,
			MaxMarketCap:     cfg.MaxMarketCap,
			SkipIf24hGainPct: cfg.SkipIf24hGainPct,
		},
		ExchangePages: cfg.CoinGeckoExchangePages,
		MarketPages:   cfg.CoinGeckoPages,
		MinScore:      cfg.MinScore,
		Workers:       cfg.ScoreWorkers,
		EnhancedPass:  cfg.EnhancedPassEnabled(),
		UseMarkup:     true,
	}
	if opts.EnhancedPass {
		log.Println("Enhanced analysis pass enabled (relabeling stub)")
	}

	var sink job.Notifier
	if notifier != nil {
		sink = notifier
	}
	scanJob := job.NewScanJob(tracer, tickerSource, resolver, scorer, sink, opts, weights.Max())
	startScanJobFunc(scanJob, ctx)

	if notifier != nil {
		notifier.Start(scanJob)
	}

	h := handler.New(tracer, scanJob)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("smallcap-radar"))
	h.RegisterRoutes(r, cfg.APIKey)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down scanner...")

	cancel()

	if notifier != nil {
		notifier.Stop()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Scanner exiting")
}
