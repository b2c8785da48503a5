package job

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"smallcap-radar/internal/domain"
	"smallcap-radar/internal/screener"

	"go.opentelemetry.io/otel/trace"
)

// TickerSource supplies the exchange's live 24h tickers.
type TickerSource interface {
	FetchTickers(ctx context.Context) ([]domain.Ticker, error)
}

// CapResolver assembles the per-cycle market-cap mapping.
type CapResolver interface {
	Resolve(ctx context.Context, exchangePages, marketPages int) domain.CapMap
}

// CandidateScorer scores one filtered candidate; nil result means skipped.
type CandidateScorer interface {
	Score(ctx context.Context, cand domain.Candidate) (*domain.Candidate, error)
}

// Notifier is the alert sink. A nil Notifier disables delivery.
type Notifier interface {
	Send(text string, useMarkup bool) error
}

// Options holds the per-process scan settings, read once at startup.
type Options struct {
	Interval      time.Duration
	Thresholds    screener.Thresholds
	ExchangePages int
	MarketPages   int
	MinScore      float64
	Workers       int
	EnhancedPass  bool
	UseMarkup     bool
}

// CycleStats summarizes the most recent completed cycle.
type CycleStats struct {
	StartedAt  time.Time `json:"started_at"`
	Duration   string    `json:"duration"`
	Tickers    int       `json:"tickers"`
	CapEntries int       `json:"cap_entries"`
	Filtered   int       `json:"filtered"`
	Scored     int       `json:"scored"`
	Passing    int       `json:"passing"`
	AlertsSent int       `json:"alerts_sent"`
	Cycles     int       `json:"cycles"`
}

// ScanJob runs the scan pipeline on a fixed cadence: fetch tickers, resolve
// caps, filter, score, alert, sleep, repeat. A cycle always completes (with
// whatever degraded data it has); only context cancellation stops the loop.
type ScanJob struct {
	tracer   trace.Tracer
	tickers  TickerSource
	resolver CapResolver
	scorer   CandidateScorer
	notifier Notifier
	opts     Options
	maxScore float64

	mu      sync.Mutex
	last    CycleStats
	passing []domain.Candidate
	cycles  int
}

func NewScanJob(tracer trace.Tracer, tickers TickerSource, resolver CapResolver, scorer CandidateScorer, notifier Notifier, opts Options, maxScore float64) *ScanJob {
	if opts.Workers <= 0 {
		opts.Workers = 6
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	return &ScanJob{
		tracer:   tracer,
		tickers:  tickers,
		resolver: resolver,
		scorer:   scorer,
		notifier: notifier,
		opts:     opts,
		maxScore: maxScore,
	}
}

// Start runs cycles until ctx is cancelled. Blocks.
func (j *ScanJob) Start(ctx context.Context) {
	log.Println("Scanner starting...")

	j.RunCycle(ctx)

	ticker := time.NewTicker(j.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Scanner stopped")
			return
		case <-ticker.C:
			j.RunCycle(ctx)
		}
	}
}

// RunCycle executes one full pipeline pass. Failures inside the cycle degrade
// its output; they never propagate out.
func (j *ScanJob) RunCycle(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "scanner.cycle")
	defer span.End()

	start := time.Now()
	stats := CycleStats{StartedAt: start.UTC()}

	tickers, err := j.tickers.FetchTickers(ctx)
	if err != nil {
		log.Printf("Warning: ticker fetch failed, cycle degraded: %v", err)
	}
	stats.Tickers = len(tickers)

	caps := j.resolver.Resolve(ctx, j.opts.ExchangePages, j.opts.MarketPages)
	stats.CapEntries = len(caps)
	if len(caps) == 0 {
		log.Println("Warning: market-cap mapping is empty, all tickers will be excluded")
	}

	candidates := screener.Filter(tickers, caps, j.opts.Thresholds)
	stats.Filtered = len(candidates)
	log.Printf("Cycle: %d tickers, %d cap entries, %d candidates after filter",
		stats.Tickers, stats.CapEntries, stats.Filtered)

	scored := j.scoreAll(ctx, candidates)
	stats.Scored = len(scored)

	passing := make([]domain.Candidate, 0, len(scored))
	for _, c := range scored {
		if c.Score >= j.opts.MinScore {
			passing = append(passing, c)
		}
	}
	// Deterministic send order: descending score, symbol breaks ties.
	sort.Slice(passing, func(a, b int) bool {
		if passing[a].Score != passing[b].Score {
			return passing[a].Score > passing[b].Score
		}
		return passing[a].Symbol < passing[b].Symbol
	})
	stats.Passing = len(passing)

	if ctx.Err() != nil {
		log.Println("Cycle interrupted, skipping alert delivery")
		j.record(stats, passing, start)
		return
	}

	stats.AlertsSent = j.deliver(passing)

	j.record(stats, passing, start)
	if stats.Passing == 0 {
		log.Println("No alerts this cycle")
	}
}

// scoreAll scores candidates through a bounded worker pool. Results keep the
// input slice's positions so output is deterministic regardless of worker
// interleaving. A panic while scoring one candidate is contained to that
// candidate.
func (j *ScanJob) scoreAll(ctx context.Context, candidates []domain.Candidate) []domain.Candidate {
	results := make([]*domain.Candidate, len(candidates))

	var wg sync.WaitGroup
	sem := make(chan struct{}, j.opts.Workers)

	for i, cand := range candidates {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, cand domain.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Warning: scoring %s panicked, candidate skipped: %v", cand.Symbol, r)
				}
			}()

			scored, err := j.scorer.Score(ctx, cand)
			if err != nil {
				log.Printf("Warning: scoring %s failed: %v", cand.Symbol, err)
				return
			}
			if scored == nil {
				return
			}
			results[i] = scored
		}(i, cand)
	}
	wg.Wait()

	out := make([]domain.Candidate, 0, len(candidates))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// deliver formats and sends alerts for the passing candidates, then runs the
// relabeled enhanced pass when enabled. The enhanced pass performs no extra
// computation; it is a stub strategy that a real analysis backend can
// replace. Returns the number of successful sends.
func (j *ScanJob) deliver(passing []domain.Candidate) int {
	if len(passing) == 0 {
		return 0
	}
	if j.notifier == nil {
		log.Printf("Telegram not configured: %d alert(s) computed but not delivered", len(passing))
		for _, c := range passing {
			log.Printf("Alert (undelivered):\n%s", screener.FormatAlert(c, screener.PassManual, false, j.maxScore))
		}
		return 0
	}

	sent := 0
	labels := []string{screener.PassManual}
	if j.opts.EnhancedPass {
		labels = append(labels, screener.PassEnhanced)
	}
	for _, label := range labels {
		for _, c := range passing {
			msg := screener.FormatAlert(c, label, j.opts.UseMarkup, j.maxScore)
			if err := j.notifier.Send(msg, j.opts.UseMarkup); err != nil {
				log.Printf("Warning: alert for %s [%s] dropped: %v", c.Base, label, err)
				continue
			}
			log.Printf("Sent alert for %s [%s]", c.Base, label)
			sent++
		}
	}
	return sent
}

func (j *ScanJob) record(stats CycleStats, passing []domain.Candidate, start time.Time) {
	stats.Duration = time.Since(start).Round(time.Millisecond).String()

	j.mu.Lock()
	defer j.mu.Unlock()
	j.cycles++
	stats.Cycles = j.cycles
	j.last = stats
	j.passing = passing
}

// LastCycle returns a copy of the most recent cycle's stats.
func (j *ScanJob) LastCycle() CycleStats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

// LastCandidates returns the passing candidates from the most recent cycle.
func (j *ScanJob) LastCandidates() []domain.Candidate {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]domain.Candidate, len(j.passing))
	copy(out, j.passing)
	return out
}

// StatusLine renders a one-line summary for the Telegram /status command.
func (j *ScanJob) StatusLine() string {
	stats := j.LastCycle()
	if stats.Cycles == 0 {
		return "no scan cycle completed yet"
	}
	return fmt.Sprintf("cycle %d: %d tickers, %d candidates, %d passing, %d alerts sent (%s)",
		stats.Cycles, stats.Tickers, stats.Filtered, stats.Passing, stats.AlertsSent, stats.Duration)
}
