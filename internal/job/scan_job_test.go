package job

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"smallcap-radar/internal/domain"
	"smallcap-radar/internal/screener"

	"go.opentelemetry.io/otel/trace"
)

type stubTickers struct {
	tickers []domain.Ticker
	err     error
}

func (s *stubTickers) FetchTickers(ctx context.Context) ([]domain.Ticker, error) {
	return s.tickers, s.err
}

type stubResolver struct {
	caps domain.CapMap
}

func (s *stubResolver) Resolve(ctx context.Context, exchangePages, marketPages int) domain.CapMap {
	return s.caps
}

// stubScorer scores by a fixed per-symbol table. Unknown symbols are skipped,
// "PANIC" panics.
type stubScorer struct {
	scores map[string]float64
}

func (s *stubScorer) Score(ctx context.Context, cand domain.Candidate) (*domain.Candidate, error) {
	if cand.Symbol == "PANICUSDT" {
		panic("bad series")
	}
	score, ok := s.scores[cand.Symbol]
	if !ok {
		return nil, nil
	}
	cand.Score = score
	cand.Conditions = map[string]bool{domain.CondRSICross50: true}
	cand.Indicators = map[string]float64{"rsi": 55}
	return &cand, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *recordingNotifier) Send(text string, useMarkup bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, text)
	return nil
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	copy(out, n.sent)
	return out
}

func defaultOptions() Options {
	return Options{
		Thresholds: screener.Thresholds{
			MinMarketCap:     5_000_000,
			MaxMarketCap:     250_000_000,
			SkipIf24hGainPct: 30,
		},
		ExchangePages: 1,
		MarketPages:   1,
		MinScore:      5,
		Workers:       2,
	}
}

func newTestJob(tickers TickerSource, resolver CapResolver, scorer CandidateScorer, notifier Notifier, opts Options) *ScanJob {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	return NewScanJob(tracer, tickers, resolver, scorer, notifier, opts, 8)
}

func threeTickers() *stubTickers {
	return &stubTickers{tickers: []domain.Ticker{
		{Symbol: "AAAUSDT", LastPrice: 1},
		{Symbol: "BBBUSDT", LastPrice: 2},
		{Symbol: "CCCUSDT", LastPrice: 3},
	}}
}

func threeCaps() *stubResolver {
	return &stubResolver{caps: domain.CapMap{
		"AAA": 10_000_000,
		"BBB": 20_000_000,
		"CCC": 30_000_000,
	}}
}

func TestRunCycleSendsPassingAlerts(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{
		"AAAUSDT": 6,
		"BBBUSDT": 4, // below MinScore
		"CCCUSDT": 7,
	}}
	notifier := &recordingNotifier{}
	j := newTestJob(threeTickers(), threeCaps(), scorer, notifier, defaultOptions())

	j.RunCycle(context.Background())

	msgs := notifier.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(msgs))
	}
	// Descending score: CCC (7) before AAA (6).
	if !strings.Contains(msgs[0], "CCC") || !strings.Contains(msgs[1], "AAA") {
		t.Fatalf("unexpected send order:\n%s\n---\n%s", msgs[0], msgs[1])
	}

	stats := j.LastCycle()
	if stats.Tickers != 3 || stats.Filtered != 3 || stats.Scored != 3 || stats.Passing != 2 || stats.AlertsSent != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Cycles != 1 {
		t.Fatalf("expected cycle counter 1, got %d", stats.Cycles)
	}
}

func TestRunCycleTieBreaksBySymbol(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{
		"AAAUSDT": 6,
		"BBBUSDT": 6,
		"CCCUSDT": 6,
	}}
	notifier := &recordingNotifier{}
	j := newTestJob(threeTickers(), threeCaps(), scorer, notifier, defaultOptions())

	j.RunCycle(context.Background())

	msgs := notifier.messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(msgs))
	}
	for i, base := range []string{"AAA", "BBB", "CCC"} {
		if !strings.Contains(msgs[i], base) {
			t.Fatalf("expected %s at position %d:\n%s", base, i, msgs[i])
		}
	}
}

func TestRunCycleEnhancedPassDoublesAlerts(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{"AAAUSDT": 6}}
	notifier := &recordingNotifier{}
	opts := defaultOptions()
	opts.EnhancedPass = true
	j := newTestJob(threeTickers(), threeCaps(), scorer, notifier, opts)

	j.RunCycle(context.Background())

	msgs := notifier.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected manual + enhanced alerts, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0], screener.PassManual) {
		t.Fatalf("first alert should be the manual pass:\n%s", msgs[0])
	}
	if !strings.Contains(msgs[1], screener.PassEnhanced) {
		t.Fatalf("second alert should be the enhanced pass:\n%s", msgs[1])
	}
	if j.LastCycle().AlertsSent != 2 {
		t.Fatalf("expected 2 alerts sent, got %d", j.LastCycle().AlertsSent)
	}
}

func TestRunCycleDegradesOnTickerFailure(t *testing.T) {
	tickers := &stubTickers{err: errors.New("exchange down")}
	notifier := &recordingNotifier{}
	j := newTestJob(tickers, threeCaps(), &stubScorer{}, notifier, defaultOptions())

	j.RunCycle(context.Background())

	if len(notifier.messages()) != 0 {
		t.Fatal("no alerts expected on a degraded cycle")
	}
	stats := j.LastCycle()
	if stats.Cycles != 1 || stats.Tickers != 0 {
		t.Fatalf("degraded cycle should still record: %+v", stats)
	}
}

func TestRunCycleEmptyCapMap(t *testing.T) {
	notifier := &recordingNotifier{}
	j := newTestJob(threeTickers(), &stubResolver{caps: domain.CapMap{}}, &stubScorer{}, notifier, defaultOptions())

	j.RunCycle(context.Background())

	stats := j.LastCycle()
	if stats.Filtered != 0 || stats.AlertsSent != 0 {
		t.Fatalf("empty cap map should exclude everything: %+v", stats)
	}
}

func TestRunCycleContainsScorerPanic(t *testing.T) {
	tickers := &stubTickers{tickers: []domain.Ticker{
		{Symbol: "AAAUSDT", LastPrice: 1},
		{Symbol: "PANICUSDT", LastPrice: 2},
	}}
	resolver := &stubResolver{caps: domain.CapMap{"AAA": 10_000_000, "PANIC": 10_000_000}}
	scorer := &stubScorer{scores: map[string]float64{"AAAUSDT": 6}}
	notifier := &recordingNotifier{}
	j := newTestJob(tickers, resolver, scorer, notifier, defaultOptions())

	j.RunCycle(context.Background())

	msgs := notifier.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "AAA") {
		t.Fatalf("panic in one candidate must not sink the cycle, got %v", msgs)
	}
}

func TestRunCycleNilNotifier(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{"AAAUSDT": 6}}
	j := newTestJob(threeTickers(), threeCaps(), scorer, nil, defaultOptions())

	j.RunCycle(context.Background())

	stats := j.LastCycle()
	if stats.Passing != 1 || stats.AlertsSent != 0 {
		t.Fatalf("nil notifier computes but does not send: %+v", stats)
	}
}

func TestRunCycleSendFailureCounts(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{"AAAUSDT": 6}}
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	j := newTestJob(threeTickers(), threeCaps(), scorer, notifier, defaultOptions())

	j.RunCycle(context.Background())

	stats := j.LastCycle()
	if stats.Passing != 1 || stats.AlertsSent != 0 {
		t.Fatalf("failed sends must not count: %+v", stats)
	}
}

func TestRunCycleDeterministicAcrossRuns(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{
		"AAAUSDT": 6, "BBBUSDT": 7, "CCCUSDT": 5,
	}}
	notifier := &recordingNotifier{}
	j := newTestJob(threeTickers(), threeCaps(), scorer, notifier, defaultOptions())

	j.RunCycle(context.Background())
	first := j.LastCandidates()
	j.RunCycle(context.Background())
	second := j.LastCandidates()

	if len(first) != len(second) {
		t.Fatalf("cycle results differ in size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Symbol != second[i].Symbol || first[i].Score != second[i].Score {
			t.Fatalf("cycle results differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	if j.LastCycle().Cycles != 2 {
		t.Fatalf("expected 2 cycles, got %d", j.LastCycle().Cycles)
	}
}

func TestStatusLine(t *testing.T) {
	j := newTestJob(threeTickers(), threeCaps(), &stubScorer{}, nil, defaultOptions())
	if got := j.StatusLine(); got != "no scan cycle completed yet" {
		t.Fatalf("unexpected initial status: %s", got)
	}

	j.RunCycle(context.Background())
	if got := j.StatusLine(); !strings.Contains(got, "cycle 1") {
		t.Fatalf("unexpected status after cycle: %s", got)
	}
}
