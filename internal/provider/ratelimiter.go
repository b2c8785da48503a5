package provider

import (
	"context"
	"sync"
	"time"
)

// Rate presets for the two public APIs the scanner polls. Bitget allows 20
// req/s on market data; CoinGecko's free tier sustains roughly 8 per minute.
// Both are set slightly under the published budget.
func newBitgetLimiter() *RateLimiter    { return NewRateLimiter(18, 1100*time.Millisecond) }
func newCoinGeckoLimiter() *RateLimiter { return NewRateLimiter(8, 7500*time.Millisecond) }

// RateLimiter is a token bucket: up to burst calls pass immediately, then one
// more token accrues per interval. Safe for concurrent use.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   int
	burst    int
	interval time.Duration
	last     time.Time
}

func NewRateLimiter(burst int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   burst,
		burst:    burst,
		interval: interval,
		last:     time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (l *RateLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens > 0 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.interval):
		}
	}
}

// refill credits whole intervals elapsed since the last refill, capped at
// burst. Caller holds the mutex.
func (l *RateLimiter) refill() {
	elapsed := time.Since(l.last)
	credits := int(elapsed / l.interval)
	if credits > 0 {
		l.tokens += credits
		if l.tokens > l.burst {
			l.tokens = l.burst
		}
		l.last = l.last.Add(time.Duration(credits) * l.interval)
	}
}
