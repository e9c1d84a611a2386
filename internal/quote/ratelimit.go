package quote

import (
	"context"
	"sync"
	"time"

	"github.com/stockpulse/dashboard-engine/internal/model"
)

// TokenBucket is a simple token-bucket limiter: rate tokens per second with
// a burst capacity. It starts full to allow an initial burst.
type TokenBucket struct {
	rate     float64
	capacity float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a limiter with the given refill rate and burst.
func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		tokens:   float64(burst),
		last:     time.Now(),
	}
}

// Wait blocks until one token is available or the context is cancelled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		now := time.Now()
		if elapsed := now.Sub(tb.last).Seconds(); elapsed > 0 {
			tb.tokens += elapsed * tb.rate
			if tb.tokens > tb.capacity {
				tb.tokens = tb.capacity
			}
			tb.last = now
		}
		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		deficit := 1 - tb.tokens
		tb.mu.Unlock()

		wait := time.Duration(deficit / tb.rate * float64(time.Second))
		if wait <= 0 {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RateLimited wraps a Provider and gates each fetch on a token bucket so the
// upstream quota is respected regardless of how many pollers share it.
type RateLimited struct {
	next   Provider
	bucket *TokenBucket
}

// NewRateLimited creates a rate-limiting decorator around next.
func NewRateLimited(next Provider, tokensPerSecond float64, burst int) *RateLimited {
	return &RateLimited{next: next, bucket: NewTokenBucket(tokensPerSecond, burst)}
}

func (r *RateLimited) Name() string { return r.next.Name() }

func (r *RateLimited) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	if err := r.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.GetQuote(ctx, symbol)
}
