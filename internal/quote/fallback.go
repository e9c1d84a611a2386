package quote

import (
	"context"
	"log/slog"
	"time"

	"github.com/stockpulse/dashboard-engine/internal/metrics"
	"github.com/stockpulse/dashboard-engine/internal/model"
)

// Fallback wraps a Provider and converts every failure into a synthetic
// quote. Callers that aggregate many symbols never see an error from market
// data; they see a quote flagged SourceSynthetic instead. Each fetch is
// bounded by the configured timeout so a slow upstream cannot stall a poll.
type Fallback struct {
	next    Provider
	timeout time.Duration
	logger  *slog.Logger
}

// NewFallback creates the degrade-to-synthetic decorator. A zero timeout
// means the caller's context deadline applies unchanged.
func NewFallback(next Provider, timeout time.Duration, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{next: next, timeout: timeout, logger: logger}
}

func (f *Fallback) Name() string { return f.next.Name() }

// GetQuote never returns an error. Upstream failures are logged, counted,
// and replaced with a synthetic quote for the same symbol.
func (f *Fallback) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	q, err := f.next.GetQuote(ctx, symbol)
	if err != nil {
		f.logger.Warn("quote fetch failed, serving synthetic",
			"symbol", symbol,
			"provider", f.next.Name(),
			"err", err,
		)
		metrics.QuoteFetches.WithLabelValues(string(model.SourceSynthetic)).Inc()
		return Synthetic(symbol), nil
	}

	metrics.QuoteFetches.WithLabelValues(string(q.Source)).Inc()
	return q, nil
}
