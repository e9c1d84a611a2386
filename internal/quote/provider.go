// Package quote wraps the upstream market-data source behind a small Provider
// interface and a chain of decorators: rate limiting to respect provider
// quotas, and a fallback layer that degrades to clearly-flagged synthetic
// quotes so that callers never see a hard failure for market data.
package quote

import (
	"context"
	"errors"

	"github.com/stockpulse/dashboard-engine/internal/model"
)

// Provider returns a normalized quote for one symbol. Implementations
// uppercase the symbol defensively; callers are responsible for pacing
// unless the provider is wrapped in a rate-limiting decorator.
type Provider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

var (
	// ErrEmptySymbol is returned for a blank or whitespace-only symbol.
	ErrEmptySymbol = errors.New("quote: empty symbol")

	// ErrRateLimited is returned when the upstream rejects the call with a
	// rate-limit status.
	ErrRateLimited = errors.New("quote: upstream rate limited")

	// ErrUnknownSymbol is returned when the upstream has no data for the
	// symbol.
	ErrUnknownSymbol = errors.New("quote: unknown symbol")
)
