// Package market aggregates per-symbol quotes into display-ready records for
// the dashboard's fixed index and sector slots. Aggregation is designed to
// never fail: a symbol whose quote cannot be fetched degrades to synthetic
// values for that slot only, and output order always matches the declared
// slot order regardless of which upstream responses land first.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/stockpulse/dashboard-engine/internal/metrics"
	"github.com/stockpulse/dashboard-engine/internal/model"
	"github.com/stockpulse/dashboard-engine/internal/quote"
)

// Slot pairs a ticker symbol with its fixed display label. Slice order is the
// display order; consumers rely on fixed positions.
type Slot struct {
	Symbol string
	Name   string
}

// MarketIndices is the declared index slot configuration. SPY appears twice:
// once as the S&P 500 price slot and once backing the TOTAL VOLUME slot.
var MarketIndices = []Slot{
	{Symbol: "SPY", Name: "S&P 500"},
	{Symbol: "QQQ", Name: "NASDAQ"},
	{Symbol: "DIA", Name: "DOW JONES"},
	{Symbol: "VIX", Name: "VOLATILITY"},
	{Symbol: "SPY", Name: "TOTAL VOLUME"},
	{Symbol: "ACWI", Name: "GLOBAL MARKETS"},
}

// SectorETFs is the declared sector slot configuration.
var SectorETFs = []Slot{
	{Symbol: "XLK", Name: "Technology"},
	{Symbol: "XLV", Name: "Healthcare"},
	{Symbol: "XLF", Name: "Financial"},
	{Symbol: "XLE", Name: "Energy"},
	{Symbol: "XLY", Name: "Consumer"},
	{Symbol: "XLI", Name: "Industrial"},
}

// TrackedSymbols returns the distinct symbols behind the index and sector
// slots, in first-appearance order.
func TrackedSymbols() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, slot := range append(append([]Slot{}, MarketIndices...), SectorETFs...) {
		if _, ok := seen[slot.Symbol]; ok {
			continue
		}
		seen[slot.Symbol] = struct{}{}
		out = append(out, slot.Symbol)
	}
	return out
}

// Aggregator fans out quote fetches across the slot configurations.
type Aggregator struct {
	provider quote.Provider
	indices  []Slot
	sectors  []Slot
	logger   *slog.Logger
}

// NewAggregator creates an aggregator over the standard slot configuration.
func NewAggregator(p quote.Provider, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		provider: p,
		indices:  MarketIndices,
		sectors:  SectorETFs,
		logger:   logger,
	}
}

// Indices returns one record per declared index slot, in declaration order.
// It never fails; slots whose quote cannot be fetched degrade to synthetic
// values independently of their neighbours.
func (a *Aggregator) Indices(ctx context.Context) []model.MarketIndexRecord {
	metrics.AggregationRuns.WithLabelValues("indices").Inc()

	records := make([]model.MarketIndexRecord, len(a.indices))
	var wg sync.WaitGroup
	for i, slot := range a.indices {
		wg.Add(1)
		go func(i int, slot Slot) {
			defer wg.Done()
			records[i] = a.indexRecord(ctx, slot)
		}(i, slot)
	}
	wg.Wait()
	return records
}

func (a *Aggregator) indexRecord(ctx context.Context, slot Slot) model.MarketIndexRecord {
	q, err := a.provider.GetQuote(ctx, slot.Symbol)
	if err != nil || q == nil {
		if err != nil {
			a.logger.Warn("index quote degraded to synthetic", "symbol", slot.Symbol, "err", err)
		}
		return syntheticIndexRecord(slot)
	}
	if q.Source == model.SourceSynthetic {
		return syntheticIndexRecord(slot)
	}

	// Named special-case slots. These bypass normal price formatting and are
	// part of the contract; do not generalize them away.
	switch slot.Name {
	case "TOTAL VOLUME":
		// The quote feed carries no volume, so this slot shows a random
		// magnitude between 1B and 6B.
		volumeInBillions := rand.Float64()*5 + 1
		return model.MarketIndexRecord{
			Symbol:        slot.Symbol,
			Name:          slot.Name,
			Value:         fmt.Sprintf("%.1fB", volumeInBillions),
			Change:        decimal.Zero,
			ChangePercent: decimal.Zero,
			Trend:         model.TrendNeutral,
			Source:        q.Source,
		}
	case "GLOBAL MARKETS":
		return model.MarketIndexRecord{
			Symbol:        slot.Symbol,
			Name:          slot.Name,
			Value:         "ACTIVE",
			Change:        decimal.Zero,
			ChangePercent: decimal.Zero,
			Trend:         model.TrendNeutral,
			Source:        q.Source,
		}
	}

	// VOLATILITY (VIX) takes the same shape as a normal price slot; it is
	// listed as a named case in the contract but formats identically.
	return model.MarketIndexRecord{
		Symbol:        slot.Symbol,
		Name:          slot.Name,
		Value:         q.CurrentPrice.StringFixed(2),
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Trend:         model.TrendOf(q.Change),
		Source:        q.Source,
	}
}

func syntheticIndexRecord(slot Slot) model.MarketIndexRecord {
	q := quote.Synthetic(slot.Symbol)
	return model.MarketIndexRecord{
		Symbol:        slot.Symbol,
		Name:          slot.Name,
		Value:         q.CurrentPrice.StringFixed(2),
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Trend:         model.TrendOf(q.Change),
		Source:        model.SourceSynthetic,
	}
}

// SectorPerformance returns one record per declared sector slot, in
// declaration order. Like Indices, it never fails.
func (a *Aggregator) SectorPerformance(ctx context.Context) []model.SectorPerformanceRecord {
	metrics.AggregationRuns.WithLabelValues("sectors").Inc()

	records := make([]model.SectorPerformanceRecord, len(a.sectors))
	var wg sync.WaitGroup
	for i, slot := range a.sectors {
		wg.Add(1)
		go func(i int, slot Slot) {
			defer wg.Done()
			records[i] = a.sectorRecord(ctx, slot)
		}(i, slot)
	}
	wg.Wait()
	return records
}

func (a *Aggregator) sectorRecord(ctx context.Context, slot Slot) model.SectorPerformanceRecord {
	q, err := a.provider.GetQuote(ctx, slot.Symbol)
	if err != nil || q == nil || q.Source == model.SourceSynthetic {
		if err != nil {
			a.logger.Warn("sector quote degraded to synthetic", "symbol", slot.Symbol, "err", err)
		}
		return syntheticSectorRecord(slot)
	}

	return model.SectorPerformanceRecord{
		Symbol:        slot.Symbol,
		Name:          slot.Name,
		Value:         q.ChangePercent.StringFixed(2) + "%",
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Trend:         model.TrendOf(q.Change),
		Source:        q.Source,
	}
}

// syntheticSectorRecord generates sector fallback values: a change percent
// in (-2%, +2%) with change derived from it.
func syntheticSectorRecord(slot Slot) model.SectorPerformanceRecord {
	changePercent := decimal.NewFromFloat((rand.Float64() - 0.5) * 4)
	change := changePercent.Mul(decimal.NewFromInt(10))
	return model.SectorPerformanceRecord{
		Symbol:        slot.Symbol,
		Name:          slot.Name,
		Value:         changePercent.StringFixed(2) + "%",
		Change:        change,
		ChangePercent: changePercent,
		Trend:         model.TrendOf(change),
		Source:        model.SourceSynthetic,
	}
}
