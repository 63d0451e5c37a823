package feed

import (
	"context"
	"errors"
	"sort"
	"sync"

	"advisor/pkg/model"
)

// ErrUnknownSymbol is returned when a symbol does not exist at all, as
// opposed to a known symbol with an empty series
var ErrUnknownSymbol = errors.New("unknown symbol")

// Supplier provides ascending daily price series for symbols. Fetching from
// a live market-data provider happens behind this seam; the engines only
// consume already-fetched series.
type Supplier interface {
	// Bars returns up to lookback daily bars for the symbol, oldest first
	Bars(ctx context.Context, symbol string, lookback int) ([]model.PriceBar, error)
}

// StaticSupplier serves pre-loaded series from memory
type StaticSupplier struct {
	mu     sync.RWMutex
	series map[string][]model.PriceBar
}

// NewStaticSupplier creates an empty in-memory supplier
func NewStaticSupplier() *StaticSupplier {
	return &StaticSupplier{series: make(map[string][]model.PriceBar)}
}

// Put stores the series for a symbol, sorted ascending by date
func (s *StaticSupplier) Put(symbol string, bars []model.PriceBar) {
	sorted := make([]model.PriceBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[symbol] = sorted
}

// Bars implements Supplier
func (s *StaticSupplier) Bars(ctx context.Context, symbol string, lookback int) ([]model.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	bars, ok := s.series[symbol]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownSymbol
	}

	if lookback > 0 && len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	out := make([]model.PriceBar, len(bars))
	copy(out, bars)
	return out, nil
}
