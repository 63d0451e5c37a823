package indicator

import (
	"errors"
	"fmt"

	"advisor/pkg/model"
)

// ErrInsufficientData marks an indicator whose required window exceeds the
// available history. The indicator is reported unavailable, not zero.
var ErrInsufficientData = errors.New("insufficient data for indicator window")

// Indicator computes a single value from an ascending price series.
// All windows trail, ending at the latest bar.
type Indicator interface {
	Name() string
	Category() model.Category
	MinBars() int
	Compute(bars []model.PriceBar) (float64, error)
}

// ComputeFunc adapts a plain function into an Indicator
type ComputeFunc func(bars []model.PriceBar) (float64, error)

type funcIndicator struct {
	name     string
	category model.Category
	minBars  int
	fn       ComputeFunc
}

func (f *funcIndicator) Name() string             { return f.name }
func (f *funcIndicator) Category() model.Category { return f.category }
func (f *funcIndicator) MinBars() int             { return f.minBars }

func (f *funcIndicator) Compute(bars []model.PriceBar) (float64, error) {
	if len(bars) < f.minBars {
		return 0, fmt.Errorf("%s needs %d bars, have %d: %w", f.name, f.minBars, len(bars), ErrInsufficientData)
	}
	return f.fn(bars)
}

// Engine holds the indicator registry and computes full indicator sets
type Engine struct {
	indicators []Indicator
}

// NewEngine creates an engine with the full default indicator set registered
func NewEngine() *Engine {
	e := &Engine{}
	e.registerTrend()
	e.registerMomentum()
	e.registerVolatility()
	e.registerVolume()
	return e
}

// Register adds an indicator to the engine
func (e *Engine) Register(ind Indicator) {
	e.indicators = append(e.indicators, ind)
}

func (e *Engine) register(name string, category model.Category, minBars int, fn ComputeFunc) {
	e.Register(&funcIndicator{name: name, category: category, minBars: minBars, fn: fn})
}

// Indicators returns the registered indicators in registration order
func (e *Engine) Indicators() []Indicator {
	return e.indicators
}

// ComputeAll computes every registered indicator against the series.
// Indicators with insufficient history are omitted from the result.
func (e *Engine) ComputeAll(bars []model.PriceBar) model.IndicatorSet {
	set := make(model.IndicatorSet, len(e.indicators))
	for _, ind := range e.indicators {
		value, err := ind.Compute(bars)
		if err != nil {
			continue
		}
		set[ind.Name()] = model.IndicatorValue{
			Name:     ind.Name(),
			Category: ind.Category(),
			Value:    value,
		}
	}
	return set
}
