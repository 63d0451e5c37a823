package recommend

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"advisor/internal/config"
	"advisor/internal/feed"
	"advisor/internal/indicator"
	"advisor/internal/signal"
	"advisor/pkg/model"
)

// ProgressCallback is called with progress updates during a batch run
type ProgressCallback func(done, total int)

// Runner fans the analysis pipeline out over a symbol universe. Per-symbol
// work is pure given its own series, so symbols are processed by a worker
// pool with no shared mutable state. A slow or failing symbol never blocks
// results for the rest of the batch.
type Runner struct {
	supplier     feed.Supplier
	indicators   *indicator.Engine
	signals      *signal.Engine
	engine       *Engine
	workers      int
	timeout      time.Duration
	lookback     int
	progressFunc ProgressCallback
}

// NewRunner creates a batch runner from validated configuration
func NewRunner(cfg *config.Config, supplier feed.Supplier) *Runner {
	weights := map[model.Category]float64{
		model.CategoryTrend:      cfg.Weights.Trend,
		model.CategoryMomentum:   cfg.Weights.Momentum,
		model.CategoryVolatility: cfg.Weights.Volatility,
		model.CategoryVolume:     cfg.Weights.Volume,
	}
	return &Runner{
		supplier:   supplier,
		indicators: indicator.NewEngine(),
		signals:    signal.NewEngine(weights),
		engine:     NewEngine(cfg),
		workers:    cfg.Runner.Workers,
		timeout:    cfg.Runner.Timeout,
		lookback:   cfg.Runner.Lookback,
	}
}

// SetProgressCallback sets the progress callback function
func (r *Runner) SetProgressCallback(fn ProgressCallback) {
	r.progressFunc = fn
}

type symbolOutcome struct {
	rec     *model.Recommendation
	failure *model.SymbolFailure
}

// Run analyzes every symbol and returns the batch result. Per-symbol errors
// are reported, not fatal; partial results are preserved on cancellation.
func (r *Runner) Run(ctx context.Context, symbols []string) *model.BatchResult {
	started := time.Now()
	result := &model.BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: started,
	}
	if len(symbols) == 0 {
		return result
	}

	jobChan := make(chan string, len(symbols))
	outChan := make(chan symbolOutcome, len(symbols))
	for _, sym := range symbols {
		jobChan <- sym
	}
	close(jobChan)

	var doneCount int64
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				outChan <- r.analyzeOne(ctx, sym)

				count := atomic.AddInt64(&doneCount, 1)
				if r.progressFunc != nil {
					r.progressFunc(int(count), len(symbols))
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outChan)
	}()

	for out := range outChan {
		if out.rec != nil {
			result.Recommendations = append(result.Recommendations, *out.rec)
		}
		if out.failure != nil {
			result.Failures = append(result.Failures, *out.failure)
		}
	}

	sort.Slice(result.Recommendations, func(i, j int) bool {
		return result.Recommendations[i].Score > result.Recommendations[j].Score
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Symbol < result.Failures[j].Symbol
	})

	result.Elapsed = time.Since(started)
	return result
}

// analyzeOne runs the indicator -> signal -> recommendation pipeline for a
// single symbol under its own timeout
func (r *Runner) analyzeOne(ctx context.Context, symbol string) symbolOutcome {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fail := func(reason string) symbolOutcome {
		log.Warn().Str("symbol", symbol).Str("reason", reason).Msg("symbol analysis failed")
		return symbolOutcome{failure: &model.SymbolFailure{Symbol: symbol, Reason: reason}}
	}

	bars, err := r.supplier.Bars(ctx, symbol, r.lookback)
	if err != nil {
		return fail(err.Error())
	}
	if len(bars) == 0 {
		return fail("empty price series")
	}

	latest := bars[len(bars)-1]
	set := r.indicators.ComputeAll(bars)
	breakdown := r.signals.Evaluate(set, latest.Close)

	rec, err := r.engine.Build(symbol, latest.Date, latest.Close, breakdown, set)
	if err != nil {
		return fail(err.Error())
	}

	log.Debug().
		Str("symbol", symbol).
		Float64("score", rec.Score).
		Str("tier", string(rec.Tier)).
		Msg("recommendation generated")
	return symbolOutcome{rec: rec}
}
