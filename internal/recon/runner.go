package recon

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"advisor/internal/feed"
	"advisor/internal/store"
	"advisor/pkg/model"
)

// BatchOutcome is the result of one reconciliation run
type BatchOutcome struct {
	StartedAt time.Time                    `json:"started_at"`
	Updated   []model.ReconciliationRecord `json:"updated"`
	Failures  []model.SymbolFailure        `json:"failures"`
	Report    Report                       `json:"report"`
}

// Runner advances reconciliation records against fresh price history.
// Updates for a single symbol go through the store, which serializes
// writers; different symbols are independent.
type Runner struct {
	engine   *Engine
	store    store.Store
	supplier feed.Supplier
}

// NewRunner creates a reconciliation runner
func NewRunner(engine *Engine, st store.Store, supplier feed.Supplier) *Runner {
	return &Runner{engine: engine, store: st, supplier: supplier}
}

// Run reconciles every tracked recommendation and returns the updated
// records plus the aggregate performance report. Per-symbol failures are
// reported, never fatal.
func (r *Runner) Run(ctx context.Context) (*BatchOutcome, error) {
	outcome := &BatchOutcome{StartedAt: time.Now()}

	latest, err := r.store.AllLatest()
	if err != nil {
		return nil, err
	}

	for _, rec := range latest {
		if err := ctx.Err(); err != nil {
			break
		}

		record, ok, err := r.store.Reconciliation(rec.Symbol, rec.AsOfDate)
		if err != nil {
			outcome.Failures = append(outcome.Failures, model.SymbolFailure{Symbol: rec.Symbol, Reason: err.Error()})
			continue
		}
		if !ok {
			record = NewRecord(rec)
		}
		if record.Status.Terminal() {
			continue
		}

		// Lookback long enough to cover the full horizon after AsOfDate
		bars, err := r.supplier.Bars(ctx, rec.Symbol, 0)
		if err != nil {
			outcome.Failures = append(outcome.Failures, model.SymbolFailure{Symbol: rec.Symbol, Reason: err.Error()})
			continue
		}

		updated := r.engine.Evaluate(record, bars)
		if updated == record && ok {
			continue
		}

		if err := r.store.PutReconciliation(updated); err != nil {
			if errors.Is(err, store.ErrTerminalRecord) {
				// conflict already logged by the store; never overwritten
				continue
			}
			outcome.Failures = append(outcome.Failures, model.SymbolFailure{Symbol: rec.Symbol, Reason: err.Error()})
			continue
		}
		outcome.Updated = append(outcome.Updated, updated)

		if updated.Status.Terminal() {
			log.Info().
				Str("symbol", updated.Symbol).
				Str("status", string(updated.Status)).
				Int("days", updated.DaysElapsed).
				Msg("recommendation resolved")
		}
	}

	all, err := r.store.Reconciliations()
	if err != nil {
		return nil, err
	}
	outcome.Report = Summarize(all)
	return outcome, nil
}
