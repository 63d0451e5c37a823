package recon

import (
	"advisor/pkg/model"
)

// DefaultHorizonDays is the trading-day horizon after which an unresolved
// recommendation expires
const DefaultHorizonDays = 1000

// Engine classifies recommendation outcomes against subsequent price bars
type Engine struct {
	horizonDays int
}

// NewEngine creates a reconciliation engine with the given trading-day
// horizon
func NewEngine(horizonDays int) *Engine {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Engine{horizonDays: horizonDays}
}

// NewRecord starts an in-transit record for a recommendation
func NewRecord(rec model.Recommendation) model.ReconciliationRecord {
	return model.ReconciliationRecord{
		Symbol:      rec.Symbol,
		AsOfDate:    rec.AsOfDate,
		Tier:        rec.Tier,
		TargetPrice: rec.TargetPrice,
		StopLoss:    rec.StopLossPrice,
		Status:      model.StatusInTransit,
	}
}

// Transition applies one bar to an in-transit record and returns the next
// status. day is the 1-based trading-day index of the bar after AsOfDate.
// The transition is pure: it inspects only its arguments.
//
// A bar whose [low, high] range reaches both the target and the stop on the
// same day resolves to stop_loss_hit, the conservative tie-break.
func (e *Engine) Transition(rec model.ReconciliationRecord, bar model.PriceBar, day int) model.ResultStatus {
	if rec.Status.Terminal() {
		return rec.Status
	}
	if day > e.horizonDays {
		return model.StatusExpired
	}

	var targetReached, stopReached bool
	if rec.Tier.LongBiased() {
		targetReached = bar.High >= rec.TargetPrice
		stopReached = bar.Low <= rec.StopLoss
	} else {
		targetReached = bar.Low <= rec.TargetPrice
		stopReached = bar.High >= rec.StopLoss
	}

	switch {
	case stopReached:
		return model.StatusStopLossHit
	case targetReached:
		return model.StatusTargetMet
	default:
		return model.StatusInTransit
	}
}

// Evaluate scans the price history strictly after the record's AsOfDate and
// advances the record to its outcome. Bars at or before AsOfDate are
// ignored. Re-evaluating a terminal record is a no-op; re-evaluating an
// in-transit record only moves it forward, never backward.
func (e *Engine) Evaluate(record model.ReconciliationRecord, bars []model.PriceBar) model.ReconciliationRecord {
	if record.Status.Terminal() {
		return record
	}

	day := 0
	var lastDate = record.AsOfDate
	for _, bar := range bars {
		if !bar.Date.After(record.AsOfDate) {
			continue
		}
		day++
		if day > e.horizonDays {
			break
		}
		lastDate = bar.Date
		if day <= record.DaysElapsed {
			// already examined on a previous run
			continue
		}

		next := e.Transition(record, bar, day)
		record.DaysElapsed = day
		if next != model.StatusInTransit {
			record.Status = next
			record.ResultDate = bar.Date
			return record
		}
	}

	if day >= e.horizonDays {
		record.Status = model.StatusExpired
		record.DaysElapsed = e.horizonDays
		record.ResultDate = lastDate
	}
	return record
}
