package recon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisor/pkg/model"
)

var asOf = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

func longRecord() model.ReconciliationRecord {
	return model.ReconciliationRecord{
		Symbol:      "AAPL",
		AsOfDate:    asOf,
		Tier:        model.TierStrongBuy,
		TargetPrice: 120,
		StopLoss:    90,
		Status:      model.StatusInTransit,
	}
}

func shortRecord() model.ReconciliationRecord {
	return model.ReconciliationRecord{
		Symbol:      "XYZ",
		AsOfDate:    asOf,
		Tier:        model.TierSell,
		TargetPrice: 47.50,
		StopLoss:    52.50,
		Status:      model.StatusInTransit,
	}
}

// bar builds one daily bar n trading days after asOf
func bar(n int, high, low float64) model.PriceBar {
	return model.PriceBar{
		Date:  asOf.AddDate(0, 0, n),
		Open:  (high + low) / 2,
		High:  high,
		Low:   low,
		Close: (high + low) / 2,
	}
}

func flatSeries(n int, high, low float64) []model.PriceBar {
	bars := make([]model.PriceBar, n)
	for i := range bars {
		bars[i] = bar(i+1, high, low)
	}
	return bars
}

func TestEvaluate_TargetMet(t *testing.T) {
	e := NewEngine(0)

	rec := e.Evaluate(longRecord(), []model.PriceBar{
		bar(1, 110, 100),
		bar(2, 121, 111), // high touches target
		bar(3, 130, 125),
	})

	assert.Equal(t, model.StatusTargetMet, rec.Status)
	assert.Equal(t, 2, rec.DaysElapsed)
	assert.Equal(t, asOf.AddDate(0, 0, 2), rec.ResultDate)
}

func TestEvaluate_StopLossHit(t *testing.T) {
	e := NewEngine(0)

	rec := e.Evaluate(longRecord(), []model.PriceBar{
		bar(1, 110, 100),
		bar(2, 105, 89), // low breaches stop
	})

	assert.Equal(t, model.StatusStopLossHit, rec.Status)
	assert.Equal(t, 2, rec.DaysElapsed)
}

func TestEvaluate_TieBreakFavorsStop(t *testing.T) {
	e := NewEngine(0)

	// one bar spans both levels
	rec := e.Evaluate(longRecord(), []model.PriceBar{bar(1, 125, 85)})

	assert.Equal(t, model.StatusStopLossHit, rec.Status,
		"a bar reaching both levels resolves to the stop")
}

func TestEvaluate_ShortBias(t *testing.T) {
	e := NewEngine(0)

	// target is below entry, stop above
	hit := e.Evaluate(shortRecord(), []model.PriceBar{bar(1, 49, 47)})
	assert.Equal(t, model.StatusTargetMet, hit.Status)

	stopped := e.Evaluate(shortRecord(), []model.PriceBar{bar(1, 53, 50)})
	assert.Equal(t, model.StatusStopLossHit, stopped.Status)

	tied := e.Evaluate(shortRecord(), []model.PriceBar{bar(1, 53, 47)})
	assert.Equal(t, model.StatusStopLossHit, tied.Status)
}

func TestEvaluate_StaysInTransit(t *testing.T) {
	e := NewEngine(0)

	rec := e.Evaluate(longRecord(), flatSeries(5, 110, 100))

	assert.Equal(t, model.StatusInTransit, rec.Status)
	assert.Equal(t, 5, rec.DaysElapsed)
	assert.True(t, rec.ResultDate.IsZero())
}

func TestEvaluate_IgnoresBarsOnOrBeforeAsOfDate(t *testing.T) {
	e := NewEngine(0)

	rec := e.Evaluate(longRecord(), []model.PriceBar{
		bar(-3, 150, 140), // stale bar would have met the target
		bar(0, 150, 140),  // the as-of bar itself
		bar(1, 110, 100),
	})

	assert.Equal(t, model.StatusInTransit, rec.Status)
	assert.Equal(t, 1, rec.DaysElapsed)
}

func TestEvaluate_ExpiresAtHorizon(t *testing.T) {
	e := NewEngine(DefaultHorizonDays)

	rec := e.Evaluate(longRecord(), flatSeries(1004, 110, 100))

	assert.Equal(t, model.StatusExpired, rec.Status)
	assert.Equal(t, DefaultHorizonDays, rec.DaysElapsed)
	assert.Equal(t, asOf.AddDate(0, 0, DefaultHorizonDays), rec.ResultDate)
}

func TestEvaluate_ResolutionInsideHorizonBeatsExpiry(t *testing.T) {
	e := NewEngine(DefaultHorizonDays)

	bars := flatSeries(1004, 110, 100)
	bars[999] = bar(1000, 125, 115) // day 1000 is still inside the horizon

	rec := e.Evaluate(longRecord(), bars)

	assert.Equal(t, model.StatusTargetMet, rec.Status)
	assert.Equal(t, 1000, rec.DaysElapsed)
}

func TestEvaluate_ResumesWithoutRecountingDays(t *testing.T) {
	e := NewEngine(0)

	first := e.Evaluate(longRecord(), flatSeries(3, 110, 100))
	require.Equal(t, 3, first.DaysElapsed)

	// second run sees the same prefix plus two new bars
	bars := flatSeries(5, 110, 100)
	bars[4] = bar(5, 121, 111)
	second := e.Evaluate(first, bars)

	assert.Equal(t, model.StatusTargetMet, second.Status)
	assert.Equal(t, 5, second.DaysElapsed)
}

func TestEvaluate_TerminalRecordIsUntouched(t *testing.T) {
	e := NewEngine(0)

	done := longRecord()
	done.Status = model.StatusTargetMet
	done.DaysElapsed = 7
	done.ResultDate = asOf.AddDate(0, 0, 7)

	after := e.Evaluate(done, flatSeries(50, 200, 50))

	assert.Equal(t, done, after)
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := NewEngine(0)

	bars := flatSeries(10, 110, 100)
	bars[6] = bar(7, 105, 88)

	once := e.Evaluate(longRecord(), bars)
	twice := e.Evaluate(once, bars)

	assert.Equal(t, once, twice)
}

func TestTransition_Terminal(t *testing.T) {
	e := NewEngine(0)

	rec := longRecord()
	rec.Status = model.StatusExpired

	assert.Equal(t, model.StatusExpired, e.Transition(rec, bar(1, 500, 1), 1))
}

func TestTransition_PastHorizonExpires(t *testing.T) {
	e := NewEngine(10)

	assert.Equal(t, model.StatusExpired, e.Transition(longRecord(), bar(11, 110, 100), 11))
}
