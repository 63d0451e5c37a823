package recon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisor/internal/feed"
	"advisor/internal/store"
	"advisor/pkg/model"
)

func newTestStore(t *testing.T) *store.FileStore {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return st
}

func recommendation(symbol string, target, stop float64) model.Recommendation {
	return model.Recommendation{
		Symbol:        symbol,
		AsOfDate:      asOf,
		Tier:          model.TierStrongBuy,
		CurrentPrice:  100,
		TargetPrice:   target,
		StopLossPrice: stop,
	}
}

func TestRunner_ResolvesTrackedRecommendations(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.PutLatest(recommendation("WIN", 120, 90)))
	require.NoError(t, st.PutLatest(recommendation("WAIT", 120, 90)))

	supplier := feed.NewStaticSupplier()
	supplier.Put("WIN", []model.PriceBar{bar(1, 121, 100)})
	supplier.Put("WAIT", flatSeries(3, 110, 100))

	r := NewRunner(NewEngine(0), st, supplier)
	outcome, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, outcome.Failures)
	require.Len(t, outcome.Updated, 2)

	win, ok, err := st.Reconciliation("WIN", asOf)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusTargetMet, win.Status)
	assert.Equal(t, 1, win.DaysElapsed)

	wait, ok, err := st.Reconciliation("WAIT", asOf)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusInTransit, wait.Status)
	assert.Equal(t, 3, wait.DaysElapsed)

	assert.Equal(t, 2, outcome.Report.Total)
	assert.Equal(t, 1, outcome.Report.Evaluable)
	assert.InDelta(t, 1.0, outcome.Report.SuccessRate, 1e-9)
}

func TestRunner_FeedFailureIsReportedNotFatal(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.PutLatest(recommendation("GONE", 120, 90)))
	require.NoError(t, st.PutLatest(recommendation("OK", 120, 90)))

	supplier := feed.NewStaticSupplier()
	supplier.Put("OK", []model.PriceBar{bar(1, 121, 100)})

	r := NewRunner(NewEngine(0), st, supplier)
	outcome, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, "GONE", outcome.Failures[0].Symbol)
	require.Len(t, outcome.Updated, 1)
	assert.Equal(t, "OK", outcome.Updated[0].Symbol)
}

func TestRunner_TerminalRecordsAreSkipped(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.PutLatest(recommendation("DONE", 120, 90)))

	done := NewRecord(recommendation("DONE", 120, 90))
	done.Status = model.StatusTargetMet
	done.DaysElapsed = 4
	done.ResultDate = asOf.AddDate(0, 0, 4)
	require.NoError(t, st.PutReconciliation(done))

	// no series registered: touching the feed for DONE would fail the run
	r := NewRunner(NewEngine(0), st, feed.NewStaticSupplier())
	outcome, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, outcome.Failures)
	assert.Empty(t, outcome.Updated)
	assert.Equal(t, 1, outcome.Report.StatusCount[model.StatusTargetMet])
}

func TestRunner_SecondRunAdvancesInTransit(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.PutLatest(recommendation("SLOW", 120, 90)))

	supplier := feed.NewStaticSupplier()
	supplier.Put("SLOW", flatSeries(2, 110, 100))

	r := NewRunner(NewEngine(0), st, supplier)
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	// two more days arrive, the last one breaches the stop
	bars := flatSeries(4, 110, 100)
	bars[3] = bar(4, 105, 89)
	supplier.Put("SLOW", bars)

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcome.Updated, 1)
	assert.Equal(t, model.StatusStopLossHit, outcome.Updated[0].Status)
	assert.Equal(t, 4, outcome.Updated[0].DaysElapsed)
}
