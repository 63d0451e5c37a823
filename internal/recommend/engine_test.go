package recommend

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisor/internal/config"
	"advisor/pkg/model"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())
	return NewEngine(cfg)
}

func breakdownWith(score float64, directions ...int) model.ScoreBreakdown {
	bd := model.ScoreBreakdown{Score: score}
	for i, d := range directions {
		bd.Signals = append(bd.Signals, model.Signal{
			Indicator: "IND",
			Category:  model.Categories[i%len(model.Categories)],
			Value:     float64(i),
			Direction: d,
		})
	}
	return bd
}

func TestTierFor_Boundaries(t *testing.T) {
	e := testEngine(t)

	cases := []struct {
		score float64
		want  model.Tier
	}{
		{1.0, model.TierStrongBuy},
		{0.5, model.TierStrongBuy},
		{0.49, model.TierBuy},
		{0.2, model.TierBuy},
		{0.19, model.TierHold},
		{0, model.TierHold},
		{-0.19, model.TierHold},
		{-0.2, model.TierSell},
		{-0.49, model.TierSell},
		{-0.5, model.TierStrongSell},
		{-1.0, model.TierStrongSell},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, e.TierFor(tc.score), "score=%v", tc.score)
	}
}

func TestBuild_StrongBuyTargets(t *testing.T) {
	e := testEngine(t)
	asOf := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	bd := breakdownWith(0.6, 1, 1, 1)
	rec, err := e.Build("AAPL", asOf, 100, bd, nil)
	require.NoError(t, err)

	assert.Equal(t, model.TierStrongBuy, rec.Tier)
	assert.Equal(t, 120.00, rec.TargetPrice)
	assert.Equal(t, 90.00, rec.StopLossPrice)
	assert.Equal(t, asOf, rec.AsOfDate)
	assert.Len(t, rec.Reasoning, 3)
}

func TestBuild_SellTargets(t *testing.T) {
	e := testEngine(t)

	bd := breakdownWith(-0.3, -1, -1)
	rec, err := e.Build("XYZ", time.Now(), 50, bd, nil)
	require.NoError(t, err)

	assert.Equal(t, model.TierSell, rec.Tier)
	assert.Equal(t, 47.50, rec.TargetPrice)
	assert.Equal(t, 52.50, rec.StopLossPrice, "short tiers place the stop above the entry")
}

func TestBuild_StopSidePerTier(t *testing.T) {
	e := testEngine(t)

	cases := []struct {
		score     float64
		stopBelow bool
	}{
		{0.6, true},
		{0.3, true},
		{0, true},
		{-0.3, false},
		{-0.6, false},
	}
	for _, tc := range cases {
		rec, err := e.Build("T", time.Now(), 200, breakdownWith(tc.score), nil)
		require.NoError(t, err)
		if tc.stopBelow {
			assert.Less(t, rec.StopLossPrice, rec.CurrentPrice, "score=%v", tc.score)
		} else {
			assert.Greater(t, rec.StopLossPrice, rec.CurrentPrice, "score=%v", tc.score)
		}
	}
}

func TestBuild_RoundsToCents(t *testing.T) {
	e := testEngine(t)

	rec, err := e.Build("T", time.Now(), 33.333, breakdownWith(0.6, 1), nil)
	require.NoError(t, err)

	// 33.333 * 1.20 = 39.9996
	assert.Equal(t, 40.00, rec.TargetPrice)
	// 33.333 * 0.90 = 29.9997
	assert.Equal(t, 30.00, rec.StopLossPrice)
}

func TestBuild_InvalidPrice(t *testing.T) {
	e := testEngine(t)

	for _, price := range []float64{0, -10, math.NaN()} {
		_, err := e.Build("BAD", time.Now(), price, breakdownWith(0.5), nil)
		var ipe *InvalidPriceError
		require.ErrorAs(t, err, &ipe)
		assert.Equal(t, "BAD", ipe.Symbol)
	}
}

func TestConfidence_Levels(t *testing.T) {
	e := testEngine(t)

	cases := []struct {
		name string
		bd   model.ScoreBreakdown
		want model.Confidence
	}{
		// |0.8| ≥ 0.7 and 4/4 agreement ≥ 0.75
		{"high", breakdownWith(0.8, 1, 1, 1, 1), model.ConfidenceHigh},
		// magnitude qualifies for High but 3/5 agreement only reaches Medium
		{"split votes demote", breakdownWith(0.8, 1, 1, 1, -1, -1), model.ConfidenceMedium},
		// 2/4 agreement falls below even the medium consistency floor
		{"contested votes drop to low", breakdownWith(0.8, 1, 1, -1, -1), model.ConfidenceLow},
		// |0.5| ≥ 0.4 and 3/4 = 0.75 ≥ 0.55
		{"medium", breakdownWith(0.5, 1, 1, 1, -1), model.ConfidenceMedium},
		// magnitude below the medium floor
		{"low score", breakdownWith(0.3, 1, 1, 1, 1), model.ConfidenceLow},
		// zero score carries no direction to agree with
		{"zero score", breakdownWith(0, 1, -1), model.ConfidenceLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, e.confidenceFor(tc.bd))
		})
	}
}

func TestConsistencyRatio_IgnoresNeutralVotes(t *testing.T) {
	bd := breakdownWith(0.5, 1, 0, 0, 1, -1)
	// three non-zero votes, two agree with the positive score
	assert.InDelta(t, 2.0/3.0, ConsistencyRatio(bd), 1e-9)
}

func TestConsistencyRatio_NegativeScore(t *testing.T) {
	bd := breakdownWith(-0.5, -1, -1, 1, 0)
	assert.InDelta(t, 2.0/3.0, ConsistencyRatio(bd), 1e-9)
}

func TestBuild_ReasoningSkipsNeutral(t *testing.T) {
	e := testEngine(t)

	bd := model.ScoreBreakdown{
		Score: 0.25,
		Signals: []model.Signal{
			{Indicator: "RSI", Category: model.CategoryMomentum, Value: 25.5, Direction: 1},
			{Indicator: "ADX strength", Category: model.CategoryTrend, Value: 12, Direction: 0},
			{Indicator: "VWAP", Category: model.CategoryVolume, Value: 101.2, Direction: -1},
		},
	}
	rec, err := e.Build("T", time.Now(), 100, bd, nil)
	require.NoError(t, err)

	require.Len(t, rec.Reasoning, 2)
	assert.Equal(t, "RSI at 25.50 is bullish", rec.Reasoning[0])
	assert.Equal(t, "VWAP at 101.20 is bearish", rec.Reasoning[1])
}
