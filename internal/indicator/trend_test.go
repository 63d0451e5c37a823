package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	bars := risingBars(50, 1, 1) // closes 1..50

	e := NewEngine()
	set := e.ComputeAll(bars)

	v, ok := set[SMA50]
	require.True(t, ok)
	assert.InDelta(t, 25.5, v.Value, 1e-9)
}

func TestEMA_ConstantSeries(t *testing.T) {
	got := ema(make([]float64, 30, 30), 12)
	assert.Equal(t, 0.0, got)

	values := make([]float64, 30)
	for i := range values {
		values[i] = 42
	}
	assert.InDelta(t, 42, ema(values, 12), 1e-9)
}

func TestEMA_TracksRecentValues(t *testing.T) {
	// A jump at the end should pull the EMA above the older level
	values := make([]float64, 40)
	for i := range values {
		values[i] = 100
	}
	values[39] = 120

	got := ema(values, 12)
	assert.Greater(t, got, 100.0)
	assert.Less(t, got, 120.0)
}

func TestMACD_ConstantSeriesIsZero(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 50
	}

	line, signal, hist := macd(values)
	assert.InDelta(t, 0, line, 1e-9)
	assert.InDelta(t, 0, signal, 1e-9)
	assert.InDelta(t, 0, hist, 1e-9)
}

func TestMACD_UptrendIsPositive(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100 + float64(i)
	}

	line, signal, _ := macd(values)
	assert.Greater(t, line, 0.0, "fast EMA should lead slow EMA in an uptrend")
	assert.Greater(t, signal, 0.0)
}

func TestADX_FlatSeriesIsZero(t *testing.T) {
	assert.InDelta(t, 0, adx(flatBars(60, 100), adxPeriod), 1e-9)
}

func TestADX_StrongTrendIsHigh(t *testing.T) {
	bars := barsWith(60, func(i int) (float64, float64, float64, float64, int64) {
		base := 100 + float64(i)*2
		return base, base + 1, base - 1, base + 0.5, 1000
	})

	got := adx(bars, adxPeriod)
	assert.Greater(t, got, 25.0, "a persistent one-way trend should read as strong")
	assert.LessOrEqual(t, got, 100.0)
}
