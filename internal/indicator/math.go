package indicator

import (
	"math"

	"advisor/pkg/model"
)

func closes(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// sma returns the simple moving average of the last period values
func sma(values []float64, period int) float64 {
	var sum float64
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period)
}

// emaSeries returns the EMA series for the given period, seeded with the SMA
// of the first period values
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	alpha := 2.0 / float64(period+1)

	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
		out[i] = seed / float64(i+1)
	}
	out[period-1] = seed / float64(period)

	for i := period; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// ema returns the latest EMA value for the given period
func ema(values []float64, period int) float64 {
	series := emaSeries(values, period)
	return series[len(series)-1]
}

// stddev returns the population standard deviation of the last period values
// around their mean
func stddev(values []float64, period int) float64 {
	mean := sma(values, period)
	var sumSq float64
	for i := len(values) - period; i < len(values); i++ {
		d := values[i] - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(period))
}

// highestHigh returns the max high over the trailing period
func highestHigh(bars []model.PriceBar, period int) float64 {
	h := bars[len(bars)-period].High
	for i := len(bars) - period + 1; i < len(bars); i++ {
		if bars[i].High > h {
			h = bars[i].High
		}
	}
	return h
}

// lowestLow returns the min low over the trailing period
func lowestLow(bars []model.PriceBar, period int) float64 {
	l := bars[len(bars)-period].Low
	for i := len(bars) - period + 1; i < len(bars); i++ {
		if bars[i].Low < l {
			l = bars[i].Low
		}
	}
	return l
}

// trueRange returns the true range of bar i, which must be > 0
func trueRange(bars []model.PriceBar, i int) float64 {
	hl := bars[i].High - bars[i].Low
	hc := math.Abs(bars[i].High - bars[i-1].Close)
	lc := math.Abs(bars[i].Low - bars[i-1].Close)
	return math.Max(hl, math.Max(hc, lc))
}

// typicalPrice returns (high + low + close) / 3 for bar i
func typicalPrice(b model.PriceBar) float64 {
	return (b.High + b.Low + b.Close) / 3
}
