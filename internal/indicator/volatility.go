package indicator

import (
	"math"

	"advisor/pkg/model"
)

// Volatility indicator names
const (
	ATR14      = "ATR_14"
	ATRSMA20   = "ATR_SMA_20"
	BBUpper    = "BB_UPPER"
	BBMiddle   = "BB_MIDDLE"
	BBLower    = "BB_LOWER"
	BBWidth    = "BB_WIDTH"
	BBPosition = "BB_POSITION"
	HV20       = "HV_20"
)

const (
	atrPeriod = 14
	bbPeriod  = 20
	bbStdDev  = 2.0
	hvPeriod  = 20
)

func (e *Engine) registerVolatility() {
	e.register(ATR14, model.CategoryVolatility, atrPeriod+1, func(bars []model.PriceBar) (float64, error) {
		return atr(bars, atrPeriod), nil
	})
	e.register(ATRSMA20, model.CategoryVolatility, atrPeriod+volSMAPeriod, func(bars []model.PriceBar) (float64, error) {
		var sum float64
		for i := 0; i < volSMAPeriod; i++ {
			sum += atr(bars[:len(bars)-i], atrPeriod)
		}
		return sum / volSMAPeriod, nil
	})
	e.register(BBUpper, model.CategoryVolatility, bbPeriod, func(bars []model.PriceBar) (float64, error) {
		upper, _, _ := bollinger(closes(bars))
		return upper, nil
	})
	e.register(BBMiddle, model.CategoryVolatility, bbPeriod, func(bars []model.PriceBar) (float64, error) {
		_, middle, _ := bollinger(closes(bars))
		return middle, nil
	})
	e.register(BBLower, model.CategoryVolatility, bbPeriod, func(bars []model.PriceBar) (float64, error) {
		_, _, lower := bollinger(closes(bars))
		return lower, nil
	})
	e.register(BBWidth, model.CategoryVolatility, bbPeriod, func(bars []model.PriceBar) (float64, error) {
		upper, middle, lower := bollinger(closes(bars))
		if middle == 0 {
			return 0, nil
		}
		return (upper - lower) / middle, nil
	})
	e.register(BBPosition, model.CategoryVolatility, bbPeriod, func(bars []model.PriceBar) (float64, error) {
		upper, _, lower := bollinger(closes(bars))
		if upper == lower {
			return 0.5, nil
		}
		last := bars[len(bars)-1].Close
		return (last - lower) / (upper - lower), nil
	})
	e.register(HV20, model.CategoryVolatility, hvPeriod+1, func(bars []model.PriceBar) (float64, error) {
		return historicalVolatility(closes(bars), hvPeriod), nil
	})
}

// atr computes the average true range with Wilder smoothing
func atr(bars []model.PriceBar, period int) float64 {
	var sum float64
	for i := 1; i <= period; i++ {
		sum += trueRange(bars, i)
	}
	value := sum / float64(period)
	for i := period + 1; i < len(bars); i++ {
		value = (value*float64(period-1) + trueRange(bars, i)) / float64(period)
	}
	return value
}

// bollinger returns the upper, middle and lower bands at the latest bar
func bollinger(values []float64) (upper, middle, lower float64) {
	middle = sma(values, bbPeriod)
	sd := stddev(values, bbPeriod)
	return middle + bbStdDev*sd, middle, middle - bbStdDev*sd
}

// historicalVolatility is the annualized standard deviation of log returns
// over the trailing period, as a percentage
func historicalVolatility(values []float64, period int) float64 {
	returns := make([]float64, 0, period)
	for i := len(values) - period; i < len(values); i++ {
		if values[i-1] <= 0 || values[i] <= 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, math.Log(values[i]/values[i-1]))
	}
	return stddev(returns, len(returns)) * math.Sqrt(252) * 100
}
