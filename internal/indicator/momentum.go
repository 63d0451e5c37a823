package indicator

import (
	"advisor/pkg/model"
)

// Momentum indicator names
const (
	RSI14    = "RSI_14"
	StochK   = "STOCH_K"
	StochD   = "STOCH_D"
	ROC10    = "ROC_10"
	CCI20    = "CCI_20"
	WillR14  = "WILLR_14"
)

const (
	rsiPeriod    = 14
	stochPeriod  = 14
	stochSmooth  = 3
	rocPeriod    = 10
	cciPeriod    = 20
	willRPeriod  = 14
)

func (e *Engine) registerMomentum() {
	e.register(RSI14, model.CategoryMomentum, rsiPeriod+1, func(bars []model.PriceBar) (float64, error) {
		return rsi(closes(bars), rsiPeriod), nil
	})
	e.register(StochK, model.CategoryMomentum, stochPeriod, func(bars []model.PriceBar) (float64, error) {
		return stochasticK(bars, len(bars)), nil
	})
	e.register(StochD, model.CategoryMomentum, stochPeriod+stochSmooth-1, func(bars []model.PriceBar) (float64, error) {
		var sum float64
		for i := 0; i < stochSmooth; i++ {
			sum += stochasticK(bars, len(bars)-i)
		}
		return sum / stochSmooth, nil
	})
	e.register(ROC10, model.CategoryMomentum, rocPeriod+1, func(bars []model.PriceBar) (float64, error) {
		c := closes(bars)
		prev := c[len(c)-1-rocPeriod]
		if prev == 0 {
			return 0, nil
		}
		return (c[len(c)-1] - prev) / prev * 100, nil
	})
	e.register(CCI20, model.CategoryMomentum, cciPeriod, func(bars []model.PriceBar) (float64, error) {
		return cci(bars, cciPeriod), nil
	})
	e.register(WillR14, model.CategoryMomentum, willRPeriod, func(bars []model.PriceBar) (float64, error) {
		return williamsR(bars, willRPeriod), nil
	})
}

// rsi computes the relative strength index with Wilder smoothing.
// Zero average loss saturates at 100, zero average gain at 0.
func rsi(values []float64, period int) float64 {
	var gain, loss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		var g, l float64
		if change > 0 {
			g = change
		} else {
			l = -change
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	if avgGain == 0 {
		return 0
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// stochasticK computes %K for the window ending at bars[end-1]
func stochasticK(bars []model.PriceBar, end int) float64 {
	window := bars[:end]
	hh := highestHigh(window, stochPeriod)
	ll := lowestLow(window, stochPeriod)
	if hh == ll {
		return 50
	}
	return (window[len(window)-1].Close - ll) / (hh - ll) * 100
}

// cci computes the commodity channel index over the trailing period
func cci(bars []model.PriceBar, period int) float64 {
	tp := make([]float64, period)
	var mean float64
	for i := 0; i < period; i++ {
		tp[i] = typicalPrice(bars[len(bars)-period+i])
		mean += tp[i]
	}
	mean /= float64(period)

	var meanDev float64
	for _, v := range tp {
		meanDev += abs(v - mean)
	}
	meanDev /= float64(period)
	if meanDev == 0 {
		return 0
	}
	return (tp[period-1] - mean) / (0.015 * meanDev)
}

// williamsR computes Williams %R over the trailing period, in [-100, 0]
func williamsR(bars []model.PriceBar, period int) float64 {
	hh := highestHigh(bars, period)
	ll := lowestLow(bars, period)
	if hh == ll {
		return -50
	}
	return (hh - bars[len(bars)-1].Close) / (hh - ll) * -100
}
