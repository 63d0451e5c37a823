package indicator

import (
	"advisor/pkg/model"
)

// Trend indicator names
const (
	EMA12         = "EMA_12"
	EMA26         = "EMA_26"
	SMA50         = "SMA_50"
	SMA200        = "SMA_200"
	MACD          = "MACD"
	MACDSignal    = "MACD_SIGNAL"
	MACDHistogram = "MACD_HIST"
	ADX14         = "ADX_14"
)

const (
	macdFast   = 12
	macdSlow   = 26
	macdSmooth = 9
	adxPeriod  = 14
)

func (e *Engine) registerTrend() {
	e.register(EMA12, model.CategoryTrend, 12, func(bars []model.PriceBar) (float64, error) {
		return ema(closes(bars), 12), nil
	})
	e.register(EMA26, model.CategoryTrend, 26, func(bars []model.PriceBar) (float64, error) {
		return ema(closes(bars), 26), nil
	})
	e.register(SMA50, model.CategoryTrend, 50, func(bars []model.PriceBar) (float64, error) {
		return sma(closes(bars), 50), nil
	})
	e.register(SMA200, model.CategoryTrend, 200, func(bars []model.PriceBar) (float64, error) {
		return sma(closes(bars), 200), nil
	})
	e.register(MACD, model.CategoryTrend, macdSlow, func(bars []model.PriceBar) (float64, error) {
		line, _, _ := macd(closes(bars))
		return line, nil
	})
	e.register(MACDSignal, model.CategoryTrend, macdSlow+macdSmooth, func(bars []model.PriceBar) (float64, error) {
		_, signal, _ := macd(closes(bars))
		return signal, nil
	})
	e.register(MACDHistogram, model.CategoryTrend, macdSlow+macdSmooth, func(bars []model.PriceBar) (float64, error) {
		_, _, hist := macd(closes(bars))
		return hist, nil
	})
	e.register(ADX14, model.CategoryTrend, 2*adxPeriod+1, func(bars []model.PriceBar) (float64, error) {
		return adx(bars, adxPeriod), nil
	})
}

// macd returns the MACD line (fast EMA - slow EMA), its EMA signal line and
// the histogram (line - signal) at the latest bar
func macd(values []float64) (line, signal, hist float64) {
	fast := emaSeries(values, macdFast)
	slow := emaSeries(values, macdSlow)

	diff := make([]float64, len(values))
	for i := range values {
		diff[i] = fast[i] - slow[i]
	}
	line = diff[len(diff)-1]

	// Signal line is only meaningful once the slow EMA has warmed up
	if len(diff) >= macdSlow+macdSmooth {
		sig := emaSeries(diff[macdSlow-1:], macdSmooth)
		signal = sig[len(sig)-1]
	}
	hist = line - signal
	return line, signal, hist
}

// adx computes the average directional index with Wilder smoothing
func adx(bars []model.PriceBar, period int) float64 {
	n := len(bars)

	// Directional movement and true range per bar
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
		tr[i] = trueRange(bars, i)
	}

	// Seed Wilder sums over the first period
	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := func() float64 {
		if smTR == 0 {
			return 0
		}
		plusDI := 100 * smPlus / smTR
		minusDI := 100 * smMinus / smTR
		sum := plusDI + minusDI
		if sum == 0 {
			return 0
		}
		return 100 * abs(plusDI-minusDI) / sum
	}

	// First DX, then Wilder-smooth DX into ADX over the remaining bars
	adxVal := dx()
	seeded := 1
	for i := period + 1; i < n; i++ {
		smTR = smTR - smTR/float64(period) + tr[i]
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		if seeded < period {
			adxVal += dx()
			seeded++
			if seeded == period {
				adxVal /= float64(period)
			}
			continue
		}
		adxVal = (adxVal*float64(period-1) + dx()) / float64(period)
	}
	if seeded < period {
		adxVal /= float64(seeded)
	}
	return adxVal
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
