package indicator

import (
	"advisor/pkg/model"
)

// Volume indicator names
const (
	OBV      = "OBV"
	OBVSMA20 = "OBV_SMA_20"
	VolSMA20 = "VOL_SMA_20"
	VolRatio = "VOL_RATIO"
	VolROC10 = "VOL_ROC_10"
	PVT      = "PVT"
	PVTSMA20 = "PVT_SMA_20"
	VWAP     = "VWAP"
)

const (
	volSMAPeriod = 20
	volROCPeriod = 10
)

func (e *Engine) registerVolume() {
	e.register(OBV, model.CategoryVolume, 2, func(bars []model.PriceBar) (float64, error) {
		series := obvSeries(bars)
		return series[len(series)-1], nil
	})
	e.register(OBVSMA20, model.CategoryVolume, volSMAPeriod+1, func(bars []model.PriceBar) (float64, error) {
		return sma(obvSeries(bars), volSMAPeriod), nil
	})
	e.register(VolSMA20, model.CategoryVolume, volSMAPeriod, func(bars []model.PriceBar) (float64, error) {
		return sma(volumes(bars), volSMAPeriod), nil
	})
	e.register(VolRatio, model.CategoryVolume, volSMAPeriod, func(bars []model.PriceBar) (float64, error) {
		avg := sma(volumes(bars), volSMAPeriod)
		if avg == 0 {
			return 1, nil
		}
		return float64(bars[len(bars)-1].Volume) / avg, nil
	})
	e.register(VolROC10, model.CategoryVolume, volROCPeriod+1, func(bars []model.PriceBar) (float64, error) {
		prev := float64(bars[len(bars)-1-volROCPeriod].Volume)
		if prev == 0 {
			return 0, nil
		}
		return (float64(bars[len(bars)-1].Volume) - prev) / prev * 100, nil
	})
	e.register(PVT, model.CategoryVolume, 2, func(bars []model.PriceBar) (float64, error) {
		series := pvtSeries(bars)
		return series[len(series)-1], nil
	})
	e.register(PVTSMA20, model.CategoryVolume, volSMAPeriod+1, func(bars []model.PriceBar) (float64, error) {
		return sma(pvtSeries(bars), volSMAPeriod), nil
	})
	e.register(VWAP, model.CategoryVolume, 1, func(bars []model.PriceBar) (float64, error) {
		return vwap(bars), nil
	})
}

func volumes(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = float64(b.Volume)
	}
	return out
}

// obvSeries builds the cumulative on-balance volume series, signed by the
// daily price direction
func obvSeries(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			out[i] = out[i-1] + float64(bars[i].Volume)
		case bars[i].Close < bars[i-1].Close:
			out[i] = out[i-1] - float64(bars[i].Volume)
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// pvtSeries builds the cumulative price-volume trend series
func pvtSeries(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		out[i] = out[i-1]
		if bars[i-1].Close != 0 {
			change := (bars[i].Close - bars[i-1].Close) / bars[i-1].Close
			out[i] += change * float64(bars[i].Volume)
		}
	}
	return out
}

// vwap computes the volume-weighted average price over the whole series
func vwap(bars []model.PriceBar) float64 {
	var pvSum, vSum float64
	for _, b := range bars {
		pvSum += typicalPrice(b) * float64(b.Volume)
		vSum += float64(b.Volume)
	}
	if vSum == 0 {
		return bars[len(bars)-1].Close
	}
	return pvSum / vSum
}
