package signal

import (
	"math"

	"advisor/internal/indicator"
	"advisor/pkg/model"
)

// rule maps one indicator family to a discrete directional vote. A rule only
// fires when every indicator it needs is present in the set.
type rule struct {
	name     string
	category model.Category
	primary  string   // indicator whose value is reported alongside the vote
	needs    []string // required indicator names
	vote     func(set model.IndicatorSet, price float64) int
}

// Engine maps indicator sets to per-category signals and a weighted score
type Engine struct {
	weights map[model.Category]float64
	rules   []rule
}

// DefaultWeights are the fixed category weights: trend 0.4, momentum 0.3,
// volatility 0.2, volume 0.1
func DefaultWeights() map[model.Category]float64 {
	return map[model.Category]float64{
		model.CategoryTrend:      0.4,
		model.CategoryMomentum:   0.3,
		model.CategoryVolatility: 0.2,
		model.CategoryVolume:     0.1,
	}
}

// NewEngine creates a signal engine with the given category weights.
// Weights are assumed validated (summing to 1.0) by the configuration layer.
func NewEngine(weights map[model.Category]float64) *Engine {
	return &Engine{
		weights: weights,
		rules:   defaultRules(),
	}
}

func defaultRules() []rule {
	cmp := func(a, b string) func(model.IndicatorSet, float64) int {
		return func(set model.IndicatorSet, _ float64) int {
			if set[a].Value > set[b].Value {
				return 1
			}
			return -1
		}
	}
	banded := func(name string, low, high float64) func(model.IndicatorSet, float64) int {
		return func(set model.IndicatorSet, _ float64) int {
			switch v := set[name].Value; {
			case v < low:
				return 1
			case v > high:
				return -1
			default:
				return 0
			}
		}
	}

	return []rule{
		// Trend
		{"EMA cross", model.CategoryTrend, indicator.EMA12,
			[]string{indicator.EMA12, indicator.EMA26},
			cmp(indicator.EMA12, indicator.EMA26)},
		{"SMA cross", model.CategoryTrend, indicator.SMA50,
			[]string{indicator.SMA50, indicator.SMA200},
			cmp(indicator.SMA50, indicator.SMA200)},
		{"MACD cross", model.CategoryTrend, indicator.MACD,
			[]string{indicator.MACD, indicator.MACDSignal},
			cmp(indicator.MACD, indicator.MACDSignal)},
		{"ADX strength", model.CategoryTrend, indicator.ADX14,
			[]string{indicator.ADX14},
			func(set model.IndicatorSet, _ float64) int {
				if set[indicator.ADX14].Value > 25 {
					return 1
				}
				return 0
			}},

		// Momentum
		{"RSI", model.CategoryMomentum, indicator.RSI14,
			[]string{indicator.RSI14},
			banded(indicator.RSI14, 30, 70)},
		{"Stochastic", model.CategoryMomentum, indicator.StochK,
			[]string{indicator.StochK},
			banded(indicator.StochK, 20, 80)},
		{"ROC", model.CategoryMomentum, indicator.ROC10,
			[]string{indicator.ROC10},
			func(set model.IndicatorSet, _ float64) int {
				switch v := set[indicator.ROC10].Value; {
				case v > 5:
					return 1
				case v < -5:
					return -1
				default:
					return 0
				}
			}},
		{"CCI", model.CategoryMomentum, indicator.CCI20,
			[]string{indicator.CCI20},
			banded(indicator.CCI20, -100, 100)},
		{"Williams %R", model.CategoryMomentum, indicator.WillR14,
			[]string{indicator.WillR14},
			func(set model.IndicatorSet, _ float64) int {
				switch v := set[indicator.WillR14].Value; {
				case v > -20:
					return -1
				case v < -80:
					return 1
				default:
					return 0
				}
			}},

		// Volatility
		{"Bollinger position", model.CategoryVolatility, indicator.BBPosition,
			[]string{indicator.BBPosition},
			banded(indicator.BBPosition, 0.2, 0.8)},
		{"ATR expansion", model.CategoryVolatility, indicator.ATR14,
			[]string{indicator.ATR14, indicator.ATRSMA20},
			func(set model.IndicatorSet, _ float64) int {
				if set[indicator.ATR14].Value > set[indicator.ATRSMA20].Value*1.2 {
					return 1
				}
				return 0
			}},
		{"Historical volatility", model.CategoryVolatility, indicator.HV20,
			[]string{indicator.HV20},
			func(set model.IndicatorSet, _ float64) int {
				switch v := set[indicator.HV20].Value; {
				case v > 30:
					return -1
				case v < 15:
					return 1
				default:
					return 0
				}
			}},

		// Volume
		{"OBV trend", model.CategoryVolume, indicator.OBV,
			[]string{indicator.OBV, indicator.OBVSMA20},
			cmp(indicator.OBV, indicator.OBVSMA20)},
		{"Volume ratio", model.CategoryVolume, indicator.VolRatio,
			[]string{indicator.VolRatio},
			func(set model.IndicatorSet, _ float64) int {
				switch v := set[indicator.VolRatio].Value; {
				case v > 2:
					return 1
				case v < 0.5:
					return -1
				default:
					return 0
				}
			}},
		{"PVT trend", model.CategoryVolume, indicator.PVT,
			[]string{indicator.PVT, indicator.PVTSMA20},
			cmp(indicator.PVT, indicator.PVTSMA20)},
		{"VWAP", model.CategoryVolume, indicator.VWAP,
			[]string{indicator.VWAP},
			func(set model.IndicatorSet, price float64) int {
				if price > set[indicator.VWAP].Value {
					return 1
				}
				return -1
			}},
	}
}

// Evaluate maps the indicator set to per-category signals and combines them
// into a bounded score. A category with no available indicators is excluded
// and the remaining weights are renormalized to sum to 1, so missing data is
// never a neutral vote at full weight.
func (e *Engine) Evaluate(set model.IndicatorSet, currentPrice float64) model.ScoreBreakdown {
	sums := make(map[model.Category]float64)
	counts := make(map[model.Category]int)
	var signals []model.Signal

	for _, r := range e.rules {
		if !available(set, r.needs) {
			continue
		}
		dir := r.vote(set, currentPrice)
		signals = append(signals, model.Signal{
			Indicator: r.name,
			Category:  r.category,
			Value:     set[r.primary].Value,
			Direction: dir,
		})
		sums[r.category] += float64(dir)
		counts[r.category]++
	}

	categories := make(map[model.Category]float64, len(sums))
	var score, weightSum float64
	for _, cat := range model.Categories {
		n := counts[cat]
		if n == 0 {
			continue
		}
		avg := sums[cat] / float64(n)
		categories[cat] = avg
		score += avg * e.weights[cat]
		weightSum += e.weights[cat]
	}
	if weightSum > 0 {
		score /= weightSum
	}
	score = math.Max(-1, math.Min(1, score))

	return model.ScoreBreakdown{
		Score:      score,
		Categories: categories,
		Signals:    signals,
	}
}

func available(set model.IndicatorSet, names []string) bool {
	for _, n := range names {
		if _, ok := set[n]; !ok {
			return false
		}
	}
	return true
}
