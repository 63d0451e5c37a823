package recommend

import (
	"fmt"
	"math"
	"sort"
	"time"

	"advisor/internal/config"
	"advisor/pkg/model"
)

// InvalidPriceError reports a missing or non-positive current price. It
// aborts the recommendation for that symbol only; other symbols in the same
// batch proceed unaffected.
type InvalidPriceError struct {
	Symbol string
	Price  float64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid current price %.4f for %s", e.Price, e.Symbol)
}

// Engine maps a score and current price to a full recommendation
type Engine struct {
	tiers      config.TiersConfig
	targets    config.TargetsConfig
	confidence config.ConfidenceConfig
}

// NewEngine creates a recommendation engine from validated configuration
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{
		tiers:      cfg.Tiers,
		targets:    cfg.Targets,
		confidence: cfg.Confidence,
	}
}

// TierFor maps a score to its tier. The five intervals partition the score
// range with no gaps or overlaps.
func (e *Engine) TierFor(score float64) model.Tier {
	switch {
	case score >= e.tiers.StrongBuy:
		return model.TierStrongBuy
	case score >= e.tiers.Buy:
		return model.TierBuy
	case score > e.tiers.Sell:
		return model.TierHold
	case score > e.tiers.StrongSell:
		return model.TierSell
	default:
		return model.TierStrongSell
	}
}

// Build creates a recommendation from the signal breakdown for one symbol
func (e *Engine) Build(symbol string, asOf time.Time, currentPrice float64, breakdown model.ScoreBreakdown, set model.IndicatorSet) (*model.Recommendation, error) {
	if currentPrice <= 0 || math.IsNaN(currentPrice) {
		return nil, &InvalidPriceError{Symbol: symbol, Price: currentPrice}
	}

	tier := e.TierFor(breakdown.Score)
	offsets := e.targets.ForTier(tier)

	target := round2(currentPrice * offsets.Target)
	var stop float64
	if tier.LongBiased() {
		stop = round2(currentPrice * (1 - offsets.Stop))
	} else {
		stop = round2(currentPrice * (1 + offsets.Stop))
	}

	used := set.Names()
	sort.Strings(used)

	return &model.Recommendation{
		Symbol:         symbol,
		AsOfDate:       asOf,
		Score:          breakdown.Score,
		Tier:           tier,
		CurrentPrice:   currentPrice,
		TargetPrice:    target,
		StopLossPrice:  stop,
		Confidence:     e.confidenceFor(breakdown),
		Reasoning:      reasoning(breakdown.Signals),
		IndicatorsUsed: used,
		CategoryScores: breakdown.Categories,
	}, nil
}

// confidenceFor combines score magnitude with the indicator consistency
// ratio: the fraction of non-zero indicator signals agreeing with the score
// sign. High requires both above the high thresholds, so a single dominant
// category cannot alone produce High confidence.
func (e *Engine) confidenceFor(breakdown model.ScoreBreakdown) model.Confidence {
	magnitude := math.Abs(breakdown.Score)
	ratio := ConsistencyRatio(breakdown)

	switch {
	case magnitude >= e.confidence.HighScore && ratio >= e.confidence.HighConsistency:
		return model.ConfidenceHigh
	case magnitude >= e.confidence.MediumScore && ratio >= e.confidence.MediumConsistency:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// ConsistencyRatio returns the fraction of non-zero indicator signals whose
// direction agrees with the sign of the final score
func ConsistencyRatio(breakdown model.ScoreBreakdown) float64 {
	sign := 0
	if breakdown.Score > 0 {
		sign = 1
	} else if breakdown.Score < 0 {
		sign = -1
	}
	if sign == 0 {
		return 0
	}

	var nonZero, agree int
	for _, s := range breakdown.Signals {
		if s.Direction == 0 {
			continue
		}
		nonZero++
		if s.Direction == sign {
			agree++
		}
	}
	if nonZero == 0 {
		return 0
	}
	return float64(agree) / float64(nonZero)
}

// reasoning builds one short line per indicator with a non-zero vote
func reasoning(signals []model.Signal) []string {
	var lines []string
	for _, s := range signals {
		if s.Direction == 0 {
			continue
		}
		word := "bullish"
		if s.Direction < 0 {
			word = "bearish"
		}
		lines = append(lines, fmt.Sprintf("%s at %.2f is %s", s.Indicator, s.Value, word))
	}
	return lines
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
