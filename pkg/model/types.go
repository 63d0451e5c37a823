package model

import "time"

// PriceBar represents a single daily OHLCV bar
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Category groups indicators into the four signal families
type Category string

const (
	CategoryTrend      Category = "trend"
	CategoryMomentum   Category = "momentum"
	CategoryVolatility Category = "volatility"
	CategoryVolume     Category = "volume"
)

// Categories lists all categories in weighting order
var Categories = []Category{CategoryTrend, CategoryMomentum, CategoryVolatility, CategoryVolume}

// IndicatorValue is one computed indicator, recomputed fresh each run
type IndicatorValue struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Value    float64  `json:"value"`
}

// IndicatorSet maps indicator name to its computed value.
// Indicators whose window exceeds the available history are absent, not zero.
type IndicatorSet map[string]IndicatorValue

// Names returns the available indicator names
func (s IndicatorSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}

// Signal is one indicator's discrete directional vote
type Signal struct {
	Indicator string   `json:"indicator"`
	Category  Category `json:"category"`
	Value     float64  `json:"value"`     // indicator value the vote was derived from
	Direction int      `json:"direction"` // -1, 0, +1
}

// ScoreBreakdown carries the aggregated score and its decomposition
type ScoreBreakdown struct {
	Score      float64              `json:"score"` // bounded [-1, +1]
	Categories map[Category]float64 `json:"categories"`
	Signals    []Signal             `json:"signals"`
}

// Tier is one of the five recommendation levels
type Tier string

const (
	TierStrongBuy  Tier = "STRONG_BUY"
	TierBuy        Tier = "BUY"
	TierHold       Tier = "HOLD"
	TierSell       Tier = "SELL"
	TierStrongSell Tier = "STRONG_SELL"
)

// LongBiased reports whether the tier profits from rising prices.
// HOLD counts as long-biased: its stop sits below the current price.
func (t Tier) LongBiased() bool {
	switch t {
	case TierSell, TierStrongSell:
		return false
	default:
		return true
	}
}

// Confidence is the recommendation confidence level
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Recommendation is the per-symbol output of one analysis run.
// Immutable once created; a separate "latest" pointer per symbol tracks
// the most recent one.
type Recommendation struct {
	Symbol         string               `json:"symbol"`
	AsOfDate       time.Time            `json:"as_of_date"`
	Score          float64              `json:"score"`
	Tier           Tier                 `json:"tier"`
	CurrentPrice   float64              `json:"current_price"`
	TargetPrice    float64              `json:"target_price"`
	StopLossPrice  float64              `json:"stop_loss_price"`
	Confidence     Confidence           `json:"confidence_level"`
	Reasoning      []string             `json:"reasoning"`
	IndicatorsUsed []string             `json:"indicators_used"`
	CategoryScores map[Category]float64 `json:"category_scores,omitempty"`
}

// ResultStatus classifies a recommendation's eventual outcome
type ResultStatus string

const (
	StatusInTransit   ResultStatus = "in_transit"
	StatusTargetMet   ResultStatus = "target_met"
	StatusStopLossHit ResultStatus = "stop_loss_hit"
	StatusExpired     ResultStatus = "expired"
)

// Terminal reports whether the status can never change again
func (s ResultStatus) Terminal() bool {
	return s == StatusTargetMet || s == StatusStopLossHit || s == StatusExpired
}

// ReconciliationRecord tracks whether a recommendation's target or stop-loss
// was reached first. Once terminal it is write-once and never mutated.
type ReconciliationRecord struct {
	Symbol      string       `json:"symbol"`
	AsOfDate    time.Time    `json:"as_of_date"`
	Tier        Tier         `json:"tier"`
	TargetPrice float64      `json:"target_price"`
	StopLoss    float64      `json:"stop_loss"`
	Status      ResultStatus `json:"status"`
	ResultDate  time.Time    `json:"result_date,omitzero"`
	DaysElapsed int          `json:"days_elapsed"` // trading days from AsOfDate
}

// SymbolFailure reports a per-symbol analysis failure. Failures never abort
// the rest of the batch.
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// BatchResult is the output of one analysis run over a universe
type BatchResult struct {
	RunID           string           `json:"run_id"`
	StartedAt       time.Time        `json:"started_at"`
	Elapsed         time.Duration    `json:"elapsed"`
	Recommendations []Recommendation `json:"recommendations"`
	Failures        []SymbolFailure  `json:"failures"`
}

// BatchSummary aggregates one analysis run
type BatchSummary struct {
	Total        int                `json:"total"`
	Succeeded    int                `json:"succeeded"`
	Failed       int                `json:"failed"`
	AverageScore float64            `json:"average_score"`
	TierCounts   map[Tier]int       `json:"tier_distribution"`
	Confidence   map[Confidence]int `json:"confidence_distribution"`
}

// Summarize computes the aggregate view of a batch result
func (r *BatchResult) Summarize() BatchSummary {
	s := BatchSummary{
		Total:      len(r.Recommendations) + len(r.Failures),
		Succeeded:  len(r.Recommendations),
		Failed:     len(r.Failures),
		TierCounts: make(map[Tier]int),
		Confidence: make(map[Confidence]int),
	}
	var sum float64
	for _, rec := range r.Recommendations {
		sum += rec.Score
		s.TierCounts[rec.Tier]++
		s.Confidence[rec.Confidence]++
	}
	if s.Succeeded > 0 {
		s.AverageScore = sum / float64(s.Succeeded)
	}
	return s
}
