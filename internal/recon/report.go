package recon

import (
	"sort"

	"advisor/pkg/model"
)

// TierPerformance summarizes resolved outcomes for one tier
type TierPerformance struct {
	Tier        model.Tier `json:"tier"`
	Resolved    int        `json:"resolved"`
	TargetMet   int        `json:"target_met"`
	StopLossHit int        `json:"stop_loss_hit"`
	MeanDays    float64    `json:"mean_days"`
	MedianDays  float64    `json:"median_days"`
}

// Report is the aggregate performance summary over a set of records.
// Success rate counts only evaluable outcomes: in-transit and expired
// records never inflate the statistics.
type Report struct {
	Total       int                          `json:"total"`
	StatusCount map[model.ResultStatus]int   `json:"status_counts"`
	ByTier      []TierPerformance            `json:"by_tier"`
	SuccessRate float64                      `json:"success_rate"` // target_met / (target_met + stop_loss_hit)
	Evaluable   int                          `json:"evaluable"`
	Unresolved  int                          `json:"unresolved"` // in_transit + expired
}

// Summarize aggregates outcomes across records
func Summarize(records []model.ReconciliationRecord) Report {
	report := Report{
		Total:       len(records),
		StatusCount: make(map[model.ResultStatus]int),
	}

	type tierAcc struct {
		days        []float64
		targetMet   int
		stopLossHit int
	}
	tiers := make(map[model.Tier]*tierAcc)

	for _, r := range records {
		report.StatusCount[r.Status]++

		switch r.Status {
		case model.StatusTargetMet, model.StatusStopLossHit:
			acc := tiers[r.Tier]
			if acc == nil {
				acc = &tierAcc{}
				tiers[r.Tier] = acc
			}
			acc.days = append(acc.days, float64(r.DaysElapsed))
			if r.Status == model.StatusTargetMet {
				acc.targetMet++
			} else {
				acc.stopLossHit++
			}
		default:
			report.Unresolved++
		}
	}

	targetMet := report.StatusCount[model.StatusTargetMet]
	stopLossHit := report.StatusCount[model.StatusStopLossHit]
	report.Evaluable = targetMet + stopLossHit
	if report.Evaluable > 0 {
		report.SuccessRate = float64(targetMet) / float64(report.Evaluable)
	}

	order := []model.Tier{model.TierStrongBuy, model.TierBuy, model.TierHold, model.TierSell, model.TierStrongSell}
	for _, tier := range order {
		acc, ok := tiers[tier]
		if !ok {
			continue
		}
		report.ByTier = append(report.ByTier, TierPerformance{
			Tier:        tier,
			Resolved:    len(acc.days),
			TargetMet:   acc.targetMet,
			StopLossHit: acc.stopLossHit,
			MeanDays:    mean(acc.days),
			MedianDays:  median(acc.days),
		})
	}

	return report
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
