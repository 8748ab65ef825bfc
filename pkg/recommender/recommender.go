package recommender

import (
	"context"
	"fmt"
	"sort"

	"github.com/opscart/hardware-explorer/pkg/guidance"
	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/pricing"
)

type Recommender struct {
	thresholds      guidance.Thresholds
	pricingProvider pricing.Provider
}

// New builds a recommender that prices candidates with provider
func New(thresholds guidance.Thresholds, provider pricing.Provider) *Recommender {
	return &Recommender{
		thresholds:      thresholds,
		pricingProvider: provider,
	}
}

// Assess checks one result against every acceptance threshold
func (r *Recommender) Assess(result models.ExplorationResult) models.Assessment {
	a := models.Assessment{ExplorationResult: result}
	agg := result.Result

	switch {
	case agg == nil && result.Skipped != "":
		a.Verdict = models.VerdictFailed
		a.Reason = "Not explored: " + result.Skipped
	case agg == nil:
		a.Verdict = models.VerdictFailed
		a.Reason = fmt.Sprintf("All %d repeats failed", result.Attempts)
	case agg.ErrorRate.Mean > r.thresholds.MaxErrorRate:
		a.Verdict = models.VerdictRejected
		a.Reason = fmt.Sprintf("Error rate %.2f%% above %.2f%%",
			agg.ErrorRate.Mean*100, r.thresholds.MaxErrorRate*100)
	case agg.Apdex.Spread > r.thresholds.MaxApdexSpread:
		a.Verdict = models.VerdictUnstable
		a.Reason = fmt.Sprintf("Apdex spread %.3f above %.3f", agg.Apdex.Spread, r.thresholds.MaxApdexSpread)
	case result.Hardware.NodeCount < r.thresholds.MinNodeCountForAvailability:
		a.Verdict = models.VerdictBelowAvailability
		a.Reason = fmt.Sprintf("%d nodes, at least %d needed for availability",
			result.Hardware.NodeCount, r.thresholds.MinNodeCountForAvailability)
	default:
		a.Verdict = models.VerdictRecommended
		a.Reason = fmt.Sprintf("Apdex %.3f with %.2f%% errors", agg.Apdex.Mean, agg.ErrorRate.Mean*100)
	}
	return a
}

// AssessAll keeps the input order
func (r *Recommender) AssessAll(results []models.ExplorationResult) []models.Assessment {
	assessments := make([]models.Assessment, 0, len(results))
	for _, result := range results {
		assessments = append(assessments, r.Assess(result))
	}
	return assessments
}

// Recommend returns the recommended results, cheapest first, then by apdex
func (r *Recommender) Recommend(ctx context.Context, results []models.ExplorationResult) ([]models.Recommendation, error) {
	var recommendations []models.Recommendation

	for _, result := range results {
		if r.Assess(result).Verdict != models.VerdictRecommended {
			continue
		}

		cost, err := pricing.HardwareCost(ctx, r.pricingProvider, result.Hardware)
		if err != nil {
			return nil, fmt.Errorf("failed to price %s: %w", result.Hardware, err)
		}

		recommendations = append(recommendations, models.Recommendation{
			Hardware:    result.Hardware,
			Result:      result.Result,
			HourlyCost:  cost.HourlyUSD,
			MonthlyCost: cost.MonthlyUSD,
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		a, b := recommendations[i], recommendations[j]
		if a.MonthlyCost != b.MonthlyCost {
			return a.MonthlyCost < b.MonthlyCost
		}
		return a.Result.Apdex.Mean > b.Result.Apdex.Mean
	})

	for i := range recommendations {
		recommendations[i].Rank = i + 1
	}
	return recommendations, nil
}
