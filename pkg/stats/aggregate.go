package stats

import (
	"sort"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// Aggregate reduces the successful measurements of one candidate into
// mean and spread per metric. It returns nil when there is nothing to reduce.
func Aggregate(hardware models.Hardware, measurements []models.Measurement) *models.AggregatedResult {
	if len(measurements) == 0 {
		return nil
	}

	apdex := make([]float64, len(measurements))
	errorRate := make([]float64, len(measurements))
	throughput := make([]float64, len(measurements))
	for i, m := range measurements {
		apdex[i] = m.Apdex
		errorRate[i] = m.ErrorRate
		throughput[i] = m.Throughput
	}

	return &models.AggregatedResult{
		Hardware:   hardware,
		Apdex:      reduce(apdex),
		ErrorRate:  reduce(errorRate),
		Throughput: reduce(throughput),
		Repeats:    len(measurements),
	}
}

// reduce sorts before summing so the mean does not depend on input order
func reduce(values []float64) models.Stat {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return models.Stat{
		Mean:   calculateAverage(sorted),
		Spread: calculateSpread(sorted),
	}
}

// calculateAverage computes the mean of values
func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// calculateSpread is half the range of sorted values.
// With repeats as low as 2 a bounding range says more than a variance estimate.
func calculateSpread(sortedValues []float64) float64 {
	if len(sortedValues) < 2 {
		return 0
	}
	return (sortedValues[len(sortedValues)-1] - sortedValues[0]) / 2
}
