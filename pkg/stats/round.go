package stats

import (
	"github.com/shopspring/decimal"
)

// Presentation scales. Decisions always use the unrounded values.
const (
	ApdexPlaces      = 3
	ErrorRatePlaces  = 2
	ThroughputPlaces = 0
)

// RoundHalfUp rounds v to the given decimal places, ties away from zero
func RoundHalfUp(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}

// Apdex formats an apdex value for reports
func Apdex(v float64) decimal.Decimal {
	return RoundHalfUp(v, ApdexPlaces)
}

// ErrorRatePercent converts a 0-1 error rate to a rounded percentage
func ErrorRatePercent(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).Round(ErrorRatePlaces)
}

// Throughput rounds a throughput to whole requests
func Throughput(v float64) decimal.Decimal {
	return RoundHalfUp(v, ThroughputPlaces)
}
