package models

// Recommendation is a candidate that satisfied every acceptance threshold
type Recommendation struct {
	Hardware Hardware          `json:"hardware"`
	Result   *AggregatedResult `json:"result"`

	// Cost
	HourlyCost  float64 `json:"hourly_cost_usd"`
	MonthlyCost float64 `json:"monthly_cost_usd"`

	Rank int `json:"rank"`
}

// Assessment pairs an exploration result with its verdict
type Assessment struct {
	ExplorationResult
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
}
