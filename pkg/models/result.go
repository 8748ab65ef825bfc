package models

// ExplorationResult is one element of an exploration's output
type ExplorationResult struct {
	Hardware Hardware `json:"hardware"`

	// Result is nil when every repeat failed or the candidate was skipped
	Result *AggregatedResult `json:"result"`

	Attempts int    `json:"attempts"`
	Failures int    `json:"failures"`
	Skipped  string `json:"skipped,omitempty"`
}

// Succeeded reports whether at least one repeat produced a measurement
func (r ExplorationResult) Succeeded() bool {
	return r.Result != nil
}

// Verdict is the outcome of checking a result against acceptance thresholds
type Verdict string

const (
	VerdictRecommended       Verdict = "RECOMMENDED"
	VerdictFailed            Verdict = "FAILED"
	VerdictRejected          Verdict = "REJECTED"
	VerdictUnstable          Verdict = "UNSTABLE"
	VerdictBelowAvailability Verdict = "BELOW_AVAILABILITY"
)
