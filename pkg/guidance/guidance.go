// Package guidance owns the search policy: which candidate to try next and when
// to stop adding hardware.
//
// Every guidance is a fold over the results it has observed. The next candidate
// is derived from that history alone, so a guidance built from a prior run's
// results resumes exactly where that run stopped.
package guidance

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// Guidance is implemented by JiraGuidance and DatabaseGuidance only
type Guidance interface {
	HasNext() bool
	Next() (models.Hardware, bool)
	Observe(result models.ExplorationResult)
	History() []models.ExplorationResult
	guidance()
}

// Thresholds are the acceptance criteria shared by guidance and recommendations
type Thresholds struct {
	// MinApdexGain is the smallest apdex improvement worth another step
	MinApdexGain float64 `yaml:"minApdexGain" json:"min_apdex_gain"`
	// MaxApdexSpread rejects unstable results from recommendations
	MaxApdexSpread float64 `yaml:"maxApdexSpread" json:"max_apdex_spread"`
	MaxErrorRate   float64 `yaml:"maxErrorRate" json:"max_error_rate"`

	MinNodeCountForAvailability int `yaml:"minNodeCountForAvailability" json:"min_node_count_for_availability"`
}

// Validate checks the thresholds are usable
func (t Thresholds) Validate() error {
	if t.MinApdexGain < 0 {
		return fmt.Errorf("minApdexGain must not be negative, got %v", t.MinApdexGain)
	}
	if t.MaxApdexSpread < 0 {
		return fmt.Errorf("maxApdexSpread must not be negative, got %v", t.MaxApdexSpread)
	}
	if t.MaxErrorRate < 0 || t.MaxErrorRate > 1 {
		return fmt.Errorf("maxErrorRate must be within [0, 1], got %v", t.MaxErrorRate)
	}
	if t.MinNodeCountForAvailability < 0 {
		return fmt.Errorf("minNodeCountForAvailability must not be negative, got %d", t.MinNodeCountForAvailability)
	}
	return nil
}

// Decision explains whether a step lets the search continue along its axis
type Decision struct {
	Continue bool
	Reason   string
	// Ambiguous marks gains too close to the threshold to trust given the spread
	Ambiguous bool
}

// Decide applies the stop rules to the current result of an axis, compared to the
// previous step on the same axis. Comparisons are strict and use unrounded values.
func Decide(previous *models.ExplorationResult, current models.ExplorationResult, th Thresholds) Decision {
	cur := current.Result
	if cur == nil {
		if current.Skipped != "" {
			return Decision{Reason: "skipped: " + current.Skipped}
		}
		return Decision{Reason: "every repeat failed"}
	}
	if cur.ErrorRate.Mean > th.MaxErrorRate {
		return Decision{Reason: fmt.Sprintf("error rate %.4f exceeds %.4f", cur.ErrorRate.Mean, th.MaxErrorRate)}
	}
	if previous == nil || previous.Result == nil {
		return Decision{Continue: true, Reason: "first result on this axis"}
	}

	prev := previous.Result
	gain := cur.Apdex.Mean - prev.Apdex.Mean
	ambiguous := math.Abs(gain-th.MinApdexGain) <= cur.Apdex.Spread+prev.Apdex.Spread
	if gain < th.MinApdexGain {
		return Decision{
			Reason:    fmt.Sprintf("apdex gain %.4f below %.4f", gain, th.MinApdexGain),
			Ambiguous: ambiguous,
		}
	}
	return Decision{
		Continue:  true,
		Reason:    fmt.Sprintf("apdex gain %.4f", gain),
		Ambiguous: ambiguous,
	}
}

// history is the immutable fold state shared by both variants
type history struct {
	results []models.ExplorationResult
	logger  *zap.Logger
}

func newHistory(prior []models.ExplorationResult, logger *zap.Logger, name string) history {
	if logger == nil {
		logger = zap.NewNop()
	}
	return history{results: append([]models.ExplorationResult(nil), prior...), logger: logger.Named(name)}
}

// observed returns a new history with result appended, leaving h untouched
func (h history) observed(result models.ExplorationResult) history {
	results := make([]models.ExplorationResult, len(h.results), len(h.results)+1)
	copy(results, h.results)
	return history{results: append(results, result), logger: h.logger}
}

// index maps each candidate to the latest result observed for it
func (h history) index() map[models.Hardware]models.ExplorationResult {
	idx := make(map[models.Hardware]models.ExplorationResult, len(h.results))
	for _, r := range h.results {
		idx[r.Hardware] = r
	}
	return idx
}

func (h history) snapshot() []models.ExplorationResult {
	return append([]models.ExplorationResult(nil), h.results...)
}

func (h history) logDecision(axis string, previous *models.ExplorationResult, current models.ExplorationResult, th Thresholds) {
	d := Decide(previous, current, th)
	fields := []zap.Field{
		zap.String("axis", axis),
		zap.Stringer("hardware", current.Hardware),
		zap.Bool("continue", d.Continue),
		zap.String("reason", d.Reason),
	}
	if d.Ambiguous {
		h.logger.Warn("Apdex gain is within the measurement spread of the threshold", fields...)
		return
	}
	h.logger.Info("Guidance decision", fields...)
}

// walk follows one axis of candidates until a result stops it. It returns the
// first candidate without a result, or false when the axis is finished.
func walk(axis []models.Hardware, seen map[models.Hardware]models.ExplorationResult, th Thresholds) (models.Hardware, bool) {
	var previous *models.ExplorationResult
	for _, hw := range axis {
		current, ok := seen[hw]
		if !ok {
			return hw, true
		}
		if !Decide(previous, current, th).Continue {
			return models.Hardware{}, false
		}
		previous = &current
	}
	return models.Hardware{}, false
}

// previousOn returns the result just before hw on its axis, if observed
func previousOn(axis []models.Hardware, hw models.Hardware, seen map[models.Hardware]models.ExplorationResult) *models.ExplorationResult {
	for i, candidate := range axis {
		if candidate != hw || i == 0 {
			continue
		}
		if prev, ok := seen[axis[i-1]]; ok {
			return &prev
		}
	}
	return nil
}
