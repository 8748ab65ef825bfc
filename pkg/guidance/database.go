package guidance

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// DatabasePlan pairs fixed application hardware with database candidates
type DatabasePlan struct {
	// Jira is ranked best first
	Jira          []models.Hardware `yaml:"jira" json:"jira"`
	InstanceTypes []string          `yaml:"instanceTypes" json:"instance_types"`
}

func (p DatabasePlan) Validate() error {
	if len(p.Jira) == 0 {
		return fmt.Errorf("no jira hardware to pair databases with")
	}
	if len(p.InstanceTypes) == 0 {
		return fmt.Errorf("no database instance types to explore")
	}
	for _, hw := range p.Jira {
		if hw.HasDatabase() {
			return fmt.Errorf("jira hardware %s already has a database", hw)
		}
	}
	return nil
}

func (p DatabasePlan) Candidates() []models.Hardware {
	var all []models.Hardware
	for _, jira := range p.Jira {
		all = append(all, p.axis(jira)...)
	}
	return all
}

func (p DatabasePlan) axis(jira models.Hardware) []models.Hardware {
	axis := make([]models.Hardware, 0, len(p.InstanceTypes))
	for _, db := range p.InstanceTypes {
		axis = append(axis, jira.WithDatabase(db))
	}
	return axis
}

// DatabaseGuidance explores each database instance type against each Jira
// recommendation, in recommendation rank order, then database order.
type DatabaseGuidance struct {
	plan       DatabasePlan
	thresholds Thresholds
	history    history
}

func NewDatabaseGuidance(plan DatabasePlan, thresholds Thresholds, prior []models.ExplorationResult, logger *zap.Logger) (*DatabaseGuidance, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database plan: %w", err)
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	return &DatabaseGuidance{
		plan:       plan,
		thresholds: thresholds,
		history:    newHistory(prior, logger, "database-guidance"),
	}, nil
}

func (g *DatabaseGuidance) Next() (models.Hardware, bool) {
	seen := g.history.index()
	for _, jira := range g.plan.Jira {
		if hw, ok := walk(g.plan.axis(jira), seen, g.thresholds); ok {
			return hw, true
		}
	}
	return models.Hardware{}, false
}

func (g *DatabaseGuidance) HasNext() bool {
	_, ok := g.Next()
	return ok
}

func (g *DatabaseGuidance) Observe(result models.ExplorationResult) {
	jira := result.Hardware.WithDatabase("")
	previous := previousOn(g.plan.axis(jira), result.Hardware, g.history.index())
	g.history = g.history.observed(result)
	g.history.logDecision(jira.String(), previous, result, g.thresholds)
}

func (g *DatabaseGuidance) History() []models.ExplorationResult {
	return g.history.snapshot()
}

func (g *DatabaseGuidance) Thresholds() Thresholds {
	return g.thresholds
}

func (*DatabaseGuidance) guidance() {}

// BestByApdex picks the n best Jira results that meet every threshold, best
// apdex first. Ties keep fewer nodes first, then the input order.
func BestByApdex(results []models.ExplorationResult, th Thresholds, n int) []models.Hardware {
	var eligible []models.ExplorationResult
	for _, r := range results {
		if r.Result == nil || r.Hardware.HasDatabase() {
			continue
		}
		if r.Result.ErrorRate.Mean > th.MaxErrorRate || r.Result.Apdex.Spread > th.MaxApdexSpread {
			continue
		}
		if r.Hardware.NodeCount < th.MinNodeCountForAvailability {
			continue
		}
		eligible = append(eligible, r)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.Result.Apdex.Mean != b.Result.Apdex.Mean {
			return a.Result.Apdex.Mean > b.Result.Apdex.Mean
		}
		return a.Hardware.NodeCount < b.Hardware.NodeCount
	})

	if n > 0 && len(eligible) > n {
		eligible = eligible[:n]
	}
	best := make([]models.Hardware, 0, len(eligible))
	for _, r := range eligible {
		best = append(best, r.Hardware)
	}
	return best
}
