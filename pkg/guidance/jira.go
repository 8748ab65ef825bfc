package guidance

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// JiraPlan lists the application hardware to explore
type JiraPlan struct {
	InstanceTypes []string `yaml:"instanceTypes" json:"instance_types"`
	MinNodeCount  int      `yaml:"minNodeCount" json:"min_node_count"`
	MaxNodeCount  int      `yaml:"maxNodeCount" json:"max_node_count"`
}

func (p JiraPlan) Validate() error {
	if len(p.InstanceTypes) == 0 {
		return fmt.Errorf("no instance types to explore")
	}
	if p.MinNodeCount < 1 {
		return fmt.Errorf("minNodeCount must be at least 1, got %d", p.MinNodeCount)
	}
	if p.MaxNodeCount < p.MinNodeCount {
		return fmt.Errorf("maxNodeCount %d is below minNodeCount %d", p.MaxNodeCount, p.MinNodeCount)
	}
	return nil
}

// Candidates lists every hardware the plan could reach, in exploration order
func (p JiraPlan) Candidates() []models.Hardware {
	var all []models.Hardware
	for _, instanceType := range p.InstanceTypes {
		all = append(all, p.axis(instanceType)...)
	}
	return all
}

// axis lists the node counts of one instance type in exploration order
func (p JiraPlan) axis(instanceType string) []models.Hardware {
	axis := make([]models.Hardware, 0, p.MaxNodeCount-p.MinNodeCount+1)
	for n := p.MinNodeCount; n <= p.MaxNodeCount; n++ {
		axis = append(axis, models.Hardware{InstanceType: instanceType, NodeCount: n})
	}
	return axis
}

// JiraGuidance walks instance types in order, adding nodes to each until the
// gain in apdex no longer pays off, errors pile up or maxNodeCount is reached.
type JiraGuidance struct {
	plan       JiraPlan
	thresholds Thresholds
	history    history
}

// NewJiraGuidance resumes from prior results, which may be empty
func NewJiraGuidance(plan JiraPlan, thresholds Thresholds, prior []models.ExplorationResult, logger *zap.Logger) (*JiraGuidance, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid jira plan: %w", err)
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	return &JiraGuidance{
		plan:       plan,
		thresholds: thresholds,
		history:    newHistory(prior, logger, "jira-guidance"),
	}, nil
}

func (g *JiraGuidance) Next() (models.Hardware, bool) {
	seen := g.history.index()
	for _, instanceType := range g.plan.InstanceTypes {
		if hw, ok := walk(g.plan.axis(instanceType), seen, g.thresholds); ok {
			return hw, true
		}
	}
	return models.Hardware{}, false
}

func (g *JiraGuidance) HasNext() bool {
	_, ok := g.Next()
	return ok
}

func (g *JiraGuidance) Observe(result models.ExplorationResult) {
	axis := g.plan.axis(result.Hardware.InstanceType)
	previous := previousOn(axis, result.Hardware, g.history.index())
	g.history = g.history.observed(result)
	g.history.logDecision(result.Hardware.InstanceType, previous, result, g.thresholds)
}

func (g *JiraGuidance) History() []models.ExplorationResult {
	return g.history.snapshot()
}

func (g *JiraGuidance) Thresholds() Thresholds {
	return g.thresholds
}

func (*JiraGuidance) guidance() {}
