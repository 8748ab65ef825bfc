package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opscart/hardware-explorer/pkg/guidance"
	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/pricing"
	"github.com/opscart/hardware-explorer/pkg/tolerance"
	"github.com/opscart/hardware-explorer/pkg/trial"
)

// Plan describes one exploration: the workload, the search space and the
// acceptance thresholds
type Plan struct {
	Workload    models.WorkloadScale `yaml:"workload"`
	Repeats     int                  `yaml:"repeats"`
	Concurrency int                  `yaml:"concurrency"`
	Budget      int                  `yaml:"budget"`
	RetryFailed bool                 `yaml:"retryFailed"`

	Thresholds guidance.Thresholds `yaml:"thresholds"`
	Jira       guidance.JiraPlan   `yaml:"jira"`
	Database   DatabaseSection     `yaml:"database"`

	KnownIssues []tolerance.KnownIssue `yaml:"knownIssues"`
	Pricing     pricing.Config         `yaml:"pricing"`
	Prometheus  trial.Queries          `yaml:"prometheus"`
}

// DatabaseSection configures database exploration. Jira lists the application
// hardware explicitly; when empty the best JiraCount results of the jira
// exploration are used.
type DatabaseSection struct {
	InstanceTypes []string          `yaml:"instanceTypes"`
	Jira          []models.Hardware `yaml:"jira"`
	JiraCount     int               `yaml:"jiraCount"`
}

// DefaultPlan mirrors the thresholds used for the Jira XL profile
func DefaultPlan() Plan {
	return Plan{
		Repeats: 2,
		Thresholds: guidance.Thresholds{
			MinApdexGain:                0.01,
			MaxApdexSpread:              0.10,
			MaxErrorRate:                0.05,
			MinNodeCountForAvailability: 3,
		},
		Jira: guidance.JiraPlan{
			MinNodeCount: 1,
			MaxNodeCount: 16,
		},
		Database: DatabaseSection{JiraCount: 2},
	}
}

// LoadPlan reads a YAML plan on top of DefaultPlan. Unknown keys are rejected.
// Known issues listed in the plan extend the default registry.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to read plan: %w", err)
	}
	return ParsePlan(data)
}

func ParsePlan(data []byte) (Plan, error) {
	plan := DefaultPlan()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&plan); err != nil {
		return Plan{}, fmt.Errorf("failed to parse plan: %w", err)
	}
	plan.KnownIssues = withDefaultIssues(plan.KnownIssues)
	if err := plan.Validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// withDefaultIssues adds the plan's known issues to the default registry. A
// plan issue with a default's key replaces it in place.
func withDefaultIssues(extra []tolerance.KnownIssue) []tolerance.KnownIssue {
	issues := make([]tolerance.KnownIssue, 0, len(tolerance.DefaultKnownIssues)+len(extra))
	issues = append(issues, tolerance.DefaultKnownIssues...)
	for _, issue := range extra {
		replaced := false
		for i := range issues {
			if issues[i].Key == issue.Key {
				issues[i] = issue
				replaced = true
				break
			}
		}
		if !replaced {
			issues = append(issues, issue)
		}
	}
	return issues
}

// Validate checks the parts every exploration needs
func (p Plan) Validate() error {
	if p.Workload.Label == "" {
		return fmt.Errorf("workload.label must be set")
	}
	if p.Repeats < 1 {
		return fmt.Errorf("repeats must be at least 1, got %d", p.Repeats)
	}
	if p.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", p.Concurrency)
	}
	if p.Budget < 0 {
		return fmt.Errorf("budget must not be negative, got %d", p.Budget)
	}
	if err := p.Thresholds.Validate(); err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}
	for _, issue := range p.KnownIssues {
		if issue.Key == "" || issue.Signature == "" {
			return fmt.Errorf("known issues need both key and signature, got %+v", issue)
		}
	}
	return nil
}
