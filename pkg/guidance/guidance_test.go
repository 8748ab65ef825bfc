package guidance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/opscart/hardware-explorer/pkg/models"
)

var thresholds = Thresholds{
	MinApdexGain:                0.05,
	MaxApdexSpread:              0.10,
	MaxErrorRate:                0.05,
	MinNodeCountForAvailability: 2,
}

func result(hw models.Hardware, apdex, spread, errorRate float64) models.ExplorationResult {
	return models.ExplorationResult{
		Hardware: hw,
		Result: &models.AggregatedResult{
			Hardware:  hw,
			Apdex:     models.Stat{Mean: apdex, Spread: spread},
			ErrorRate: models.Stat{Mean: errorRate},
			Repeats:   2,
		},
		Attempts: 2,
	}
}

func failed(hw models.Hardware) models.ExplorationResult {
	return models.ExplorationResult{Hardware: hw, Attempts: 2, Failures: 2}
}

func node(instanceType string, n int) models.Hardware {
	return models.Hardware{InstanceType: instanceType, NodeCount: n}
}

// drive runs a guidance to completion against a fixed table of outcomes
func drive(t *testing.T, g Guidance, outcomes map[models.Hardware]models.ExplorationResult) []models.Hardware {
	t.Helper()
	var visited []models.Hardware
	for g.HasNext() {
		hw, ok := g.Next()
		require.True(t, ok)
		require.Less(t, len(visited), 100, "guidance does not terminate")
		outcome, known := outcomes[hw]
		require.True(t, known, "unexpected candidate %s", hw)
		visited = append(visited, hw)
		g.Observe(outcome)
	}
	return visited
}

func TestJiraGuidanceStopsOnDiminishingReturns(t *testing.T) {
	g, err := NewJiraGuidance(JiraPlan{InstanceTypes: []string{"A", "B"}, MinNodeCount: 1, MaxNodeCount: 4}, thresholds, nil, nil)
	require.NoError(t, err)

	visited := drive(t, g, map[models.Hardware]models.ExplorationResult{
		node("A", 1): result(node("A", 1), 0.60, 0.01, 0),
		node("A", 2): result(node("A", 2), 0.75, 0.01, 0),
		node("A", 3): result(node("A", 3), 0.76, 0.01, 0),
		node("B", 1): result(node("B", 1), 0.70, 0.01, 0),
		node("B", 2): result(node("B", 2), 0.80, 0.01, 0),
		node("B", 3): result(node("B", 3), 0.86, 0.01, 0),
		node("B", 4): result(node("B", 4), 0.95, 0.01, 0),
	})

	assert.Equal(t, []models.Hardware{
		node("A", 1), node("A", 2), node("A", 3),
		node("B", 1), node("B", 2), node("B", 3), node("B", 4),
	}, visited)
	assert.False(t, g.HasNext())
	assert.Len(t, g.History(), 7)
}

func TestJiraGuidanceEqualGainContinues(t *testing.T) {
	th := thresholds
	th.MinApdexGain = 0.25
	g, err := NewJiraGuidance(JiraPlan{InstanceTypes: []string{"A"}, MinNodeCount: 1, MaxNodeCount: 3}, th, nil, nil)
	require.NoError(t, err)

	// 0.25 and 0.5 are exact in binary, so the gain equals the threshold exactly
	visited := drive(t, g, map[models.Hardware]models.ExplorationResult{
		node("A", 1): result(node("A", 1), 0.25, 0, 0),
		node("A", 2): result(node("A", 2), 0.5, 0, 0),
		node("A", 3): result(node("A", 3), 0.5, 0, 0),
	})
	assert.Equal(t, []models.Hardware{node("A", 1), node("A", 2), node("A", 3)}, visited)
}

func TestJiraGuidanceStopsOnErrorsAndTotalFailure(t *testing.T) {
	g, err := NewJiraGuidance(JiraPlan{InstanceTypes: []string{"A", "B", "C"}, MinNodeCount: 1, MaxNodeCount: 5}, thresholds, nil, nil)
	require.NoError(t, err)

	visited := drive(t, g, map[models.Hardware]models.ExplorationResult{
		node("A", 1): result(node("A", 1), 0.60, 0, 0),
		node("A", 2): result(node("A", 2), 0.90, 0, 0.20),
		node("B", 1): failed(node("B", 1)),
		node("C", 1): result(node("C", 1), 0.60, 0, 0),
		node("C", 2): result(node("C", 2), 0.70, 0, 0),
		node("C", 3): result(node("C", 3), 0.80, 0, 0),
		node("C", 4): result(node("C", 4), 0.90, 0, 0),
		node("C", 5): result(node("C", 5), 0.99, 0, 0),
	})
	assert.Equal(t, []models.Hardware{
		node("A", 1), node("A", 2),
		node("B", 1),
		node("C", 1), node("C", 2), node("C", 3), node("C", 4), node("C", 5),
	}, visited)
}

func TestJiraGuidanceResumesFromHistory(t *testing.T) {
	plan := JiraPlan{InstanceTypes: []string{"A", "B"}, MinNodeCount: 1, MaxNodeCount: 3}
	prior := []models.ExplorationResult{
		result(node("A", 1), 0.60, 0, 0),
		result(node("A", 2), 0.62, 0, 0),
		result(node("B", 1), 0.50, 0, 0),
	}
	g, err := NewJiraGuidance(plan, thresholds, prior, nil)
	require.NoError(t, err)

	hw, ok := g.Next()
	require.True(t, ok)
	assert.Equal(t, node("B", 2), hw)

	// the guidance must not alias the slice it was built from
	prior[2] = failed(node("B", 1))
	hw, _ = g.Next()
	assert.Equal(t, node("B", 2), hw)
}

func TestJiraGuidanceLogsAmbiguousGain(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	g, err := NewJiraGuidance(JiraPlan{InstanceTypes: []string{"A"}, MinNodeCount: 1, MaxNodeCount: 3}, thresholds, nil, zap.New(core))
	require.NoError(t, err)

	g.Observe(result(node("A", 1), 0.60, 0.03, 0))
	g.Observe(result(node("A", 2), 0.64, 0.03, 0))

	ambiguous := logs.FilterMessage("Apdex gain is within the measurement spread of the threshold").All()
	require.Len(t, ambiguous, 1)
	assert.Equal(t, false, ambiguous[0].ContextMap()["continue"])
	assert.False(t, g.HasNext())
}

func TestJiraPlanValidation(t *testing.T) {
	_, err := NewJiraGuidance(JiraPlan{MinNodeCount: 1, MaxNodeCount: 2}, thresholds, nil, nil)
	assert.Error(t, err)
	_, err = NewJiraGuidance(JiraPlan{InstanceTypes: []string{"A"}, MinNodeCount: 3, MaxNodeCount: 2}, thresholds, nil, nil)
	assert.Error(t, err)
	_, err = NewJiraGuidance(JiraPlan{InstanceTypes: []string{"A"}, MinNodeCount: 1, MaxNodeCount: 2}, Thresholds{MaxErrorRate: 2}, nil, nil)
	assert.Error(t, err)
}

func TestDatabaseGuidanceOrder(t *testing.T) {
	first, second := node("c5.4xlarge", 3), node("c5.2xlarge", 4)
	g, err := NewDatabaseGuidance(DatabasePlan{
		Jira:          []models.Hardware{first, second},
		InstanceTypes: []string{"m5.large", "m5.xlarge", "m5.2xlarge"},
	}, thresholds, nil, nil)
	require.NoError(t, err)

	db := func(hw models.Hardware, instanceType string) models.Hardware { return hw.WithDatabase(instanceType) }
	visited := drive(t, g, map[models.Hardware]models.ExplorationResult{
		db(first, "m5.large"):    result(db(first, "m5.large"), 0.70, 0, 0),
		db(first, "m5.xlarge"):   result(db(first, "m5.xlarge"), 0.72, 0, 0),
		db(second, "m5.large"):   result(db(second, "m5.large"), 0.60, 0, 0),
		db(second, "m5.xlarge"):  result(db(second, "m5.xlarge"), 0.70, 0, 0),
		db(second, "m5.2xlarge"): result(db(second, "m5.2xlarge"), 0.71, 0, 0),
	})

	assert.Equal(t, []models.Hardware{
		db(first, "m5.large"), db(first, "m5.xlarge"),
		db(second, "m5.large"), db(second, "m5.xlarge"), db(second, "m5.2xlarge"),
	}, visited)
}

func TestDatabaseGuidanceResumesFromHistory(t *testing.T) {
	first, second, third := node("c5.4xlarge", 3), node("c5.2xlarge", 4), node("m5.4xlarge", 3)
	plan := DatabasePlan{
		Jira:          []models.Hardware{first, second, third},
		InstanceTypes: []string{"m5.large", "m5.xlarge", "m5.2xlarge"},
	}
	db := func(hw models.Hardware, instanceType string) models.Hardware { return hw.WithDatabase(instanceType) }

	// out of order on purpose: the state comes from the results, not their sequence
	prior := []models.ExplorationResult{
		result(db(second, "m5.xlarge"), 0.70, 0, 0),
		result(db(first, "m5.xlarge"), 0.72, 0, 0),
		result(db(second, "m5.large"), 0.60, 0, 0),
		result(db(first, "m5.large"), 0.70, 0, 0),
	}
	g, err := NewDatabaseGuidance(plan, thresholds, prior, nil)
	require.NoError(t, err)
	assert.Len(t, g.History(), 4)

	hw, ok := g.Next()
	require.True(t, ok)
	assert.Equal(t, db(second, "m5.2xlarge"), hw, "the first axis stopped on a small gain, the second resumes mid-axis")

	visited := drive(t, g, map[models.Hardware]models.ExplorationResult{
		db(second, "m5.2xlarge"): result(db(second, "m5.2xlarge"), 0.71, 0, 0),
		db(third, "m5.large"):    failed(db(third, "m5.large")),
	})
	assert.Equal(t, []models.Hardware{db(second, "m5.2xlarge"), db(third, "m5.large")}, visited)
	assert.Len(t, g.History(), 6)
}

func TestPlanCandidates(t *testing.T) {
	jira := JiraPlan{InstanceTypes: []string{"A", "B"}, MinNodeCount: 2, MaxNodeCount: 3}
	assert.Equal(t, []models.Hardware{node("A", 2), node("A", 3), node("B", 2), node("B", 3)}, jira.Candidates())

	db := DatabasePlan{Jira: []models.Hardware{node("A", 3)}, InstanceTypes: []string{"m5.large", "m5.xlarge"}}
	assert.Equal(t, []models.Hardware{
		node("A", 3).WithDatabase("m5.large"),
		node("A", 3).WithDatabase("m5.xlarge"),
	}, db.Candidates())
}

func TestDatabasePlanValidation(t *testing.T) {
	_, err := NewDatabaseGuidance(DatabasePlan{InstanceTypes: []string{"m5.large"}}, thresholds, nil, nil)
	assert.Error(t, err)
	_, err = NewDatabaseGuidance(DatabasePlan{
		Jira:          []models.Hardware{node("A", 1).WithDatabase("m5.large")},
		InstanceTypes: []string{"m5.large"},
	}, thresholds, nil, nil)
	assert.Error(t, err)
}

func TestBestByApdex(t *testing.T) {
	results := []models.ExplorationResult{
		result(node("A", 1), 0.99, 0, 0),    // below availability
		result(node("A", 2), 0.80, 0, 0),    // eligible
		result(node("A", 3), 0.90, 0.20, 0), // unstable
		result(node("B", 2), 0.85, 0, 0.10), // rejected
		failed(node("B", 3)),
		result(node("B", 4), 0.88, 0, 0), // eligible
		result(node("C", 2), 0.80, 0, 0), // ties with A@2
		result(node("A", 2).WithDatabase("m5.large"), 0.95, 0, 0),
	}

	assert.Equal(t, []models.Hardware{node("B", 4), node("A", 2), node("C", 2)}, BestByApdex(results, thresholds, 0))
	assert.Equal(t, []models.Hardware{node("B", 4)}, BestByApdex(results, thresholds, 1))
}

func TestDecide(t *testing.T) {
	prev := result(node("A", 1), 0.60, 0, 0)
	assert.True(t, Decide(nil, prev, thresholds).Continue)
	assert.False(t, Decide(&prev, result(node("A", 2), 0.64, 0, 0), thresholds).Continue)
	assert.True(t, Decide(&prev, result(node("A", 2), 0.70, 0, 0), thresholds).Continue)

	skipped := models.ExplorationResult{Hardware: node("A", 2), Skipped: "trial budget exhausted"}
	d := Decide(&prev, skipped, thresholds)
	assert.False(t, d.Continue)
	assert.Contains(t, d.Reason, "budget")
}
