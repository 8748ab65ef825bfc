package reporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/hardware-explorer/pkg/guidance"
	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/pricing"
	"github.com/opscart/hardware-explorer/pkg/recommender"
)

func explored(instanceType string, nodes int, apdex, spread float64) models.ExplorationResult {
	hw := models.Hardware{InstanceType: instanceType, NodeCount: nodes}
	return models.ExplorationResult{
		Hardware: hw,
		Result: &models.AggregatedResult{
			Hardware:   hw,
			Apdex:      models.Stat{Mean: apdex, Spread: spread},
			ErrorRate:  models.Stat{Mean: 0.01234, Spread: 0.001},
			Throughput: models.Stat{Mean: 12.5, Spread: 0.25},
			Repeats:    2,
		},
		Attempts: 2,
	}
}

func sampleResults() []models.ExplorationResult {
	return []models.ExplorationResult{
		explored("c5.2xlarge", 2, 0.6, 0.01),
		explored("c5.2xlarge", 1, 0.5, 0.01),
		explored("c5.4xlarge", 1, 0.70, 0.0125),
		explored("c5.4xlarge", 2, 0.8005, 0.01),
		{Hardware: models.Hardware{InstanceType: "c5.4xlarge", NodeCount: 3}, Attempts: 2, Failures: 2},
	}
}

func newReporter(t *testing.T, format ReportFormat) *Reporter {
	t.Helper()
	provider, err := pricing.NewProvider(pricing.Config{})
	require.NoError(t, err)
	th := guidance.Thresholds{MaxApdexSpread: 0.1, MaxErrorRate: 0.05, MinNodeCountForAvailability: 2}
	return New(format, recommender.New(th, provider))
}

func TestGenerateGroupsSeries(t *testing.T) {
	report, err := newReporter(t, FormatHTML).Generate(context.Background(), sampleResults(), "jira-xl")
	require.NoError(t, err)

	assert.Equal(t, 5, report.CandidateCount)
	assert.Equal(t, 4, report.SucceededCount)
	assert.Equal(t, 1, report.FailedCount)

	require.Len(t, report.Series, 2)
	assert.Equal(t, "c5.2xlarge", report.Series[0].Label)
	assert.Equal(t, []int{1, 2}, []int{report.Series[0].Points[0].NodeCount, report.Series[0].Points[1].NodeCount})

	p := report.Series[1].Points[1]
	assert.Equal(t, "0.801", p.Apdex.String())
	assert.Equal(t, "1.23", p.ErrorRate.String())
	assert.Equal(t, "13", p.Throughput.String())
	assert.Equal(t, "0.013", report.Series[1].Points[0].ApdexSpread.String())

	require.Len(t, report.Recommendations, 2)
	assert.Equal(t, models.Hardware{InstanceType: "c5.2xlarge", NodeCount: 2}, report.Recommendations[0].Hardware)
}

func TestGenerateHTML(t *testing.T) {
	report, err := newReporter(t, FormatHTML).Generate(context.Background(), sampleResults(), "jira-xl")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, GenerateHTML(report, &buf))

	html := buf.String()
	assert.Contains(t, html, "Hardware Exploration - jira-xl")
	assert.Contains(t, html, `"label":"c5.4xlarge"`)
	assert.Contains(t, html, `{"x":2,"y":0.801,"plus":0.01,"minus":0.01}`)
	assert.Contains(t, html, "verdict-below_availability")
	assert.Contains(t, html, "All 2 repeats failed")
}

func TestGenerateCSV(t *testing.T) {
	report, err := newReporter(t, FormatCSV).Generate(context.Background(), sampleResults(), "jira-xl")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, GenerateCSV(report, &buf))

	r := csv.NewReader(strings.NewReader(buf.String()))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, "Instance Type", rows[0][0])
	assert.Equal(t, []string{"c5.4xlarge", "2", "", "RECOMMENDED", "0.801", "0.010", "1.23", "0.10", "13", "0.25", "2", "0"}, rows[4][:12])
	assert.Equal(t, "FAILED", rows[5][3])
	assert.Equal(t, "", rows[5][4])
}

func TestRenderPicksFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	rep := newReporter(t, "")

	htmlPath := filepath.Join(dir, "nested", "report.html")
	require.NoError(t, rep.Render(context.Background(), sampleResults(), "jira-xl", htmlPath))
	data, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))

	csvPath := filepath.Join(dir, "report.csv")
	require.NoError(t, rep.Render(context.Background(), sampleResults(), "jira-xl", csvPath))
	data, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Instance Type,"))

	assert.Error(t, rep.Render(context.Background(), sampleResults(), "jira-xl", filepath.Join(dir, "report.pdf")))
}
