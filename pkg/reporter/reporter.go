package reporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/recommender"
	"github.com/opscart/hardware-explorer/pkg/stats"
)

// ReportFormat represents the output format
type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatCSV  ReportFormat = "csv"
)

// Report contains all data for generating reports
type Report struct {
	Workload        string
	GeneratedAt     time.Time
	Series          []Series
	Assessments     []models.Assessment
	Recommendations []models.Recommendation

	CandidateCount int
	SucceededCount int
	FailedCount    int
}

// Series is one line of the charts: a hardware family over node counts
type Series struct {
	Label  string
	Points []Point
}

// Point holds presentation values, rounded half-up
type Point struct {
	NodeCount int

	Apdex            decimal.Decimal
	ApdexSpread      decimal.Decimal
	ErrorRate        decimal.Decimal // percent
	ErrorRateSpread  decimal.Decimal // percent
	Throughput       decimal.Decimal
	ThroughputSpread decimal.Decimal
}

// Reporter generates hardware exploration reports
type Reporter struct {
	format      ReportFormat
	recommender *recommender.Recommender
}

// New creates a new reporter
func New(format ReportFormat, rec *recommender.Recommender) *Reporter {
	return &Reporter{
		format:      format,
		recommender: rec,
	}
}

// Generate generates a report from exploration results
func (r *Reporter) Generate(ctx context.Context, results []models.ExplorationResult, workload string) (*Report, error) {
	recommendations, err := r.recommender.Recommend(ctx, results)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Workload:        workload,
		GeneratedAt:     time.Now(),
		Series:          series(results),
		Assessments:     r.recommender.AssessAll(results),
		Recommendations: recommendations,
		CandidateCount:  len(results),
	}
	for _, result := range results {
		if result.Succeeded() {
			report.SucceededCount++
		} else {
			report.FailedCount++
		}
	}
	return report, nil
}

// Render writes the report for results to path. The format follows the
// reporter's, or the file extension when the reporter has none.
func (r *Reporter) Render(ctx context.Context, results []models.ExplorationResult, workload, path string) error {
	report, err := r.Generate(ctx, results, workload)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	format := r.format
	if format == "" {
		format = ReportFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatHTML, "htm":
		err = GenerateHTML(report, file)
	case FormatCSV:
		err = GenerateCSV(report, file)
	default:
		err = fmt.Errorf("unknown report format: %q", format)
	}
	if err != nil {
		return err
	}
	return file.Close()
}

// series groups successful results by hardware family in order of first
// appearance, each sorted by node count
func series(results []models.ExplorationResult) []Series {
	var out []Series
	index := make(map[string]int)

	for _, result := range results {
		if result.Result == nil {
			continue
		}
		label := result.Hardware.InstanceType
		if result.Hardware.HasDatabase() {
			label += " + db " + result.Hardware.DatabaseInstanceType
		}

		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, Series{Label: label})
		}
		out[i].Points = insertPoint(out[i].Points, point(result))
	}
	return out
}

// insertPoint keeps points sorted by node count; a later result for the same
// node count replaces the earlier one
func insertPoint(points []Point, p Point) []Point {
	for i, existing := range points {
		if existing.NodeCount == p.NodeCount {
			points[i] = p
			return points
		}
		if existing.NodeCount > p.NodeCount {
			points = append(points, Point{})
			copy(points[i+1:], points[i:])
			points[i] = p
			return points
		}
	}
	return append(points, p)
}

func point(result models.ExplorationResult) Point {
	agg := result.Result
	return Point{
		NodeCount:        result.Hardware.NodeCount,
		Apdex:            stats.Apdex(agg.Apdex.Mean),
		ApdexSpread:      stats.Apdex(agg.Apdex.Spread),
		ErrorRate:        stats.ErrorRatePercent(agg.ErrorRate.Mean),
		ErrorRateSpread:  stats.ErrorRatePercent(agg.ErrorRate.Spread),
		Throughput:       stats.Throughput(agg.Throughput.Mean),
		ThroughputSpread: stats.RoundHalfUp(agg.Throughput.Spread, 2),
	}
}
