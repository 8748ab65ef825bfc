package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// GenerateCSV creates a CSV report
func GenerateCSV(report *Report, writer io.Writer) error {
	w := csv.NewWriter(writer)

	// Write header
	header := []string{
		"Instance Type",
		"Nodes",
		"Database",
		"Verdict",
		"Apdex",
		"Apdex Spread",
		"Error Rate (%)",
		"Error Rate Spread (%)",
		"Throughput (req/s)",
		"Throughput Spread",
		"Repeats",
		"Failures",
		"Reason",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write assessments
	for _, a := range report.Assessments {
		row := []string{
			a.Hardware.InstanceType,
			strconv.Itoa(a.Hardware.NodeCount),
			a.Hardware.DatabaseInstanceType,
			string(a.Verdict),
			"", "", "", "", "", "",
			"0",
			strconv.Itoa(a.Failures),
			a.Reason,
		}
		if a.Result != nil {
			p := point(a.ExplorationResult)
			row[4] = p.Apdex.StringFixed(3)
			row[5] = p.ApdexSpread.StringFixed(3)
			row[6] = p.ErrorRate.StringFixed(2)
			row[7] = p.ErrorRateSpread.StringFixed(2)
			row[8] = p.Throughput.String()
			row[9] = p.ThroughputSpread.StringFixed(2)
			row[10] = strconv.Itoa(a.Result.Repeats)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	// Write summary rows
	summary := [][]string{
		{},
		{"SUMMARY"},
		{"Workload", report.Workload},
		{"Candidates Explored", strconv.Itoa(report.CandidateCount)},
		{"Succeeded", strconv.Itoa(report.SucceededCount)},
		{"Failed", strconv.Itoa(report.FailedCount)},
		{},
		{"RECOMMENDATIONS"},
		{"Rank", "Hardware", "Apdex", "Hourly ($)", "Monthly ($)"},
	}
	for _, rec := range report.Recommendations {
		summary = append(summary, []string{
			strconv.Itoa(rec.Rank),
			rec.Hardware.String(),
			point(recResult(rec)).Apdex.StringFixed(3),
			fmt.Sprintf("%.3f", rec.HourlyCost),
			fmt.Sprintf("%.2f", rec.MonthlyCost),
		})
	}
	if err := w.WriteAll(summary); err != nil {
		return fmt.Errorf("failed to write CSV summary: %w", err)
	}
	return nil
}
