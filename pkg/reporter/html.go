package reporter

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/opscart/hardware-explorer/pkg/models"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Hardware Exploration - {{.Workload}}</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #f5f7fa;
            color: #333;
            margin: 0;
            padding: 20px;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0, 0, 0, 0.1);
        }
        .header {
            background: linear-gradient(135deg, #0052cc 0%, #172b4d 100%);
            color: white;
            padding: 40px;
            border-radius: 8px 8px 0 0;
        }
        .summary {
            display: grid;
            grid-template-columns: repeat(3, 1fr);
            gap: 20px;
            padding: 30px 40px;
        }
        .summary-card {
            border: 1px solid #e8eaed;
            border-radius: 8px;
            padding: 20px;
            text-align: center;
        }
        .summary-card .value {
            font-size: 2.2em;
            font-weight: 700;
        }
        .section {
            padding: 20px 40px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
        }
        th, td {
            padding: 10px;
            border-bottom: 1px solid #e8eaed;
            text-align: left;
        }
        .verdict {
            padding: 4px 10px;
            border-radius: 6px;
            font-size: 0.75em;
            font-weight: 700;
        }
        .verdict-recommended { background: #e6f4ea; color: #1e8e3e; }
        .verdict-failed { background: #fce8e6; color: #d93025; }
        .verdict-rejected { background: #fce8e6; color: #d93025; }
        .verdict-unstable { background: #fef7e0; color: #f9ab00; }
        .verdict-below_availability { background: #f1f3f4; color: #5f6368; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Hardware Exploration</h1>
            <p><strong>Workload:</strong> {{.Workload}}</p>
            <p><strong>Generated:</strong> {{.GeneratedAt.Format "January 2, 2006 15:04:05 MST"}}</p>
        </div>

        <div class="summary">
            <div class="summary-card">
                <h3>Candidates Explored</h3>
                <div class="value">{{.CandidateCount}}</div>
            </div>
            <div class="summary-card">
                <h3>Recommended</h3>
                <div class="value">{{len .Recommendations}}</div>
            </div>
            <div class="summary-card">
                <h3>Failed</h3>
                <div class="value">{{.FailedCount}}</div>
            </div>
        </div>

        <div class="section">
            <h2>Apdex</h2>
            <canvas id="apdex"></canvas>
            <h2>Error rate (%)</h2>
            <canvas id="errorRate"></canvas>
            <h2>Throughput (req/s)</h2>
            <canvas id="throughput"></canvas>
        </div>

        {{if .Recommendations}}
        <div class="section">
            <h2>Recommendations</h2>
            <table>
                <thead>
                    <tr><th>Rank</th><th>Hardware</th><th>Apdex</th><th>Error rate</th><th>Monthly cost</th></tr>
                </thead>
                <tbody>
                    {{range .Recommendations}}
                    <tr>
                        <td>{{.Rank}}</td>
                        <td><strong>{{.Hardware}}</strong></td>
                        <td>{{apdex .}}</td>
                        <td>{{errorRate .}}%</td>
                        <td>${{printf "%.2f" .MonthlyCost}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        <div class="section">
            <h2>All Candidates</h2>
            <table>
                <thead>
                    <tr><th>Hardware</th><th>Verdict</th><th>Repeats</th><th>Failures</th><th>Reason</th></tr>
                </thead>
                <tbody>
                    {{range .Assessments}}
                    <tr>
                        <td>{{.Hardware}}</td>
                        <td><span class="verdict verdict-{{.Verdict | lower}}">{{.Verdict}}</span></td>
                        <td>{{if .Result}}{{.Result.Repeats}}{{else}}0{{end}}</td>
                        <td>{{.Failures}}</td>
                        <td>{{.Reason}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
    </div>
    <script>
        function plot(id, data) {
            new Chart(document.getElementById(id), {
                type: 'line',
                data: data,
                options: { parsing: false, scales: { x: { type: 'linear', title: { display: true, text: 'nodes' } } } }
            });
        }
        plot('apdex', {{.ApdexChart}});
        plot('errorRate', {{.ErrorRateChart}});
        plot('throughput', {{.ThroughputChart}});
    </script>
</body>
</html>
`

type chartPoint struct {
	X     int     `json:"x"`
	Y     float64 `json:"y"`
	Plus  float64 `json:"plus"`
	Minus float64 `json:"minus"`
}

type chartDataset struct {
	Label string       `json:"label"`
	Data  []chartPoint `json:"data"`
}

type chartData struct {
	Datasets []chartDataset `json:"datasets"`
}

// chart builds Chart.js data with one dataset per series
func chart(series []Series, value func(Point) (y, spread float64)) chartData {
	data := chartData{Datasets: make([]chartDataset, 0, len(series))}
	for _, s := range series {
		ds := chartDataset{Label: s.Label, Data: make([]chartPoint, 0, len(s.Points))}
		for _, p := range s.Points {
			y, spread := value(p)
			ds.Data = append(ds.Data, chartPoint{X: p.NodeCount, Y: y, Plus: spread, Minus: spread})
		}
		data.Datasets = append(data.Datasets, ds)
	}
	return data
}

// htmlView adds the chart payloads the template embeds
type htmlView struct {
	*Report
	ApdexChart      chartData
	ErrorRateChart  chartData
	ThroughputChart chartData
}

func newHTMLView(report *Report) htmlView {
	return htmlView{
		Report: report,
		ApdexChart: chart(report.Series, func(p Point) (float64, float64) {
			return p.Apdex.InexactFloat64(), p.ApdexSpread.InexactFloat64()
		}),
		ErrorRateChart: chart(report.Series, func(p Point) (float64, float64) {
			return p.ErrorRate.InexactFloat64(), p.ErrorRateSpread.InexactFloat64()
		}),
		ThroughputChart: chart(report.Series, func(p Point) (float64, float64) {
			return p.Throughput.InexactFloat64(), p.ThroughputSpread.InexactFloat64()
		}),
	}
}

func recResult(rec models.Recommendation) models.ExplorationResult {
	return models.ExplorationResult{Hardware: rec.Hardware, Result: rec.Result}
}

// GenerateHTML creates an HTML report
func GenerateHTML(report *Report, writer io.Writer) error {
	// Parse template
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"lower": func(s interface{}) string {
			return strings.ToLower(fmt.Sprintf("%v", s))
		},
		"apdex": func(rec models.Recommendation) string {
			return point(recResult(rec)).Apdex.StringFixed(3)
		},
		"errorRate": func(rec models.Recommendation) string {
			return point(recResult(rec)).ErrorRate.StringFixed(2)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	// Execute template
	if err := tmpl.Execute(writer, newHTMLView(report)); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}
