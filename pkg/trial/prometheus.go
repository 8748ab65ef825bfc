package trial

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"go.uber.org/zap"

	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/workspace"
)

// Queries are PromQL templates evaluated at the end of the trial window.
// %s is replaced with the window as a range duration, e.g. "45m".
type Queries struct {
	Apdex      string `yaml:"apdex"`
	ErrorRate  string `yaml:"errorRate"`
	Throughput string `yaml:"throughput"`
}

// DefaultQueries match the metrics exported by the load generators
var DefaultQueries = Queries{
	Apdex: `(sum(increase(hwx_requests_satisfied_total[%[1]s])) + sum(increase(hwx_requests_tolerating_total[%[1]s])) / 2)` +
		` / sum(increase(hwx_requests_total[%[1]s]))`,
	ErrorRate:  `sum(increase(hwx_requests_failed_total[%[1]s])) / sum(increase(hwx_requests_total[%[1]s]))`,
	Throughput: `sum(increase(hwx_requests_total[%[1]s])) / %[2]d`,
}

// PrometheusSource reads trial measurements from a Prometheus server
type PrometheusSource struct {
	client  v1.API
	url     string
	queries Queries
	logger  *zap.Logger
}

func NewPrometheusSource(url string, queries Queries, logger *zap.Logger) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{
		Address: url,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	if queries == (Queries{}) {
		queries = DefaultQueries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PrometheusSource{
		client:  v1.NewAPI(client),
		url:     url,
		queries: queries,
		logger:  logger,
	}, nil
}

// Measure evaluates the three queries over the trial window
func (p *PrometheusSource) Measure(ctx context.Context, hw models.Hardware, _ workspace.Trial, window Window) (*models.Measurement, error) {
	span := window.End.Sub(window.Start).Truncate(time.Second)
	if span < time.Second {
		span = time.Second
	}
	rangeArg := model.Duration(span).String()
	seconds := int(span.Seconds())

	apdex, err := p.querySingle(ctx, fmt.Sprintf(p.queries.Apdex, rangeArg, seconds), window.End)
	if err != nil {
		return nil, fmt.Errorf("apdex query failed: %w", err)
	}

	errorRate, err := p.querySingle(ctx, fmt.Sprintf(p.queries.ErrorRate, rangeArg, seconds), window.End)
	if err != nil {
		return nil, fmt.Errorf("error rate query failed: %w", err)
	}

	throughput, err := p.querySingle(ctx, fmt.Sprintf(p.queries.Throughput, rangeArg, seconds), window.End)
	if err != nil {
		return nil, fmt.Errorf("throughput query failed: %w", err)
	}

	m := models.Measurement{Apdex: apdex, ErrorRate: errorRate, Throughput: throughput}
	if err := check(m); err != nil {
		return nil, fmt.Errorf("measurement of %s: %w", hw, err)
	}
	return &m, nil
}

func (p *PrometheusSource) querySingle(ctx context.Context, query string, at time.Time) (float64, error) {
	result, warnings, err := p.client.Query(ctx, query, at)
	if err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}

	if len(warnings) > 0 {
		p.logger.Warn("Prometheus returned warnings", zap.Strings("warnings", warnings))
	}

	vector, ok := result.(model.Vector)
	if !ok || len(vector) == 0 {
		return 0, fmt.Errorf("no data for query: %s", query)
	}

	sum := 0.0
	for _, sample := range vector {
		sum += float64(sample.Value)
	}

	return sum, nil
}

// IsAvailable checks that the server answers queries
func (p *PrometheusSource) IsAvailable(ctx context.Context) bool {
	_, _, err := p.client.Query(ctx, "up", time.Now())
	return err == nil
}

func (p *PrometheusSource) Name() string {
	return "Prometheus"
}
