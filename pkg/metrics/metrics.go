// Package metrics records exploration progress as Prometheus collectors.
//
// Explorations are batch jobs, so the registry is written to a node-exporter
// textfile at the end of a run instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hardware_explorer"

// Trial outcomes
const (
	OutcomeSuccess   = "success"
	OutcomeTolerated = "tolerated"
	OutcomeFatal     = "fatal"
)

// Cache lookup results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Recorder owns one registry per exploration process
type Recorder struct {
	Registry *prometheus.Registry

	trials     *prometheus.CounterVec
	cache      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	candidates *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		Registry: reg,
		trials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trials_total",
				Help:      "Trials run by instance type and outcome",
			},
			[]string{"instance_type", "outcome"},
		),
		cache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Result cache lookups by result",
			},
			[]string{"result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "trial_duration_seconds",
				Help:      "Wall-clock duration of trials",
				// trials run for minutes to hours
				Buckets: prometheus.ExponentialBuckets(30, 2, 10),
			},
			[]string{"instance_type"},
		),
		candidates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_total",
				Help:      "Candidates explored by whether any repeat succeeded",
			},
			[]string{"succeeded"},
		),
	}
}

// Trial records a finished trial. A nil recorder records nothing.
func (r *Recorder) Trial(instanceType, outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.trials.WithLabelValues(instanceType, outcome).Inc()
	r.duration.WithLabelValues(instanceType).Observe(took.Seconds())
}

func (r *Recorder) CacheLookup(result string) {
	if r == nil {
		return
	}
	r.cache.WithLabelValues(result).Inc()
}

func (r *Recorder) Candidate(succeeded bool) {
	if r == nil {
		return
	}
	label := "false"
	if succeeded {
		label = "true"
	}
	r.candidates.WithLabelValues(label).Inc()
}

// WriteTextfile dumps the registry in the text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}
