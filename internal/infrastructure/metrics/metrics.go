// Package metrics records pipeline counters with Prometheus collectors and
// exports them in the node-exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/platewise/reviewpipe/internal/domain"
)

const namespace = "reviewpipe"

// Recorder holds the Prometheus collectors for one run. It implements domain.MetricsRecorder.
type Recorder struct {
	registry *prometheus.Registry

	harvested    *prometheus.CounterVec
	failures     *prometheus.CounterVec
	candidates   *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	finalMatches prometheus.Gauge
	statements   prometheus.Gauge
}

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		harvested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reviews_harvested_total",
				Help:      "Reviews collected per provider.",
			},
			[]string{"source"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_failures_total",
				Help:      "Failed provider calls per provider.",
			},
			[]string{"source"},
		),
		candidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_candidates_total",
				Help:      "Match candidates by matching pass.",
			},
			[]string{"match_type"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_rejections_total",
				Help:      "Matcher rejections by reason.",
			},
			[]string{"reason"},
		),
		finalMatches: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "final_matches",
				Help:      "Matches kept after ranking and deduplication.",
			},
		),
		statements: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "statements_generated",
				Help:      "Insert statements in the generated file.",
			},
		),
	}

	r.registry.MustRegister(
		r.harvested,
		r.failures,
		r.candidates,
		r.rejections,
		r.finalMatches,
		r.statements,
	)
	return r
}

// Registry returns the registry holding the run's collectors
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ReviewsHarvested(source domain.Source, n int) {
	r.harvested.WithLabelValues(string(source)).Add(float64(n))
}

func (r *Recorder) ProviderFailure(source domain.Source) {
	r.failures.WithLabelValues(string(source)).Inc()
}

func (r *Recorder) MatchOutcomes(stats domain.MatchStats) {
	r.candidates.WithLabelValues(string(domain.MatchTypeName)).Add(float64(stats.Name))
	r.candidates.WithLabelValues(string(domain.MatchTypeKeyword)).Add(float64(stats.Keyword))
	for reason, n := range stats.Reasons {
		r.rejections.WithLabelValues(reason).Add(float64(n))
	}
	r.finalMatches.Set(float64(stats.Final))
}

func (r *Recorder) StatementsGenerated(n int) {
	r.statements.Set(float64(n))
}

// WriteTextfile writes all collected metrics to path for the node exporter textfile collector
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
