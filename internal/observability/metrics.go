package observability

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "katz_eval"

var (
	registerOnce  sync.Once
	registry      *prometheus.Registry
	parseOutcomes *prometheus.CounterVec
	modelDuration *prometheus.HistogramVec
	modelFailures *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	analysisRuns  *prometheus.CounterVec
	unparsedRatio *prometheus.GaugeVec
)

// RegisterMetrics initialises the Prometheus collectors used by the pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		registry = prometheus.NewRegistry()

		parseOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_outcomes_total",
			Help:      "Model responses by the parser rule that matched, or unparsed/missing.",
		}, []string{"variant", "outcome"})

		modelDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Duration of language model requests.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"model"})

		modelFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_request_failures_total",
			Help:      "Number of failed language model requests.",
		}, []string{"model"})

		cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"})

		analysisRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Completed analysis runs.",
		}, []string{"variant"})

		unparsedRatio = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analysis_unparsed_ratio",
			Help:      "Share of responses in the latest run that could not be parsed.",
		}, []string{"variant"})

		registry.MustRegister(parseOutcomes, modelDuration, modelFailures, cacheLookups, analysisRuns, unparsedRatio)
	})
}

// Registry exposes the registry holding every pipeline collector.
func Registry() *prometheus.Registry {
	RegisterMetrics()
	return registry
}

// ParseOutcomes exposes the counter of parser outcomes.
func ParseOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return parseOutcomes
}

// ModelDuration exposes the model request latency histogram.
func ModelDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return modelDuration
}

// ModelFailures exposes the counter of failed model requests.
func ModelFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return modelFailures
}

// CacheLookups exposes the response cache counter.
func CacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheLookups
}

// AnalysisRuns exposes the counter of completed analysis runs.
func AnalysisRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return analysisRuns
}

// UnparsedRatio exposes the gauge of the latest unparsed share.
func UnparsedRatio() *prometheus.GaugeVec {
	RegisterMetrics()
	return unparsedRatio
}

// WriteTextfile dumps every collector in the Prometheus text format, for
// pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry()); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
