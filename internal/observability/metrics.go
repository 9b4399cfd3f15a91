package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cp_performance"

// Calculation error kinds used as the "kind" label of CalculationErrors.
const (
	ErrorKindMalformed     = "malformed"
	ErrorKindConfiguration = "configuration"
	ErrorKindValidation    = "validation"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the calculation service.
type Metrics struct {
	RequestsConsumed  prometheus.Counter
	ReportsProduced   prometheus.Counter
	CalculationErrors *prometheus.CounterVec // labels: kind={malformed,configuration,validation}
	PipelineRunning   prometheus.Gauge

	// Per-calculation metrics.
	RecordsIngested     prometheus.Counter
	RecordsAnalysed     prometheus.Counter
	CalculationDuration prometheus.Histogram

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	ReportsArchived prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_consumed_total",
			Help:      "Total calculation requests read from the source topic.",
		}),
		ReportsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_produced_total",
			Help:      "Total performance reports written to the sink topic.",
		}),
		CalculationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculation_errors_total",
			Help:      "Rejected calculation requests by kind.",
		}, []string{"kind"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		RecordsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_ingested_total",
			Help:      "Telemetry rows received across all calculations.",
		}),
		RecordsAnalysed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_analysed_total",
			Help:      "Telemetry rows that survived period filtering.",
		}),
		CalculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Duration of a single performance calculation.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-calculate-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ReportsArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_archived_total",
			Help:      "Total performance reports saved to the report archive.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestsConsumed,
		m.ReportsProduced,
		m.CalculationErrors,
		m.PipelineRunning,
		m.RecordsIngested,
		m.RecordsAnalysed,
		m.CalculationDuration,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ReportsArchived,
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
