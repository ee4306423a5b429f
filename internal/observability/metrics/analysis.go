package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type AnalysisMetrics struct {
	registry *prometheus.Registry

	batchTotal       *prometheus.CounterVec
	batchDuration    *prometheus.HistogramVec
	documentsTotal   *prometheus.CounterVec
	anomaliesFlagged prometheus.Counter
	batchInFlight    prometheus.Gauge
}

func NewAnalysisMetrics(service string) *AnalysisMetrics {
	registry := prometheus.NewRegistry()

	batchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "worker",
			Name:      "batch_runs_total",
			Help:      "Total batch runs by status.",
		},
		[]string{"service", "status"},
	)
	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintel",
			Subsystem: "worker",
			Name:      "batch_run_duration_seconds",
			Help:      "Batch run duration in seconds by status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "status"},
	)
	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "worker",
			Name:      "documents_total",
			Help:      "Documents handled per batch, by outcome.",
		},
		[]string{"service", "outcome"},
	)
	anomaliesFlagged := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "worker",
			Name:      "anomalies_flagged_total",
			Help:      "Statistical amount anomalies flagged across batch runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	batchInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docintel",
			Subsystem: "worker",
			Name:      "batch_runs_in_flight",
			Help:      "Number of in-flight batch runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(batchTotal, batchDuration, documentsTotal, anomaliesFlagged, batchInFlight)

	return &AnalysisMetrics{
		registry:         registry,
		batchTotal:       batchTotal,
		batchDuration:    batchDuration,
		documentsTotal:   documentsTotal,
		anomaliesFlagged: anomaliesFlagged,
		batchInFlight:    batchInFlight,
	}
}

func (m *AnalysisMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *AnalysisMetrics) StartBatch() {
	m.batchInFlight.Inc()
}

func (m *AnalysisMetrics) FinishBatch(service string, duration time.Duration, processed, skipped, anomalies int, err error) {
	m.batchInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.batchTotal.WithLabelValues(service, status).Inc()
	m.batchDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	m.documentsTotal.WithLabelValues(service, "processed").Add(float64(processed))
	m.documentsTotal.WithLabelValues(service, "skipped").Add(float64(skipped))
	m.anomaliesFlagged.Add(float64(anomalies))
}
