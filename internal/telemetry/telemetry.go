package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	EvaluationsTotal      *prometheus.CounterVec
	EvaluationErrorsTotal *prometheus.CounterVec
	AlertsCreatedTotal    *prometheus.CounterVec
	ActiveAlerts          prometheus.Gauge
	ScalingsTotal         *prometheus.CounterVec
	InFlightScalings      prometheus.Gauge
	RecommendationsTotal  *prometheus.CounterVec
	BatchDuration         prometheus.Histogram
	StoredRecommendations prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scaling_engine",
			Name:      "evaluations_total",
			Help:      "Threshold evaluations performed, by resource.",
		}, []string{"resource_id"}),
		EvaluationErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scaling_engine",
			Name:      "evaluation_errors_total",
			Help:      "Evaluation cycles that failed, by resource.",
		}, []string{"resource_id"}),
		AlertsCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scaling_engine",
			Name:      "alerts_created_total",
			Help:      "Alerts created, by severity.",
		}, []string{"severity"}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scaling_engine",
			Name:      "active_alerts",
			Help:      "Number of currently active alerts.",
		}),
		ScalingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scaling_engine",
			Name:      "scalings_total",
			Help:      "Scaling executions, by action and outcome.",
		}, []string{"action", "status"}),
		InFlightScalings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scaling_engine",
			Name:      "in_flight_scalings",
			Help:      "Number of scaling operations currently executing.",
		}),
		RecommendationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scaling_engine",
			Name:      "recommendations_generated_total",
			Help:      "Recommendations accepted by the scorer, by strategy.",
		}, []string{"strategy"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scaling_engine",
			Name:      "recommendation_batch_duration_seconds",
			Help:      "Duration of recommendation batch runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		StoredRecommendations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scaling_engine",
			Name:      "stored_recommendations",
			Help:      "Recommendations currently held in the store.",
		}),
	}

	registry.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationErrorsTotal,
		m.AlertsCreatedTotal,
		m.ActiveAlerts,
		m.ScalingsTotal,
		m.InFlightScalings,
		m.RecommendationsTotal,
		m.BatchDuration,
		m.StoredRecommendations,
	)

	return m
}

// Handler exposes the registry for a /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
