package models

import "time"

// Metric names accepted by thresholds and reported by metric readers
const (
	MetricCPUUsage    = "cpu_usage"
	MetricMemoryUsage = "memory_usage"
	MetricDiskUsage   = "disk_usage"
	MetricNetworkIn   = "network_in"
	MetricNetworkOut  = "network_out"
)

// ResourceMetrics is one utilization sample for a resource. Usage values are
// percentages in [0, 100]. CustomMetrics carries application-defined gauges
// (queue depths, request rates) keyed by metric name.
type ResourceMetrics struct {
	ResourceID    string             `json:"resource_id"`
	Timestamp     time.Time          `json:"timestamp"`
	CPUUsage      float64            `json:"cpu_usage"`
	MemoryUsage   float64            `json:"memory_usage"`
	DiskUsage     float64            `json:"disk_usage"`
	NetworkIn     float64            `json:"network_in"`
	NetworkOut    float64            `json:"network_out"`
	CustomMetrics map[string]float64 `json:"custom_metrics,omitempty"`
}

// Value returns the sample's value for a named metric. Names outside the
// built-in set are looked up in CustomMetrics, defaulting to 0 when absent.
func (m *ResourceMetrics) Value(metricName string) float64 {
	switch metricName {
	case MetricCPUUsage:
		return m.CPUUsage
	case MetricMemoryUsage:
		return m.MemoryUsage
	case MetricDiskUsage:
		return m.DiskUsage
	case MetricNetworkIn:
		return m.NetworkIn
	case MetricNetworkOut:
		return m.NetworkOut
	default:
		return m.CustomMetrics[metricName]
	}
}

// ForecastPoint is one predicted value at a future instant
type ForecastPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	PredictedValue float64   `json:"predicted_value"`
	Confidence     float64   `json:"confidence"`
}

// ForecastSeries is a prediction for one (resource, metric) pair, ordered by
// timestamp ascending.
type ForecastSeries struct {
	ResourceID    string          `json:"resource_id"`
	MetricName    string          `json:"metric_name"`
	ModelName     string          `json:"model_name"`
	ModelAccuracy float64         `json:"model_accuracy"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Points        []ForecastPoint `json:"points"`
}

// ExpectedLoad is the operator's stated expectation for near-term load
type ExpectedLoad string

const (
	LoadLow    ExpectedLoad = "low"
	LoadNormal ExpectedLoad = "normal"
	LoadHigh   ExpectedLoad = "high"
)

// BusinessContext carries the operational situation that scaling choices
// must respect.
type BusinessContext struct {
	IsBusinessHours  bool         `json:"is_business_hours"`
	IsCriticalPeriod bool         `json:"is_critical_period"`
	ExpectedLoad     ExpectedLoad `json:"expected_load"`
}
