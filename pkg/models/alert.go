package models

import (
	"math"
	"time"
)

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// SeverityFromDeviation classifies an alert by how far the observed value
// strayed from its threshold, relative to the threshold.
func SeverityFromDeviation(deviation float64) AlertSeverity {
	switch {
	case deviation > 0.5:
		return SeverityCritical
	case deviation > 0.3:
		return SeverityHigh
	case deviation > 0.1:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusSuppressed   AlertStatus = "suppressed"
	AlertStatusCancelled    AlertStatus = "cancelled"
)

type AlertActionType string

const (
	AlertActionNotify    AlertActionType = "notify"
	AlertActionChat      AlertActionType = "chat"
	AlertActionAutoScale AlertActionType = "auto_scale"
)

// AlertAction is one response attached to an alert when it is raised
type AlertAction struct {
	Type   AlertActionType `json:"type"`
	Target string          `json:"target,omitempty"`
}

// EscalationRule describes one rung of the escalation ladder: after Delay
// without resolution, the alert moves to Level and the actions run again.
type EscalationRule struct {
	Level   int               `json:"level"`
	Delay   time.Duration     `json:"delay"`
	Actions []AlertActionType `json:"actions,omitempty"`
}

// Alert is a raised threshold breach and its lifecycle state
type Alert struct {
	ID              string        `json:"id"`
	ResourceID      string        `json:"resource_id"`
	MetricName      string        `json:"metric_name"`
	ThresholdID     string        `json:"threshold_id"`
	Severity        AlertSeverity `json:"severity"`
	Status          AlertStatus   `json:"status"`
	CurrentValue    float64       `json:"current_value"`
	ThresholdValue  float64       `json:"threshold_value"`
	EscalationLevel int           `json:"escalation_level"`
	Message         string        `json:"message"`
	Actions         []AlertAction `json:"actions,omitempty"`
	TriggeredAt     time.Time     `json:"triggered_at"`
	CreatedAt       time.Time     `json:"created_at"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty"`
}

// IsActive reports whether the alert still demands attention
func (a *Alert) IsActive() bool {
	return a.Status == AlertStatusActive
}

// RelativeDeviation is how far the observed value is from the threshold,
// as a fraction of the threshold value.
func (a *Alert) RelativeDeviation() float64 {
	if a.ThresholdValue == 0 {
		return 0
	}
	return math.Abs(a.CurrentValue-a.ThresholdValue) / math.Abs(a.ThresholdValue)
}
