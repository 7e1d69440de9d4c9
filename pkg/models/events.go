package models

import "time"

// EventType enumerates every event the engine emits
type EventType string

const (
	EventTypeThresholdCreated        EventType = "threshold_created"
	EventTypeThresholdUpdated        EventType = "threshold_updated"
	EventTypeAlertCreated            EventType = "alert_created"
	EventTypeAlertAcknowledged       EventType = "alert_acknowledged"
	EventTypeAlertResolved           EventType = "alert_resolved"
	EventTypeAlertSuppressed         EventType = "alert_suppressed"
	EventTypeAlertCancelled          EventType = "alert_cancelled"
	EventTypeAlertEscalated          EventType = "alert_escalated"
	EventTypeScalingDecisionMade     EventType = "scaling_decision_made"
	EventTypeScalingExecuted         EventType = "scaling_executed"
	EventTypeScalingSkipped          EventType = "scaling_skipped"
	EventTypeScalingFailed           EventType = "scaling_failed"
	EventTypeRollbackFailed          EventType = "rollback_failed"
	EventTypeRecommendationGenerated EventType = "recommendation_generated"
	EventTypeRecommendationExpired   EventType = "recommendation_expired"
	EventTypeBatchRecommendationDone EventType = "batch_recommendation_completed"
	EventTypeEvaluationError         EventType = "evaluation_error"
)

type EventSeverity string

const (
	EventSeverityInfo     EventSeverity = "info"
	EventSeverityWarning  EventSeverity = "warning"
	EventSeverityCritical EventSeverity = "critical"
)

// Event is one occurrence published on the engine's event bus. Data carries
// the typed payload (decision, alert, record, recommendation) when one exists.
type Event struct {
	ID         string        `json:"id"`
	Type       EventType     `json:"type"`
	ResourceID string        `json:"resource_id,omitempty"`
	Severity   EventSeverity `json:"severity"`
	Message    string        `json:"message"`
	Data       interface{}   `json:"data,omitempty"`
	TraceID    string        `json:"trace_id,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

func NewEvent(eventType EventType, resourceID, message string) *Event {
	return &Event{
		ID:         NewUUID(),
		Type:       eventType,
		ResourceID: resourceID,
		Severity:   EventSeverityInfo,
		Message:    message,
		Timestamp:  time.Now(),
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}
