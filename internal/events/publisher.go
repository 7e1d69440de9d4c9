package events

import (
	"github.com/platformkit/scaling-engine/pkg/models"
)

// Publisher provides typed emission helpers over the event bus
type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) ThresholdCreated(threshold *models.ScalingThreshold) {
	event := models.NewEvent(models.EventTypeThresholdCreated, threshold.ResourceID, "Threshold created: "+threshold.MetricName).
		WithData(threshold)
	p.publish(event)
}

func (p *Publisher) ThresholdUpdated(threshold *models.ScalingThreshold) {
	event := models.NewEvent(models.EventTypeThresholdUpdated, threshold.ResourceID, "Threshold updated: "+threshold.MetricName).
		WithData(threshold)
	p.publish(event)
}

func (p *Publisher) AlertCreated(alert *models.Alert) {
	event := models.NewEvent(models.EventTypeAlertCreated, alert.ResourceID, "Alert created: "+alert.Message).
		WithData(alert)
	if alert.Severity == models.SeverityCritical {
		event.WithSeverity(models.EventSeverityCritical)
	} else if alert.Severity == models.SeverityHigh {
		event.WithSeverity(models.EventSeverityWarning)
	}
	p.publish(event)
}

func (p *Publisher) AlertAcknowledged(alert *models.Alert) {
	p.publish(models.NewEvent(models.EventTypeAlertAcknowledged, alert.ResourceID, "Alert acknowledged").WithData(alert))
}

func (p *Publisher) AlertResolved(alert *models.Alert) {
	p.publish(models.NewEvent(models.EventTypeAlertResolved, alert.ResourceID, "Alert resolved").WithData(alert))
}

func (p *Publisher) AlertSuppressed(alert *models.Alert) {
	p.publish(models.NewEvent(models.EventTypeAlertSuppressed, alert.ResourceID, "Alert suppressed").WithData(alert))
}

func (p *Publisher) AlertCancelled(alert *models.Alert) {
	p.publish(models.NewEvent(models.EventTypeAlertCancelled, alert.ResourceID, "Alert cancelled").WithData(alert))
}

func (p *Publisher) AlertEscalated(alert *models.Alert) {
	event := models.NewEvent(models.EventTypeAlertEscalated, alert.ResourceID, "Alert escalated").
		WithSeverity(models.EventSeverityWarning).
		WithData(alert)
	p.publish(event)
}

func (p *Publisher) ScalingDecisionMade(decision *models.ScalingDecision) {
	msg := "Scaling decision: " + string(decision.Action)
	p.publish(models.NewEvent(models.EventTypeScalingDecisionMade, decision.ResourceID, msg).WithData(decision))
}

func (p *Publisher) ScalingExecuted(record *models.ScalingRecord) {
	msg := "Scaling executed: " + string(record.Action)
	p.publish(models.NewEvent(models.EventTypeScalingExecuted, record.ResourceID, msg).WithData(record))
}

func (p *Publisher) ScalingSkipped(decision *models.ScalingDecision, reason string) {
	event := models.NewEvent(models.EventTypeScalingSkipped, decision.ResourceID, "Scaling skipped: "+reason).
		WithData(decision)
	p.publish(event)
}

func (p *Publisher) ScalingFailed(decision *models.ScalingDecision, err error) {
	event := models.NewEvent(models.EventTypeScalingFailed, decision.ResourceID, "Scaling failed").
		WithSeverity(models.EventSeverityCritical).
		WithData(map[string]interface{}{
			"decision": decision,
			"error":    err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) RollbackFailed(decision *models.ScalingDecision, err error) {
	event := models.NewEvent(models.EventTypeRollbackFailed, decision.ResourceID, "Rollback failed, manual review required").
		WithSeverity(models.EventSeverityCritical).
		WithData(map[string]interface{}{
			"decision": decision,
			"error":    err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) RecommendationGenerated(rec *models.ScalingRecommendation) {
	msg := "Recommendation generated: " + string(rec.Strategy)
	p.publish(models.NewEvent(models.EventTypeRecommendationGenerated, rec.ResourceID, msg).WithData(rec))
}

func (p *Publisher) RecommendationExpired(rec *models.ScalingRecommendation) {
	p.publish(models.NewEvent(models.EventTypeRecommendationExpired, rec.ResourceID, "Recommendation expired").WithData(rec))
}

func (p *Publisher) BatchRecommendationCompleted(resourceCount, recommendationCount int) {
	event := models.NewEvent(models.EventTypeBatchRecommendationDone, "", "Recommendation batch completed").
		WithData(map[string]interface{}{
			"resource_count":       resourceCount,
			"recommendation_count": recommendationCount,
		})
	p.publish(event)
}

func (p *Publisher) EvaluationError(resourceID string, err error) {
	event := models.NewEvent(models.EventTypeEvaluationError, resourceID, "Evaluation cycle failed").
		WithSeverity(models.EventSeverityWarning).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
