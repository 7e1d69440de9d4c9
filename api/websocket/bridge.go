package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/pkg/models"
)

// EventBridge forwards engine events to websocket clients
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (b *EventBridge) Start() {
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.cancel()
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			b.forwardEvent(event)
		}
	}
}

// WebSocketEvent is the message format sent to clients
type WebSocketEvent struct {
	Type       string      `json:"type"`
	ResourceID string      `json:"resource_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Severity   string      `json:"severity,omitempty"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

func (b *EventBridge) forwardEvent(event *models.Event) {
	wsType := mapEventType(event.Type)
	if wsType == "" {
		return
	}

	data, err := json.Marshal(&WebSocketEvent{
		Type:       wsType,
		ResourceID: event.ResourceID,
		Timestamp:  event.Timestamp,
		Severity:   string(event.Severity),
		Message:    event.Message,
		Data:       event.Data,
	})
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	// Events without a resource (batch completions) go to everyone
	if event.ResourceID == "" {
		b.hub.Broadcast(data)
		return
	}
	b.hub.BroadcastToResource(event.ResourceID, data)
}

func mapEventType(eventType models.EventType) string {
	switch eventType {
	case models.EventTypeAlertCreated, models.EventTypeAlertEscalated,
		models.EventTypeAlertAcknowledged, models.EventTypeAlertResolved,
		models.EventTypeAlertSuppressed:
		return "alert"
	case models.EventTypeScalingDecisionMade:
		return "decision"
	case models.EventTypeScalingExecuted, models.EventTypeScalingSkipped:
		return "scaling_event"
	case models.EventTypeScalingFailed, models.EventTypeRollbackFailed:
		return "scaling_failed"
	case models.EventTypeRecommendationGenerated:
		return "recommendation"
	case models.EventTypeBatchRecommendationDone:
		return "batch_completed"
	case models.EventTypeEvaluationError:
		return "error"
	default:
		// Threshold churn and expiries stay off the wire
		return ""
	}
}
