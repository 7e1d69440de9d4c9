package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/scaling-engine/pkg/models"
)

func TestEventBus_PublishToSubscriber(t *testing.T) {
	bus := NewEventBus(4)
	ch := bus.Subscribe(models.EventTypeAlertCreated)

	bus.Publish(models.NewEvent(models.EventTypeAlertCreated, "web-frontend", "cpu breach"))

	select {
	case event := <-ch:
		assert.Equal(t, models.EventTypeAlertCreated, event.Type)
		assert.Equal(t, "web-frontend", event.ResourceID)
		assert.Equal(t, "cpu breach", event.Message)
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.Timestamp.IsZero())
	default:
		t.Fatal("expected the event to be delivered")
	}
}

func TestEventBus_TypeIsolation(t *testing.T) {
	bus := NewEventBus(4)
	alerts := bus.Subscribe(models.EventTypeAlertCreated)
	scalings := bus.Subscribe(models.EventTypeScalingExecuted)

	bus.Publish(models.NewEvent(models.EventTypeAlertCreated, "web-frontend", "alert"))

	assert.Len(t, alerts, 1)
	assert.Empty(t, scalings)
}

func TestEventBus_SubscribeAllSeesEveryType(t *testing.T) {
	bus := NewEventBus(16)
	all := bus.SubscribeAll()

	bus.Publish(models.NewEvent(models.EventTypeAlertCreated, "web-frontend", "alert"))
	bus.Publish(models.NewEvent(models.EventTypeScalingExecuted, "web-frontend", "scaled"))
	bus.Publish(models.NewEvent(models.EventTypeRecommendationGenerated, "web-frontend", "rec"))

	assert.Len(t, all, 3)
}

func TestEventBus_FullChannelDropsInsteadOfBlocking(t *testing.T) {
	bus := NewEventBus(1)
	ch := bus.Subscribe(models.EventTypeAlertCreated)

	// Second publish must not block even though nobody is draining
	bus.Publish(models.NewEvent(models.EventTypeAlertCreated, "web-frontend", "first"))
	bus.Publish(models.NewEvent(models.EventTypeAlertCreated, "web-frontend", "second"))

	event := <-ch
	assert.Equal(t, "first", event.Message)
	assert.Empty(t, ch)
}

func TestEventBus_CloseStopsDelivery(t *testing.T) {
	bus := NewEventBus(4)
	ch := bus.SubscribeAll()

	bus.Close()
	bus.Publish(models.NewEvent(models.EventTypeAlertCreated, "web-frontend", "late"))

	_, open := <-ch
	assert.False(t, open, "channel must be closed")

	// Closing twice is safe
	bus.Close()
}

func TestPublisher_EventShapes(t *testing.T) {
	bus := NewEventBus(16)
	publisher := NewPublisher(bus)

	created := bus.Subscribe(models.EventTypeAlertCreated)
	decided := bus.Subscribe(models.EventTypeScalingDecisionMade)

	alert := &models.Alert{
		ID:         models.NewUUID(),
		ResourceID: "web-frontend",
		MetricName: models.MetricCPUUsage,
		Severity:   models.SeverityCritical,
		Status:     models.AlertStatusActive,
		Message:    "cpu at 97",
	}
	publisher.AlertCreated(alert)

	decision := &models.ScalingDecision{
		ID:              models.NewUUID(),
		ResourceID:      "web-frontend",
		Action:          models.ActionScaleUp,
		CurrentCapacity: 2,
		TargetCapacity:  3,
	}
	publisher.ScalingDecisionMade(decision)

	require.Len(t, created, 1)
	event := <-created
	assert.Equal(t, models.EventSeverityCritical, event.Severity)
	assert.NotNil(t, event.Data)

	require.Len(t, decided, 1)
	event = <-decided
	assert.Equal(t, "web-frontend", event.ResourceID)
}
