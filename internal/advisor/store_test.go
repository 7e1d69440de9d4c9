package advisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/pkg/models"
)

func newTestStore(validity time.Duration) (*Store, *events.EventBus) {
	bus := events.NewEventBus(64)
	return NewStore(validity, events.NewPublisher(bus), nil), bus
}

func TestStore_PutAndGet(t *testing.T) {
	store, bus := newTestStore(time.Hour)
	generated := bus.Subscribe(models.EventTypeRecommendationGenerated)

	rec := candidate(models.ActionScaleUp, 2, 3, models.PriorityHigh, 0.9)
	store.Put(rec)

	assert.WithinDuration(t, time.Now().Add(time.Hour), rec.ValidUntil, time.Second)

	got, err := store.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	select {
	case event := <-generated:
		assert.Equal(t, "web-frontend", event.ResourceID)
	default:
		t.Fatal("expected a recommendation_generated event")
	}

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrRecommendationNotFound)
}

func TestStore_ListByResource(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	first := candidate(models.ActionScaleUp, 2, 3, models.PriorityHigh, 0.9)
	second := candidate(models.ActionScaleUp, 2, 4, models.PriorityMedium, 0.8)
	other := candidate(models.ActionScaleDown, 4, 3, models.PriorityLow, 0.7)
	other.ResourceID = "api-backend"

	store.Put(first)
	store.Put(second)
	store.Put(other)

	recs := store.ListByResource("web-frontend")
	require.Len(t, recs, 2)
	assert.Equal(t, first.ID, recs[0].ID, "insertion order is preserved")
	assert.Equal(t, second.ID, recs[1].ID)

	assert.Len(t, store.List(), 3)
	assert.Empty(t, store.ListByResource("unknown"))
}

func TestStore_MarkImplemented(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	rec := candidate(models.ActionScaleUp, 2, 3, models.PriorityHigh, 0.9)
	store.Put(rec)

	got, err := store.MarkImplemented(rec.ID, "worked well")
	require.NoError(t, err)
	assert.True(t, got.Implemented)
	assert.NotNil(t, got.ImplementedAt)
	assert.Equal(t, "worked well", got.Feedback)

	_, err = store.MarkImplemented("missing", "")
	assert.ErrorIs(t, err, ErrRecommendationNotFound)
}

func TestStore_SweepRemovesExpired(t *testing.T) {
	store, bus := newTestStore(10 * time.Millisecond)
	expiredEvents := bus.Subscribe(models.EventTypeRecommendationExpired)

	rec := candidate(models.ActionScaleUp, 2, 3, models.PriorityHigh, 0.9)
	store.Put(rec)

	time.Sleep(20 * time.Millisecond)

	// Expired entries no longer list even before the sweep runs
	assert.Empty(t, store.List())
	assert.Empty(t, store.ListByResource("web-frontend"))

	removed := store.Sweep()
	assert.Equal(t, 1, removed)

	_, err := store.Get(rec.ID)
	assert.ErrorIs(t, err, ErrRecommendationNotFound)

	select {
	case event := <-expiredEvents:
		assert.Equal(t, "web-frontend", event.ResourceID)
	default:
		t.Fatal("expected a recommendation_expired event")
	}

	assert.Equal(t, 0, store.Sweep(), "second sweep finds nothing")
}
