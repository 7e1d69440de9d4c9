package threshold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/pkg/config"
	"github.com/platformkit/scaling-engine/pkg/models"
)

func newRegistry() *Registry {
	return NewRegistry(events.NewPublisher(events.NewEventBus(16)))
}

func validThreshold(resourceID, metric string) *models.ScalingThreshold {
	return &models.ScalingThreshold{
		ResourceID: resourceID,
		MetricName: metric,
		ScaleUp: models.ThresholdSide{
			Value: 85, Operator: models.CompareGreaterThan, SustainedDuration: 2 * time.Minute,
		},
		ScaleDown: models.ThresholdSide{
			Value: 20, Operator: models.CompareLessThan, SustainedDuration: 5 * time.Minute,
		},
		Policy: models.ScalingPolicy{MinInstances: 1, MaxInstances: 10, ScaleUpBy: 1, ScaleDownBy: 1},
		Active: true,
	}
}

func TestRegistry_CreateAssignsIDAndTimestamps(t *testing.T) {
	r := newRegistry()

	created, err := r.Create(validThreshold("web-frontend", models.MetricCPUUsage))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := r.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestRegistry_CreateRejectsInvalid(t *testing.T) {
	r := newRegistry()

	tests := []struct {
		name   string
		mutate func(*models.ScalingThreshold)
	}{
		{"missing resource", func(t *models.ScalingThreshold) { t.ResourceID = "" }},
		{"missing metric", func(t *models.ScalingThreshold) { t.MetricName = "" }},
		{"bad operator", func(t *models.ScalingThreshold) { t.ScaleUp.Operator = "above" }},
		{"inverted values", func(t *models.ScalingThreshold) { t.ScaleUp.Value = 10 }},
		{"zero sustained duration", func(t *models.ScalingThreshold) { t.ScaleUp.SustainedDuration = 0 }},
		{"zero min instances", func(t *models.ScalingThreshold) { t.Policy.MinInstances = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thr := validThreshold("web-frontend", models.MetricCPUUsage)
			tt.mutate(thr)
			_, err := r.Create(thr)
			assert.Error(t, err)
		})
	}

	assert.Empty(t, r.List(), "nothing malformed is ever stored")
}

func TestRegistry_Update(t *testing.T) {
	r := newRegistry()

	created, err := r.Create(validThreshold("web-frontend", models.MetricCPUUsage))
	require.NoError(t, err)

	updated := validThreshold("web-frontend", models.MetricCPUUsage)
	updated.ID = created.ID
	updated.ScaleUp.Value = 90

	got, err := r.Update(updated)
	require.NoError(t, err)
	assert.Equal(t, 90.0, got.ScaleUp.Value)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
	assert.NotNil(t, got.UpdatedAt)

	t.Run("unknown id", func(t *testing.T) {
		missing := validThreshold("web-frontend", models.MetricCPUUsage)
		missing.ID = "missing"
		_, err := r.Update(missing)
		assert.ErrorIs(t, err, ErrThresholdNotFound)
	})

	t.Run("resource cannot move", func(t *testing.T) {
		moved := validThreshold("api-backend", models.MetricCPUUsage)
		moved.ID = created.ID
		_, err := r.Update(moved)
		assert.Error(t, err)
	})
}

func TestRegistry_ListByResourceSkipsInactive(t *testing.T) {
	r := newRegistry()

	active, err := r.Create(validThreshold("web-frontend", models.MetricCPUUsage))
	require.NoError(t, err)

	inactive := validThreshold("web-frontend", models.MetricMemoryUsage)
	inactive.Active = false
	_, err = r.Create(inactive)
	require.NoError(t, err)

	listed := r.ListByResource("web-frontend")
	require.Len(t, listed, 1)
	assert.Equal(t, active.ID, listed[0].ID)
}

func TestRegistry_Resources(t *testing.T) {
	r := newRegistry()

	_, err := r.Create(validThreshold("web-frontend", models.MetricCPUUsage))
	require.NoError(t, err)
	_, err = r.Create(validThreshold("api-backend", models.MetricCPUUsage))
	require.NoError(t, err)

	inactive := validThreshold("worker-pool", models.MetricCPUUsage)
	inactive.Active = false
	_, err = r.Create(inactive)
	require.NoError(t, err)

	resources := r.Resources()
	assert.ElementsMatch(t, []string{"web-frontend", "api-backend"}, resources)
}

func TestRegistry_SeedDefaults(t *testing.T) {
	r := newRegistry()
	policy := models.ScalingPolicy{MinInstances: 1, MaxInstances: 10, ScaleUpBy: 1, ScaleDownBy: 1}
	defaults := map[string]config.DefaultThreshold{
		"cpu_usage":    {ScaleUpValue: 85, ScaleDownValue: 20, SustainedDuration: 2 * time.Minute, Cooldown: 5 * time.Minute},
		"memory_usage": {ScaleUpValue: 85, ScaleDownValue: 30, SustainedDuration: 2 * time.Minute, Cooldown: 5 * time.Minute},
	}

	require.NoError(t, r.SeedDefaults("web-frontend", defaults, policy))
	assert.Len(t, r.ListByResource("web-frontend"), 2)

	// Seeding again must not duplicate
	require.NoError(t, r.SeedDefaults("web-frontend", defaults, policy))
	assert.Len(t, r.ListByResource("web-frontend"), 2)
}
