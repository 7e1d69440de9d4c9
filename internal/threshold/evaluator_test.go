package threshold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/platformkit/scaling-engine/pkg/models"
)

func testThreshold() *models.ScalingThreshold {
	return &models.ScalingThreshold{
		ID:         "thr-1",
		ResourceID: "web-frontend",
		MetricName: models.MetricCPUUsage,
		ScaleUp: models.ThresholdSide{
			Value:             85.0,
			Operator:          models.CompareGreaterThan,
			SustainedDuration: 2 * time.Minute,
			Cooldown:          5 * time.Minute,
		},
		ScaleDown: models.ThresholdSide{
			Value:             20.0,
			Operator:          models.CompareLessThan,
			SustainedDuration: 5 * time.Minute,
			Cooldown:          10 * time.Minute,
		},
		Policy: models.ScalingPolicy{MinInstances: 1, MaxInstances: 10, ScaleUpBy: 1, ScaleDownBy: 1},
		Active: true,
	}
}

func sample(cpu float64, at time.Time) *models.ResourceMetrics {
	return &models.ResourceMetrics{
		ResourceID: "web-frontend",
		Timestamp:  at,
		CPUUsage:   cpu,
	}
}

func TestEvaluator_SustainedDurationBeforeTrigger(t *testing.T) {
	e := NewEvaluator(NewStateStore())
	thr := testThreshold()
	start := time.Now()

	// First breach starts the dwell timer but must not trigger
	eval := e.Evaluate(thr, sample(90, start), nil, start)
	assert.Equal(t, models.ActionScaleUp, eval.Side)
	assert.False(t, eval.IsTriggered)
	assert.Equal(t, time.Duration(0), eval.DwellElapsed)

	// Still breaching one minute in, dwell below sustained duration
	eval = e.Evaluate(thr, sample(92, start.Add(time.Minute)), nil, start.Add(time.Minute))
	assert.False(t, eval.IsTriggered)
	assert.Equal(t, time.Minute, eval.DwellElapsed)

	// At exactly the sustained duration it triggers
	eval = e.Evaluate(thr, sample(91, start.Add(2*time.Minute)), nil, start.Add(2*time.Minute))
	assert.True(t, eval.IsTriggered)
	assert.Equal(t, 2*time.Minute, eval.DwellElapsed)
}

func TestEvaluator_CustomMetricThreshold(t *testing.T) {
	e := NewEvaluator(NewStateStore())
	thr := &models.ScalingThreshold{
		ID:         "thr-queue",
		ResourceID: "worker-pool",
		MetricName: "queue_depth",
		ScaleUp: models.ThresholdSide{
			Value:             500.0,
			Operator:          models.CompareGreaterThan,
			SustainedDuration: time.Minute,
			Cooldown:          5 * time.Minute,
		},
		ScaleDown: models.ThresholdSide{
			Value:             10.0,
			Operator:          models.CompareLessThan,
			SustainedDuration: 5 * time.Minute,
			Cooldown:          10 * time.Minute,
		},
		Policy: models.ScalingPolicy{MinInstances: 1, MaxInstances: 10, ScaleUpBy: 1, ScaleDownBy: 1},
		Active: true,
	}
	start := time.Now()

	// A saturated queue must read through as the real depth and arm the
	// scale-up side, not fall back to 0 and arm scale-down
	deep := &models.ResourceMetrics{
		ResourceID:    "worker-pool",
		Timestamp:     start,
		CustomMetrics: map[string]float64{"queue_depth": 900},
	}
	eval := e.Evaluate(thr, deep, nil, start)
	assert.Equal(t, 900.0, eval.CurrentValue)
	assert.Equal(t, models.ActionScaleUp, eval.Side)

	eval = e.Evaluate(thr, deep, nil, start.Add(time.Minute))
	assert.True(t, eval.IsTriggered)

	// A sample missing the custom metric reads 0
	empty := &models.ResourceMetrics{ResourceID: "worker-pool", Timestamp: start}
	eval = e.Evaluate(thr, empty, nil, start.Add(2*time.Minute))
	assert.Equal(t, 0.0, eval.CurrentValue)
	assert.Equal(t, models.ActionScaleDown, eval.Side)
	assert.False(t, eval.IsTriggered)
}

func TestEvaluator_DebounceResetsDwell(t *testing.T) {
	e := NewEvaluator(NewStateStore())
	thr := testThreshold()
	start := time.Now()

	e.Evaluate(thr, sample(90, start), nil, start)

	// Value recovers between the two breaches
	eval := e.Evaluate(thr, sample(50, start.Add(time.Minute)), nil, start.Add(time.Minute))
	assert.Equal(t, models.ActionNoAction, eval.Side)
	assert.False(t, eval.IsTriggered)

	// A later breach restarts the dwell from zero
	eval = e.Evaluate(thr, sample(90, start.Add(3*time.Minute)), nil, start.Add(3*time.Minute))
	assert.False(t, eval.IsTriggered)
	assert.Equal(t, time.Duration(0), eval.DwellElapsed)
}

func TestEvaluator_OppositeSideClearsDwell(t *testing.T) {
	e := NewEvaluator(NewStateStore())
	thr := testThreshold()
	start := time.Now()

	e.Evaluate(thr, sample(90, start), nil, start)

	// Swinging to the scale-down side drops the accumulated scale-up dwell
	eval := e.Evaluate(thr, sample(10, start.Add(time.Minute)), nil, start.Add(time.Minute))
	assert.Equal(t, models.ActionScaleDown, eval.Side)
	assert.Equal(t, time.Duration(0), eval.DwellElapsed)

	state := NewStateStore()
	e2 := NewEvaluator(state)
	e2.Evaluate(thr, sample(90, start), nil, start)
	e2.Evaluate(thr, sample(10, start.Add(time.Minute)), nil, start.Add(time.Minute))
	s := state.Get(thr.ID)
	assert.Nil(t, s.ScaleUpDwellStart)
	assert.NotNil(t, s.ScaleDownDwellStart)
}

func TestEvaluator_ScaleDownTrigger(t *testing.T) {
	e := NewEvaluator(NewStateStore())
	thr := testThreshold()
	start := time.Now()

	for i := 0; i <= 5; i++ {
		at := start.Add(time.Duration(i) * time.Minute)
		eval := e.Evaluate(thr, sample(10, at), nil, at)
		if i < 5 {
			assert.False(t, eval.IsTriggered, "minute %d", i)
		} else {
			assert.True(t, eval.IsTriggered)
			assert.Equal(t, models.ActionScaleDown, eval.Side)
		}
	}
}

func TestEvaluator_Confidence(t *testing.T) {
	now := time.Now()

	steady := make([]models.ResourceMetrics, 10)
	for i := range steady {
		steady[i] = *sample(50, now.Add(time.Duration(i)*time.Minute))
	}

	tests := []struct {
		name    string
		value   float64
		history []models.ResourceMetrics
		check   func(t *testing.T, confidence float64)
	}{
		{
			name:    "no history defaults to full confidence",
			value:   90,
			history: nil,
			check: func(t *testing.T, c float64) {
				assert.Equal(t, 1.0, c)
			},
		},
		{
			name:    "value at the mean scores highest",
			value:   50,
			history: steady,
			check: func(t *testing.T, c float64) {
				assert.Equal(t, 1.0, c)
			},
		},
		{
			name:    "far outlier is floored at 0.1",
			value:   500,
			history: steady,
			check: func(t *testing.T, c float64) {
				assert.Equal(t, 0.1, c)
			},
		},
	}

	e := NewEvaluator(NewStateStore())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thr := testThreshold()
			eval := e.Evaluate(thr, sample(tt.value, now), tt.history, now)
			tt.check(t, eval.Confidence)
			assert.GreaterOrEqual(t, eval.Confidence, 0.1)
			assert.LessOrEqual(t, eval.Confidence, 1.0)
		})
	}
}
