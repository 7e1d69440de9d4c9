package threshold

import (
	"math"
	"time"

	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/pkg/models"
)

// confidenceWindow is the maximum number of historical samples considered
// when computing the z-score based confidence.
const confidenceWindow = 10

// Evaluator applies hysteresis to threshold conditions: a side must hold
// continuously for its sustained duration before the evaluation triggers.
// Evaluate must run exactly once per (threshold, sample) or dwell timers
// would restart spuriously.
type Evaluator struct {
	states *StateStore
}

func NewEvaluator(states *StateStore) *Evaluator {
	return &Evaluator{states: states}
}

// Evaluate checks the latest sample against both sides of the threshold and
// advances the dwell timers. history is used only for the confidence score.
func (e *Evaluator) Evaluate(
	t *models.ScalingThreshold,
	latest *models.ResourceMetrics,
	history []models.ResourceMetrics,
	now time.Time,
) *models.ThresholdEvaluation {
	value := latest.Value(t.MetricName)

	eval := &models.ThresholdEvaluation{
		ThresholdID:  t.ID,
		ResourceID:   t.ResourceID,
		MetricName:   t.MetricName,
		CurrentValue: value,
		Side:         models.ActionNoAction,
		Confidence:   confidence(value, t.MetricName, history),
		EvaluatedAt:  now,
	}

	upHolds := t.ScaleUp.Operator.Holds(value, t.ScaleUp.Value)
	downHolds := t.ScaleDown.Operator.Holds(value, t.ScaleDown.Value)

	e.states.Update(t.ID, func(state *State) {
		state.LastEvaluatedAt = now

		switch {
		case upHolds:
			state.ScaleDownDwellStart = nil
			if state.ScaleUpDwellStart == nil {
				dwellStart := now
				state.ScaleUpDwellStart = &dwellStart
			}
			eval.Side = models.ActionScaleUp
			eval.DwellElapsed = now.Sub(*state.ScaleUpDwellStart)
			eval.IsTriggered = eval.DwellElapsed >= t.ScaleUp.SustainedDuration

		case downHolds:
			state.ScaleUpDwellStart = nil
			if state.ScaleDownDwellStart == nil {
				dwellStart := now
				state.ScaleDownDwellStart = &dwellStart
			}
			eval.Side = models.ActionScaleDown
			eval.DwellElapsed = now.Sub(*state.ScaleDownDwellStart)
			eval.IsTriggered = eval.DwellElapsed >= t.ScaleDown.SustainedDuration

		default:
			// Debounce: neither side holds, forget any partial dwell
			state.ScaleUpDwellStart = nil
			state.ScaleDownDwellStart = nil
		}
	})

	if eval.IsTriggered {
		logger.WithResource(t.ResourceID).Debugf(
			"Threshold triggered: %s=%.1f (%s), dwell=%s, confidence=%.2f",
			t.MetricName, value, eval.Side, eval.DwellElapsed, eval.Confidence,
		)
	}

	return eval
}

// confidence scores how trustworthy the latest value is relative to recent
// history: values far outside the recent distribution score lower.
func confidence(value float64, metricName string, history []models.ResourceMetrics) float64 {
	if len(history) == 0 {
		return 1.0
	}

	samples := history
	if len(samples) > confidenceWindow {
		samples = samples[len(samples)-confidenceWindow:]
	}

	var sum float64
	for _, s := range samples {
		sum += s.Value(metricName)
	}
	mean := sum / float64(len(samples))

	var variance float64
	for _, s := range samples {
		diff := s.Value(metricName) - mean
		variance += diff * diff
	}
	stddev := math.Sqrt(variance / float64(len(samples)))
	if stddev < 1 {
		stddev = 1
	}

	zScore := (value - mean) / stddev
	return math.Max(0.1, math.Min(1.0, 1-math.Abs(zScore)/3))
}
