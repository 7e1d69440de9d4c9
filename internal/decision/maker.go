package decision

import (
	"fmt"
	"math"
	"time"

	"github.com/platformkit/scaling-engine/internal/impact"
	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/pkg/models"
)

// trendWindow is the number of trailing samples confidence is computed over
const trendWindow = 5

// Maker turns a triggered threshold evaluation into an executable scaling
// decision with an ordered execution plan and a rollback plan. Decisions are
// immutable once returned.
type Maker struct {
	estimator *impact.Estimator
}

func NewMaker(estimator *impact.Estimator) *Maker {
	return &Maker{estimator: estimator}
}

func (m *Maker) Decide(
	eval *models.ThresholdEvaluation,
	threshold *models.ScalingThreshold,
	currentCapacity int,
	history []models.ResourceMetrics,
) *models.ScalingDecision {
	target := m.targetCapacity(eval, threshold.Policy, currentCapacity)

	decision := &models.ScalingDecision{
		ID:              models.NewUUID(),
		ResourceID:      eval.ResourceID,
		Timestamp:       time.Now(),
		CurrentCapacity: currentCapacity,
		TargetCapacity:  target,
		Action:          models.ActionNoAction,
		Confidence:      m.confidence(eval.MetricName, history),
	}

	switch {
	case target > currentCapacity:
		decision.Action = models.ActionScaleUp
	case target < currentCapacity:
		decision.Action = models.ActionScaleDown
	default:
		decision.Reason = "target equals current capacity"
		return decision
	}

	decision.Reason = fmt.Sprintf(
		"%s threshold triggered: %s=%.1f sustained for %s",
		decision.Action, eval.MetricName, eval.CurrentValue, eval.DwellElapsed,
	)
	decision.EstimatedImpact = m.estimator.Estimate(currentCapacity, target)
	decision.ExecutionPlan = buildExecutionPlan(decision)
	decision.RollbackPlan = buildRollbackPlan(decision)

	logger.WithResource(decision.ResourceID).Infof(
		"Decision: %s %d -> %d (confidence %.2f)",
		decision.Action, currentCapacity, target, decision.Confidence,
	)

	return decision
}

func (m *Maker) targetCapacity(eval *models.ThresholdEvaluation, policy models.ScalingPolicy, current int) int {
	switch eval.Side {
	case models.ActionScaleUp:
		target := current + policy.ScaleUpBy
		if target > policy.MaxInstances {
			target = policy.MaxInstances
		}
		return target
	case models.ActionScaleDown:
		target := current - policy.ScaleDownBy
		if target < policy.MinInstances {
			target = policy.MinInstances
		}
		return target
	default:
		return current
	}
}

func buildExecutionPlan(d *models.ScalingDecision) []models.ExecutionStep {
	return []models.ExecutionStep{
		{
			Order:       1,
			Kind:        models.StepValidate,
			Description: fmt.Sprintf("validate prerequisites for scaling %s", d.ResourceID),
		},
		{
			Order:          2,
			Kind:           models.StepScale,
			Description:    fmt.Sprintf("%s from %d to %d instances", d.Action, d.CurrentCapacity, d.TargetCapacity),
			TargetCapacity: d.TargetCapacity,
		},
		{
			Order:          3,
			Kind:           models.StepVerify,
			Description:    "verify capacity matches target",
			TargetCapacity: d.TargetCapacity,
		},
	}
}

func buildRollbackPlan(d *models.ScalingDecision) []models.ExecutionStep {
	return []models.ExecutionStep{
		{
			Order:          1,
			Kind:           models.StepRollback,
			Description:    fmt.Sprintf("restore capacity to %d instances", d.CurrentCapacity),
			TargetCapacity: d.CurrentCapacity,
		},
	}
}

// confidence blends the metric's short-term trend consistency with its
// stability: a steadily moving, low-variance signal is trusted most.
func (m *Maker) confidence(metricName string, history []models.ResourceMetrics) float64 {
	samples := history
	if len(samples) > trendWindow {
		samples = samples[len(samples)-trendWindow:]
	}
	if len(samples) < 2 {
		return 0.5
	}

	var increases int
	for i := 1; i < len(samples); i++ {
		if samples[i].Value(metricName) > samples[i-1].Value(metricName) {
			increases++
		}
	}
	trendScore := float64(increases) / float64(len(samples)-1)

	var sum float64
	for _, s := range samples {
		sum += s.Value(metricName)
	}
	mean := sum / float64(len(samples))

	stabilityScore := 0.1
	if mean > 0 {
		var variance float64
		for _, s := range samples {
			diff := s.Value(metricName) - mean
			variance += diff * diff
		}
		stddev := math.Sqrt(variance / float64(len(samples)))
		cv := stddev / mean
		stabilityScore = math.Max(0.1, math.Min(1.0, 1-cv))
	}

	return math.Min(1.0, trendScore*0.6+stabilityScore*0.4)
}
