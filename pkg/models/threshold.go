package models

import (
	"errors"
	"fmt"
	"time"
)

// ComparisonOperator compares a sampled value against a threshold value
type ComparisonOperator string

const (
	CompareGreaterThan      ComparisonOperator = "gt"
	CompareGreaterThanEqual ComparisonOperator = "gte"
	CompareLessThan         ComparisonOperator = "lt"
	CompareLessThanEqual    ComparisonOperator = "lte"
)

// Holds reports whether the sampled value satisfies the operator against the
// threshold value.
func (op ComparisonOperator) Holds(value, threshold float64) bool {
	switch op {
	case CompareGreaterThan:
		return value > threshold
	case CompareGreaterThanEqual:
		return value >= threshold
	case CompareLessThan:
		return value < threshold
	case CompareLessThanEqual:
		return value <= threshold
	default:
		return false
	}
}

func (op ComparisonOperator) Valid() bool {
	switch op {
	case CompareGreaterThan, CompareGreaterThanEqual, CompareLessThan, CompareLessThanEqual:
		return true
	}
	return false
}

// ThresholdSide is one direction of a threshold: the condition must hold
// continuously for SustainedDuration before it triggers, and once acted upon
// the Cooldown suppresses repeat alerts.
type ThresholdSide struct {
	Value             float64            `json:"value"`
	Operator          ComparisonOperator `json:"operator"`
	SustainedDuration time.Duration      `json:"sustained_duration"`
	Cooldown          time.Duration      `json:"cooldown"`
}

// ScalingPolicy bounds capacity and fixes the step size per scaling move
type ScalingPolicy struct {
	MinInstances int `json:"min_instances"`
	MaxInstances int `json:"max_instances"`
	ScaleUpBy    int `json:"scale_up_by"`
	ScaleDownBy  int `json:"scale_down_by"`
}

func (p ScalingPolicy) Validate() error {
	if p.MinInstances < 1 {
		return errors.New("min_instances must be at least 1")
	}
	if p.MaxInstances < p.MinInstances {
		return fmt.Errorf("max_instances %d below min_instances %d", p.MaxInstances, p.MinInstances)
	}
	if p.ScaleUpBy < 1 || p.ScaleDownBy < 1 {
		return errors.New("scale step sizes must be at least 1")
	}
	return nil
}

// ScalingThreshold binds a metric on a resource to a scale-up and a
// scale-down condition plus the policy applied when either triggers.
type ScalingThreshold struct {
	ID         string        `json:"id"`
	ResourceID string        `json:"resource_id"`
	MetricName string        `json:"metric_name"`
	ScaleUp    ThresholdSide `json:"scale_up"`
	ScaleDown  ThresholdSide `json:"scale_down"`
	Policy     ScalingPolicy `json:"policy"`
	Active     bool          `json:"active"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  *time.Time    `json:"updated_at,omitempty"`
}

func (t *ScalingThreshold) Validate() error {
	if t.ResourceID == "" {
		return errors.New("resource_id is required")
	}
	if t.MetricName == "" {
		return errors.New("metric_name is required")
	}
	if !t.ScaleUp.Operator.Valid() {
		return fmt.Errorf("invalid scale_up operator %q", t.ScaleUp.Operator)
	}
	if !t.ScaleDown.Operator.Valid() {
		return fmt.Errorf("invalid scale_down operator %q", t.ScaleDown.Operator)
	}
	if t.ScaleUp.SustainedDuration <= 0 || t.ScaleDown.SustainedDuration <= 0 {
		return errors.New("sustained_duration must be positive")
	}
	if t.ScaleUp.Value <= t.ScaleDown.Value {
		return fmt.Errorf(
			"scale_up value %.1f must exceed scale_down value %.1f",
			t.ScaleUp.Value, t.ScaleDown.Value,
		)
	}
	return t.Policy.Validate()
}

// ThresholdEvaluation is the outcome of checking one threshold against one
// sample. IsTriggered is set only after the side's condition has held for
// its full sustained duration.
type ThresholdEvaluation struct {
	ThresholdID  string        `json:"threshold_id"`
	ResourceID   string        `json:"resource_id"`
	MetricName   string        `json:"metric_name"`
	CurrentValue float64       `json:"current_value"`
	Side         ScalingAction `json:"side"`
	IsTriggered  bool          `json:"is_triggered"`
	DwellElapsed time.Duration `json:"dwell_elapsed"`
	Confidence   float64       `json:"confidence"`
	EvaluatedAt  time.Time     `json:"evaluated_at"`
}

// ThresholdValue returns the configured value of the side this evaluation
// matched against.
func (e *ThresholdEvaluation) ThresholdValue(t *ScalingThreshold) float64 {
	if e.Side == ActionScaleDown {
		return t.ScaleDown.Value
	}
	return t.ScaleUp.Value
}
