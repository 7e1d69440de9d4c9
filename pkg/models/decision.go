package models

import "time"

// ScalingAction is the direction of a capacity change
type ScalingAction string

const (
	ActionScaleUp   ScalingAction = "scale_up"
	ActionScaleDown ScalingAction = "scale_down"
	ActionNoAction  ScalingAction = "no_action"
)

// StepKind identifies what an execution step does
type StepKind string

const (
	StepValidate StepKind = "validate"
	StepScale    StepKind = "scale"
	StepVerify   StepKind = "verify"
	StepRollback StepKind = "rollback"
)

// ExecutionStep is one ordered unit of an execution or rollback plan
type ExecutionStep struct {
	Order          int      `json:"order"`
	Kind           StepKind `json:"kind"`
	Description    string   `json:"description"`
	TargetCapacity int      `json:"target_capacity,omitempty"`
}

// Impact is the estimated effect of a capacity change. Performance is a
// relative change in percent, Cost a monthly monetary delta, Risk a score
// in [0, 1].
type Impact struct {
	Performance float64 `json:"performance"`
	Cost        float64 `json:"cost"`
	Risk        float64 `json:"risk"`
}

// ScalingDecision is a fully planned capacity change: the action, its
// confidence, the estimated impact, and ordered execution and rollback plans.
type ScalingDecision struct {
	ID              string          `json:"id"`
	ResourceID      string          `json:"resource_id"`
	Timestamp       time.Time       `json:"timestamp"`
	Action          ScalingAction   `json:"action"`
	CurrentCapacity int             `json:"current_capacity"`
	TargetCapacity  int             `json:"target_capacity"`
	Reason          string          `json:"reason"`
	Confidence      float64         `json:"confidence"`
	EstimatedImpact Impact          `json:"estimated_impact"`
	ExecutionPlan   []ExecutionStep `json:"execution_plan,omitempty"`
	RollbackPlan    []ExecutionStep `json:"rollback_plan,omitempty"`
}

// ShouldExecute reports whether the decision calls for an actual change
func (d *ScalingDecision) ShouldExecute() bool {
	return d.Action != ActionNoAction && d.TargetCapacity != d.CurrentCapacity
}

// ScalingOutcome is the terminal status of an execution attempt
type ScalingOutcome string

const (
	ScalingOutcomeExecuted   ScalingOutcome = "executed"
	ScalingOutcomeSkipped    ScalingOutcome = "skipped"
	ScalingOutcomeFailed     ScalingOutcome = "failed"
	ScalingOutcomeRolledBack ScalingOutcome = "rolled_back"
)

// ScalingRecord is the historical record of one execution attempt
type ScalingRecord struct {
	ID             int64          `json:"id"`
	ResourceID     string         `json:"resource_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Action         ScalingAction  `json:"action"`
	CapacityBefore int            `json:"capacity_before"`
	CapacityAfter  int            `json:"capacity_after"`
	TriggerReason  string         `json:"trigger_reason"`
	Confidence     float64        `json:"confidence"`
	Status         ScalingOutcome `json:"status"`
	FailedStep     string         `json:"failed_step,omitempty"`
}

// NewScalingRecord builds the record for a decision's outcome. Capacity only
// moves to the target on a successful execution.
func NewScalingRecord(d *ScalingDecision, outcome ScalingOutcome) *ScalingRecord {
	after := d.CurrentCapacity
	if outcome == ScalingOutcomeExecuted {
		after = d.TargetCapacity
	}
	return &ScalingRecord{
		ResourceID:     d.ResourceID,
		Timestamp:      time.Now(),
		Action:         d.Action,
		CapacityBefore: d.CurrentCapacity,
		CapacityAfter:  after,
		TriggerReason:  d.Reason,
		Confidence:     d.Confidence,
		Status:         outcome,
	}
}
