package models

import "time"

// RecommendationStrategy names the generator that produced a recommendation
type RecommendationStrategy string

const (
	StrategyProactive        RecommendationStrategy = "proactive"
	StrategyReactive         RecommendationStrategy = "reactive"
	StrategyCostOptimization RecommendationStrategy = "cost_optimization"
	StrategyPerformance      RecommendationStrategy = "performance"
)

type RecommendationPriority string

const (
	PriorityLow      RecommendationPriority = "low"
	PriorityMedium   RecommendationPriority = "medium"
	PriorityHigh     RecommendationPriority = "high"
	PriorityCritical RecommendationPriority = "critical"
)

// RecommendationScore holds the weighted component scores, all in [0, 1]
type RecommendationScore struct {
	Performance float64 `json:"performance"`
	Cost        float64 `json:"cost"`
	Risk        float64 `json:"risk"`
	Urgency     float64 `json:"urgency"`
	Feasibility float64 `json:"feasibility"`
	Overall     float64 `json:"overall"`
}

// TimelineStep is one action in an implementation timeline
type TimelineStep struct {
	Description string        `json:"description"`
	Offset      time.Duration `json:"offset"`
}

// Timeline lays out how a recommendation would be carried out
type Timeline struct {
	Immediate []TimelineStep `json:"immediate,omitempty"`
	ShortTerm []TimelineStep `json:"short_term,omitempty"`
	LongTerm  []TimelineStep `json:"long_term,omitempty"`
}

// ScalingRecommendation is advisory output: a proposed capacity change with
// its rationale and score, valid until ValidUntil and never auto-executed.
type ScalingRecommendation struct {
	ID              string                 `json:"id"`
	ResourceID      string                 `json:"resource_id"`
	Strategy        RecommendationStrategy `json:"strategy"`
	Action          ScalingAction          `json:"action"`
	CurrentCapacity int                    `json:"current_capacity"`
	TargetCapacity  int                    `json:"target_capacity"`
	Reasoning       string                 `json:"reasoning"`
	Priority        RecommendationPriority `json:"priority"`
	Confidence      float64                `json:"confidence"`
	Score           *RecommendationScore   `json:"score,omitempty"`
	EstimatedImpact Impact                 `json:"estimated_impact"`
	Timeline        Timeline               `json:"timeline"`
	ValidUntil      time.Time              `json:"valid_until"`
	CreatedAt       time.Time              `json:"created_at"`
	Implemented     bool                   `json:"implemented"`
	ImplementedAt   *time.Time             `json:"implemented_at,omitempty"`
	Feedback        string                 `json:"feedback,omitempty"`
}

// IsExpired reports whether the recommendation's validity window has passed
func (r *ScalingRecommendation) IsExpired(now time.Time) bool {
	return now.After(r.ValidUntil)
}
