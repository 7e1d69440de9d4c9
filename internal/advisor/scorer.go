package advisor

import (
	"math"
	"sort"
	"time"

	"github.com/platformkit/scaling-engine/internal/impact"
	"github.com/platformkit/scaling-engine/pkg/models"
)

// Sub-score weights, summing to 1
const (
	weightPerformance = 0.25
	weightCost        = 0.20
	weightRisk        = 0.20
	weightUrgency     = 0.20
	weightFeasibility = 0.15
)

const minOverallScore = 0.5

// ScorerConfig holds the knobs that shape scoring and filtering
type ScorerConfig struct {
	MinConfidence     float64
	MaxPerResource    int
	BudgetLimit       float64
	ImplementCooldown time.Duration
	Dependencies      map[string][]string

	// MaxScaleUpFactor (>= 1) and MaxScaleDownFactor (in (0, 1]) bound how
	// far a single recommendation may move capacity from its current value.
	// Zero disables the bound.
	MaxScaleUpFactor   float64
	MaxScaleDownFactor float64
}

// Scorer assigns the weighted multi-criteria score to candidates, filters
// out weak ones, and resolves conflicting directions.
type Scorer struct {
	config    ScorerConfig
	estimator *impact.Estimator
}

func NewScorer(cfg ScorerConfig, estimator *impact.Estimator) *Scorer {
	if cfg.MaxPerResource == 0 {
		cfg.MaxPerResource = 5
	}
	return &Scorer{config: cfg, estimator: estimator}
}

// Score computes and attaches the candidate's score in place
func (s *Scorer) Score(c *models.ScalingRecommendation, ctx Context) {
	c.EstimatedImpact = s.estimator.Estimate(c.CurrentCapacity, c.TargetCapacity)

	score := &models.RecommendationScore{
		Performance: clamp01(math.Max(0, c.EstimatedImpact.Performance) / 100),
		Cost:        clamp01(math.Max(0, 1-math.Abs(c.EstimatedImpact.Cost)/1000)),
		Risk:        clamp01(1 - c.EstimatedImpact.Risk),
		Urgency:     s.urgency(c.Priority, ctx.Business),
		Feasibility: s.feasibility(c, ctx),
	}
	score.Overall = clamp01(
		score.Performance*weightPerformance +
			score.Cost*weightCost +
			score.Risk*weightRisk +
			score.Urgency*weightUrgency +
			score.Feasibility*weightFeasibility,
	)
	c.Score = score
}

func (s *Scorer) urgency(priority models.RecommendationPriority, business models.BusinessContext) float64 {
	var base float64
	switch priority {
	case models.PriorityCritical:
		base = 1.0
	case models.PriorityHigh:
		base = 0.8
	case models.PriorityMedium:
		base = 0.5
	default:
		base = 0.2
	}

	if business.IsCriticalPeriod {
		base *= 1.2
	}
	if !business.IsBusinessHours {
		base *= 0.8
	}
	return math.Min(1.0, base)
}

func (s *Scorer) feasibility(c *models.ScalingRecommendation, ctx Context) float64 {
	f := 1.0

	if s.config.BudgetLimit > 0 && c.EstimatedImpact.Cost > s.config.BudgetLimit {
		f *= 0.3
	}
	if s.implementedRecently(ctx) {
		f *= 0.6
	}
	if len(s.config.Dependencies[c.ResourceID]) > 0 {
		f *= 0.8
	}
	return f
}

func (s *Scorer) implementedRecently(ctx Context) bool {
	if s.config.ImplementCooldown <= 0 {
		return false
	}
	cutoff := ctx.Now.Add(-s.config.ImplementCooldown)
	for _, r := range ctx.RecentRecs {
		if r.Implemented && r.ImplementedAt != nil && r.ImplementedAt.After(cutoff) {
			return true
		}
	}
	return false
}

// Resolve scores, filters, caps, and conflict-resolves the candidate set for
// one resource. The returned slice is ordered by overall score descending.
func (s *Scorer) Resolve(candidates []*models.ScalingRecommendation, ctx Context) []*models.ScalingRecommendation {
	kept := make([]*models.ScalingRecommendation, 0, len(candidates))
	for _, c := range candidates {
		if !s.clampTarget(c) {
			continue
		}
		s.Score(c, ctx)
		if c.Confidence >= s.config.MinConfidence && c.Score.Overall >= minOverallScore {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score.Overall > kept[j].Score.Overall
	})
	if len(kept) > s.config.MaxPerResource {
		kept = kept[:s.config.MaxPerResource]
	}

	kept = resolveConflicts(kept)
	return applyBusinessRules(kept, ctx.Business)
}

// clampTarget bounds the candidate's target capacity by the configured scale
// factors. It reports whether the candidate still proposes a change after
// clamping.
func (s *Scorer) clampTarget(c *models.ScalingRecommendation) bool {
	switch c.Action {
	case models.ActionScaleUp:
		if s.config.MaxScaleUpFactor >= 1 {
			ceiling := int(math.Ceil(float64(c.CurrentCapacity) * s.config.MaxScaleUpFactor))
			if c.TargetCapacity > ceiling {
				c.TargetCapacity = ceiling
			}
		}
		return c.TargetCapacity > c.CurrentCapacity
	case models.ActionScaleDown:
		if s.config.MaxScaleDownFactor > 0 && s.config.MaxScaleDownFactor <= 1 {
			floor := int(math.Floor(float64(c.CurrentCapacity) * s.config.MaxScaleDownFactor))
			if floor < 1 {
				floor = 1
			}
			if c.TargetCapacity < floor {
				c.TargetCapacity = floor
			}
		}
		return c.TargetCapacity < c.CurrentCapacity
	}
	return true
}

// resolveConflicts drops the lower-confidence direction when both scale-up
// and scale-down candidates survive filtering. Lower-confidence candidates
// are discarded outright rather than reconciled.
func resolveConflicts(recs []*models.ScalingRecommendation) []*models.ScalingRecommendation {
	var bestUp, bestDown *models.ScalingRecommendation
	for _, r := range recs {
		switch r.Action {
		case models.ActionScaleUp:
			if bestUp == nil || r.Confidence > bestUp.Confidence {
				bestUp = r
			}
		case models.ActionScaleDown:
			if bestDown == nil || r.Confidence > bestDown.Confidence {
				bestDown = r
			}
		}
	}
	if bestUp == nil || bestDown == nil {
		return recs
	}

	drop := models.ActionScaleDown
	if bestDown.Confidence > bestUp.Confidence {
		drop = models.ActionScaleUp
	}

	kept := recs[:0]
	for _, r := range recs {
		if r.Action != drop {
			kept = append(kept, r)
		}
	}
	return kept
}

// applyBusinessRules drops recommendations the operational context forbids:
// critical changes outside business hours, and any scale-down unless load is
// expected to be low.
func applyBusinessRules(recs []*models.ScalingRecommendation, business models.BusinessContext) []*models.ScalingRecommendation {
	kept := recs[:0]
	for _, r := range recs {
		if r.Priority == models.PriorityCritical && !business.IsBusinessHours {
			continue
		}
		if r.Action == models.ActionScaleDown && business.ExpectedLoad != models.LoadLow {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
