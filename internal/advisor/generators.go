package advisor

import (
	"fmt"
	"math"

	"github.com/platformkit/scaling-engine/pkg/models"
)

const (
	forecastHorizon     = 24
	forecastUpThreshold = 80.0
	forecastCritical    = 90.0
	reactiveUpThreshold = 85.0
	reactiveCritical    = 95.0
	reactiveUpFactor    = 1.5
	reactiveDownFactor  = 0.7
	reactiveDownCPU     = 20.0
	reactiveDownMemory  = 30.0
	reactiveDownDisk    = 40.0
)

// ProactiveGenerator proposes scale-ups ahead of predicted breaches: if any
// forecast point within the horizon exceeds the utilization threshold, enough
// capacity is proposed to bring the predicted peak back under it.
type ProactiveGenerator struct{}

func NewProactiveGenerator() *ProactiveGenerator {
	return &ProactiveGenerator{}
}

func (g *ProactiveGenerator) Strategy() models.RecommendationStrategy {
	return models.StrategyProactive
}

func (g *ProactiveGenerator) Generate(ctx Context) []*models.ScalingRecommendation {
	var candidates []*models.ScalingRecommendation

	for _, series := range ctx.Forecasts {
		points := series.Points
		if len(points) > forecastHorizon {
			points = points[:forecastHorizon]
		}

		var maxPredicted float64
		for _, p := range points {
			if p.PredictedValue > maxPredicted {
				maxPredicted = p.PredictedValue
			}
		}
		if maxPredicted <= forecastUpThreshold {
			continue
		}

		target := int(math.Ceil(float64(ctx.CurrentCapacity) * maxPredicted / forecastUpThreshold))
		c := newCandidate(ctx, models.StrategyProactive, models.ActionScaleUp, target)
		c.Priority = models.PriorityHigh
		if maxPredicted > forecastCritical {
			c.Priority = models.PriorityCritical
		}
		c.Confidence = series.ModelAccuracy
		c.Reasoning = fmt.Sprintf(
			"forecast predicts %s peaking at %.1f%% within the next %d intervals",
			series.MetricName, maxPredicted, len(points),
		)
		candidates = append(candidates, c)
	}

	return candidates
}

// ReactiveGenerator proposes changes from current utilization alone
type ReactiveGenerator struct{}

func NewReactiveGenerator() *ReactiveGenerator {
	return &ReactiveGenerator{}
}

func (g *ReactiveGenerator) Strategy() models.RecommendationStrategy {
	return models.StrategyReactive
}

func (g *ReactiveGenerator) Generate(ctx Context) []*models.ScalingRecommendation {
	if ctx.Latest == nil {
		return nil
	}

	cpu := ctx.Latest.CPUUsage
	mem := ctx.Latest.MemoryUsage
	disk := ctx.Latest.DiskUsage

	if cpu > reactiveUpThreshold || mem > reactiveUpThreshold {
		target := int(math.Ceil(float64(ctx.CurrentCapacity) * reactiveUpFactor))
		c := newCandidate(ctx, models.StrategyReactive, models.ActionScaleUp, target)
		c.Priority = models.PriorityHigh
		if cpu > reactiveCritical || mem > reactiveCritical {
			c.Priority = models.PriorityCritical
		}
		c.Confidence = 0.9
		c.Reasoning = fmt.Sprintf("utilization is high now: cpu %.1f%%, memory %.1f%%", cpu, mem)
		return []*models.ScalingRecommendation{c}
	}

	if cpu < reactiveDownCPU && mem < reactiveDownMemory && disk < reactiveDownDisk {
		target := int(math.Floor(float64(ctx.CurrentCapacity) * reactiveDownFactor))
		if target < 1 {
			target = 1
		}
		if target >= ctx.CurrentCapacity {
			return nil
		}
		c := newCandidate(ctx, models.StrategyReactive, models.ActionScaleDown, target)
		c.Priority = models.PriorityMedium
		c.Confidence = 0.8
		c.Reasoning = fmt.Sprintf(
			"utilization is consistently low: cpu %.1f%%, memory %.1f%%, disk %.1f%%",
			cpu, mem, disk,
		)
		return []*models.ScalingRecommendation{c}
	}

	return nil
}
