package advisor

import (
	"fmt"
	"math"

	"github.com/platformkit/scaling-engine/pkg/models"
)

const (
	bottleneckThreshold = 80.0
	// bottleneckRatio is the fraction of recent samples that must breach the
	// threshold before the metric counts as a sustained bottleneck
	bottleneckRatio = 0.8
)

// Bottleneck is one metric under sustained pressure
type Bottleneck struct {
	MetricName  string
	BreachRatio float64
	AvgValue    float64
}

// BottleneckAnalyzer detects metrics that stay above the bottleneck
// threshold for most of the recent window.
type BottleneckAnalyzer struct{}

func NewBottleneckAnalyzer() *BottleneckAnalyzer {
	return &BottleneckAnalyzer{}
}

func (a *BottleneckAnalyzer) Analyze(ctx Context) []Bottleneck {
	if len(ctx.History) == 0 {
		return nil
	}

	var bottlenecks []Bottleneck
	for _, metric := range []string{models.MetricCPUUsage, models.MetricMemoryUsage} {
		var breaches int
		var sum float64
		for _, m := range ctx.History {
			v := m.Value(metric)
			sum += v
			if v > bottleneckThreshold {
				breaches++
			}
		}
		ratio := float64(breaches) / float64(len(ctx.History))
		if ratio >= bottleneckRatio {
			bottlenecks = append(bottlenecks, Bottleneck{
				MetricName:  metric,
				BreachRatio: ratio,
				AvgValue:    sum / float64(len(ctx.History)),
			})
		}
	}
	return bottlenecks
}

// PerformanceGenerator emits one scale-up candidate per detected bottleneck
type PerformanceGenerator struct {
	analyzer *BottleneckAnalyzer
}

func NewPerformanceGenerator(analyzer *BottleneckAnalyzer) *PerformanceGenerator {
	return &PerformanceGenerator{analyzer: analyzer}
}

func (g *PerformanceGenerator) Strategy() models.RecommendationStrategy {
	return models.StrategyPerformance
}

func (g *PerformanceGenerator) Generate(ctx Context) []*models.ScalingRecommendation {
	bottlenecks := g.analyzer.Analyze(ctx)
	if len(bottlenecks) == 0 {
		return nil
	}

	candidates := make([]*models.ScalingRecommendation, 0, len(bottlenecks))
	for _, b := range bottlenecks {
		// Size the fleet so the average load would sit near the threshold
		target := int(math.Ceil(float64(ctx.CurrentCapacity) * b.AvgValue / bottleneckThreshold))
		if target <= ctx.CurrentCapacity {
			target = ctx.CurrentCapacity + 1
		}
		c := newCandidate(ctx, models.StrategyPerformance, models.ActionScaleUp, target)
		c.Priority = models.PriorityHigh
		c.Confidence = math.Min(1.0, b.BreachRatio)
		c.Reasoning = fmt.Sprintf(
			"%s is a sustained bottleneck: above %.0f%% in %.0f%% of recent samples (avg %.1f%%)",
			b.MetricName, bottleneckThreshold, b.BreachRatio*100, b.AvgValue,
		)
		candidates = append(candidates, c)
	}
	return candidates
}
