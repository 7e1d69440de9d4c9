package advisor

import (
	"fmt"
	"math"

	"github.com/platformkit/scaling-engine/internal/impact"
	"github.com/platformkit/scaling-engine/pkg/models"
)

// CostOptimization is one identified opportunity to spend less
type CostOptimization struct {
	Description    string
	TargetCapacity int
	MonthlySavings float64
}

// CostAnalyzer looks for sustained over-provisioning. Risk tolerance controls
// how aggressively it is willing to shrink the fleet.
type CostAnalyzer struct {
	estimator     *impact.Estimator
	riskTolerance string
}

func NewCostAnalyzer(estimator *impact.Estimator, riskTolerance string) *CostAnalyzer {
	return &CostAnalyzer{
		estimator:     estimator,
		riskTolerance: riskTolerance,
	}
}

func (a *CostAnalyzer) downFactor() float64 {
	switch a.riskTolerance {
	case "high":
		return 0.5
	case "low":
		return 0.8
	default:
		return 0.7
	}
}

// Analyze returns cost optimizations for a resource whose recent utilization
// stays well below capacity.
func (a *CostAnalyzer) Analyze(ctx Context) []CostOptimization {
	if ctx.CurrentCapacity <= 1 || len(ctx.History) == 0 {
		return nil
	}

	var cpuSum, memSum float64
	for _, m := range ctx.History {
		cpuSum += m.CPUUsage
		memSum += m.MemoryUsage
	}
	avgCPU := cpuSum / float64(len(ctx.History))
	avgMem := memSum / float64(len(ctx.History))

	if avgCPU >= 30 || avgMem >= 40 {
		return nil
	}

	target := int(math.Floor(float64(ctx.CurrentCapacity) * a.downFactor()))
	if target < 1 {
		target = 1
	}
	if target >= ctx.CurrentCapacity {
		return nil
	}

	savings := -a.estimator.CostDelta(ctx.CurrentCapacity, target)
	return []CostOptimization{
		{
			Description: fmt.Sprintf(
				"average utilization is low (cpu %.1f%%, memory %.1f%%), capacity can shrink to %d",
				avgCPU, avgMem, target,
			),
			TargetCapacity: target,
			MonthlySavings: savings,
		},
	}
}

// CostGenerator turns cost optimizations into scale-down candidates when the
// total potential savings clear the configured floor.
type CostGenerator struct {
	analyzer     *CostAnalyzer
	savingsFloor float64
}

func NewCostGenerator(analyzer *CostAnalyzer, savingsFloor float64) *CostGenerator {
	return &CostGenerator{
		analyzer:     analyzer,
		savingsFloor: savingsFloor,
	}
}

func (g *CostGenerator) Strategy() models.RecommendationStrategy {
	return models.StrategyCostOptimization
}

func (g *CostGenerator) Generate(ctx Context) []*models.ScalingRecommendation {
	optimizations := g.analyzer.Analyze(ctx)
	if len(optimizations) == 0 {
		return nil
	}

	var totalSavings float64
	for _, o := range optimizations {
		totalSavings += o.MonthlySavings
	}
	if totalSavings <= g.savingsFloor {
		return nil
	}

	candidates := make([]*models.ScalingRecommendation, 0, len(optimizations))
	for _, o := range optimizations {
		c := newCandidate(ctx, models.StrategyCostOptimization, models.ActionScaleDown, o.TargetCapacity)
		c.Priority = models.PriorityMedium
		c.Confidence = 0.75
		c.Reasoning = fmt.Sprintf("%s, saving %.0f per month", o.Description, o.MonthlySavings)
		candidates = append(candidates, c)
	}
	return candidates
}
