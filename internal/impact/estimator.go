package impact

import (
	"math"

	"github.com/platformkit/scaling-engine/pkg/models"
)

// Estimator computes the expected effect of a capacity change. All methods
// are pure: the same inputs always produce the same estimate, which lets both
// the control loop and the recommendation engine share one instance.
type Estimator struct {
	config Config
}

type Config struct {
	// UnitMonthlyCost is the monthly cost of one capacity unit
	UnitMonthlyCost float64
	// ScaleDownRiskPenalty is added to the risk of any capacity reduction
	ScaleDownRiskPenalty float64
}

func New(cfg Config) *Estimator {
	if cfg.UnitMonthlyCost == 0 {
		cfg.UnitMonthlyCost = 120.0
	}
	if cfg.ScaleDownRiskPenalty == 0 {
		cfg.ScaleDownRiskPenalty = 0.15
	}
	return &Estimator{config: cfg}
}

// Estimate returns the combined impact of moving a resource from current to
// target capacity.
func (e *Estimator) Estimate(current, target int) models.Impact {
	return models.Impact{
		Performance: e.Performance(current, target),
		Cost:        e.CostDelta(current, target),
		Risk:        e.Risk(current, target),
	}
}

// Performance estimates the relative performance change in percent. Adding
// capacity spreads load over more instances; removing it concentrates load.
func (e *Estimator) Performance(current, target int) float64 {
	if current <= 0 || target <= 0 || current == target {
		return 0
	}

	if target > current {
		// Per-instance load drops from 1/current to 1/target
		return (1 - float64(current)/float64(target)) * 100
	}

	// Load per remaining instance grows by current/target
	return -(float64(current)/float64(target) - 1) * 100
}

// CostDelta estimates the monthly monetary change of the capacity move
func (e *Estimator) CostDelta(current, target int) float64 {
	return float64(target-current) * e.config.UnitMonthlyCost
}

// Risk scores the change in [0,1]: larger relative jumps are riskier, and
// removing capacity carries an extra penalty because under-provisioning is
// harder to recover from than over-spending.
func (e *Estimator) Risk(current, target int) float64 {
	if current <= 0 || target <= 0 || current == target {
		return 0
	}

	relativeChange := math.Abs(float64(target-current)) / float64(current)
	risk := relativeChange * 0.4

	if target < current {
		risk += e.config.ScaleDownRiskPenalty
	}

	return clamp01(risk)
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
