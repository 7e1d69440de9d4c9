package advisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/scaling-engine/internal/impact"
	"github.com/platformkit/scaling-engine/pkg/models"
)

func baseContext(capacity int) Context {
	return Context{
		ResourceID:      "web-frontend",
		CurrentCapacity: capacity,
		Business:        models.BusinessContext{IsBusinessHours: true, ExpectedLoad: models.LoadNormal},
		Now:             time.Now(),
	}
}

func forecastSeries(accuracy float64, predicted ...float64) models.ForecastSeries {
	points := make([]models.ForecastPoint, len(predicted))
	now := time.Now()
	for i, v := range predicted {
		points[i] = models.ForecastPoint{
			Timestamp:      now.Add(time.Duration(i) * 5 * time.Minute),
			PredictedValue: v,
			Confidence:     accuracy,
		}
	}
	return models.ForecastSeries{
		ResourceID:    "web-frontend",
		MetricName:    models.MetricCPUUsage,
		ModelName:     "linear",
		ModelAccuracy: accuracy,
		GeneratedAt:   now,
		Points:        points,
	}
}

func historyOf(n int, cpu, mem, disk float64) []models.ResourceMetrics {
	now := time.Now()
	history := make([]models.ResourceMetrics, n)
	for i := range history {
		history[i] = models.ResourceMetrics{
			ResourceID:  "web-frontend",
			Timestamp:   now.Add(time.Duration(i) * time.Minute),
			CPUUsage:    cpu,
			MemoryUsage: mem,
			DiskUsage:   disk,
		}
	}
	return history
}

func TestProactiveGenerator(t *testing.T) {
	g := NewProactiveGenerator()

	t.Run("predicted breach proposes enough capacity", func(t *testing.T) {
		ctx := baseContext(2)
		ctx.Forecasts = []models.ForecastSeries{forecastSeries(0.85, 70, 88, 95, 82)}

		recs := g.Generate(ctx)
		require.Len(t, recs, 1)

		// ceil(2 * 95 / 80) = 3
		assert.Equal(t, 3, recs[0].TargetCapacity)
		assert.Equal(t, models.ActionScaleUp, recs[0].Action)
		assert.Equal(t, models.PriorityCritical, recs[0].Priority)
		assert.Equal(t, 0.85, recs[0].Confidence)
		assert.Equal(t, models.StrategyProactive, recs[0].Strategy)
	})

	t.Run("peak below critical stays high priority", func(t *testing.T) {
		ctx := baseContext(2)
		ctx.Forecasts = []models.ForecastSeries{forecastSeries(0.8, 82, 86)}

		recs := g.Generate(ctx)
		require.Len(t, recs, 1)
		assert.Equal(t, models.PriorityHigh, recs[0].Priority)
	})

	t.Run("forecast under threshold yields nothing", func(t *testing.T) {
		ctx := baseContext(2)
		ctx.Forecasts = []models.ForecastSeries{forecastSeries(0.9, 40, 55, 60)}
		assert.Empty(t, g.Generate(ctx))
	})

	t.Run("points beyond the horizon are ignored", func(t *testing.T) {
		predicted := make([]float64, 30)
		for i := range predicted {
			predicted[i] = 50
		}
		predicted[29] = 99 // outside the 24-point horizon

		ctx := baseContext(2)
		ctx.Forecasts = []models.ForecastSeries{forecastSeries(0.9, predicted...)}
		assert.Empty(t, g.Generate(ctx))
	})
}

func TestReactiveGenerator(t *testing.T) {
	g := NewReactiveGenerator()

	tests := []struct {
		name           string
		capacity       int
		cpu, mem, disk float64
		expectAction   models.ScalingAction
		expectTarget   int
		expectPriority models.RecommendationPriority
	}{
		{
			name: "critical cpu scales up by half", capacity: 2,
			cpu: 96, mem: 50, disk: 30,
			expectAction: models.ActionScaleUp, expectTarget: 3, expectPriority: models.PriorityCritical,
		},
		{
			name: "high memory scales up", capacity: 4,
			cpu: 40, mem: 88, disk: 30,
			expectAction: models.ActionScaleUp, expectTarget: 6, expectPriority: models.PriorityHigh,
		},
		{
			name: "idle fleet scales down", capacity: 4,
			cpu: 10, mem: 10, disk: 10,
			expectAction: models.ActionScaleDown, expectTarget: 2, expectPriority: models.PriorityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := baseContext(tt.capacity)
			ctx.Latest = &models.ResourceMetrics{
				ResourceID:  "web-frontend",
				CPUUsage:    tt.cpu,
				MemoryUsage: tt.mem,
				DiskUsage:   tt.disk,
			}

			recs := g.Generate(ctx)
			require.Len(t, recs, 1)
			assert.Equal(t, tt.expectAction, recs[0].Action)
			assert.Equal(t, tt.expectTarget, recs[0].TargetCapacity)
			assert.Equal(t, tt.expectPriority, recs[0].Priority)
		})
	}

	t.Run("moderate utilization yields nothing", func(t *testing.T) {
		ctx := baseContext(2)
		ctx.Latest = &models.ResourceMetrics{CPUUsage: 55, MemoryUsage: 60, DiskUsage: 50}
		assert.Empty(t, g.Generate(ctx))
	})

	t.Run("single instance never scales below one", func(t *testing.T) {
		ctx := baseContext(1)
		ctx.Latest = &models.ResourceMetrics{CPUUsage: 5, MemoryUsage: 5, DiskUsage: 5}
		assert.Empty(t, g.Generate(ctx), "floor(1*0.7)=0 clamps to 1, no change to propose")
	})

	t.Run("nil latest sample yields nothing", func(t *testing.T) {
		assert.Empty(t, g.Generate(baseContext(2)))
	})
}

func TestCostGenerator(t *testing.T) {
	estimator := impact.New(impact.Config{UnitMonthlyCost: 120})

	t.Run("sustained low utilization proposes scale down", func(t *testing.T) {
		g := NewCostGenerator(NewCostAnalyzer(estimator, "medium"), 50)
		ctx := baseContext(4)
		ctx.History = historyOf(12, 15, 20, 30)

		recs := g.Generate(ctx)
		require.Len(t, recs, 1)

		// floor(4 * 0.7) = 2, savings 2 * 120 = 240
		assert.Equal(t, models.ActionScaleDown, recs[0].Action)
		assert.Equal(t, 2, recs[0].TargetCapacity)
		assert.Equal(t, models.StrategyCostOptimization, recs[0].Strategy)
		assert.Contains(t, recs[0].Reasoning, "saving 240 per month")
	})

	t.Run("risk tolerance shapes the cut", func(t *testing.T) {
		aggressive := NewCostAnalyzer(estimator, "high")
		cautious := NewCostAnalyzer(estimator, "low")

		ctx := baseContext(10)
		ctx.History = historyOf(12, 15, 20, 30)

		high := aggressive.Analyze(ctx)
		low := cautious.Analyze(ctx)
		require.Len(t, high, 1)
		require.Len(t, low, 1)
		assert.Equal(t, 5, high[0].TargetCapacity)
		assert.Equal(t, 8, low[0].TargetCapacity)
	})

	t.Run("savings below the floor are dropped", func(t *testing.T) {
		// Shrinking 2 -> 1 saves 120/month, under the 200 floor
		g := NewCostGenerator(NewCostAnalyzer(estimator, "medium"), 200)
		ctx := baseContext(2)
		ctx.History = historyOf(12, 15, 20, 30)
		assert.Empty(t, g.Generate(ctx))
	})

	t.Run("busy fleet is not a cost target", func(t *testing.T) {
		g := NewCostGenerator(NewCostAnalyzer(estimator, "medium"), 0)
		ctx := baseContext(4)
		ctx.History = historyOf(12, 70, 60, 30)
		assert.Empty(t, g.Generate(ctx))
	})

	t.Run("single instance is never shrunk", func(t *testing.T) {
		g := NewCostGenerator(NewCostAnalyzer(estimator, "high"), 0)
		ctx := baseContext(1)
		ctx.History = historyOf(12, 5, 5, 5)
		assert.Empty(t, g.Generate(ctx))
	})
}

func TestPerformanceGenerator(t *testing.T) {
	g := NewPerformanceGenerator(NewBottleneckAnalyzer())

	t.Run("sustained cpu pressure proposes scale up", func(t *testing.T) {
		ctx := baseContext(2)
		ctx.History = historyOf(10, 90, 50, 30)

		recs := g.Generate(ctx)
		require.Len(t, recs, 1)

		// ceil(2 * 90 / 80) = 3
		assert.Equal(t, models.ActionScaleUp, recs[0].Action)
		assert.Equal(t, 3, recs[0].TargetCapacity)
		assert.Equal(t, models.StrategyPerformance, recs[0].Strategy)
		assert.Equal(t, 1.0, recs[0].Confidence)
	})

	t.Run("brief spikes are not a bottleneck", func(t *testing.T) {
		history := historyOf(10, 50, 50, 30)
		history[3].CPUUsage = 95
		history[7].CPUUsage = 92

		ctx := baseContext(2)
		ctx.History = history
		assert.Empty(t, g.Generate(ctx))
	})

	t.Run("both metrics under pressure yield two candidates", func(t *testing.T) {
		ctx := baseContext(2)
		ctx.History = historyOf(10, 92, 88, 30)

		recs := g.Generate(ctx)
		assert.Len(t, recs, 2)
	})
}
