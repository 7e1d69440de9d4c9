package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/scaling-engine/internal/alerting"
	"github.com/platformkit/scaling-engine/internal/decision"
	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/internal/executor"
	"github.com/platformkit/scaling-engine/internal/impact"
	"github.com/platformkit/scaling-engine/internal/metricsource"
	"github.com/platformkit/scaling-engine/internal/notify"
	"github.com/platformkit/scaling-engine/internal/scaler"
	"github.com/platformkit/scaling-engine/internal/threshold"
	"github.com/platformkit/scaling-engine/pkg/models"
)

type loopFixture struct {
	loop     *Loop
	sim      *metricsource.Simulator
	scaler   *scaler.SimulatorScaler
	registry *threshold.Registry
	alerts   *alerting.Manager
	bus      *events.EventBus
}

func newLoopFixture(t *testing.T, autoScale bool) *loopFixture {
	t.Helper()

	bus := events.NewEventBus(64)
	publisher := events.NewPublisher(bus)

	sim := metricsource.NewSimulator()
	sim.AddResource("web-frontend", 50, 60)

	sc := scaler.NewSimulatorScaler(0)
	sc.SetCapacity("web-frontend", 2)

	registry := threshold.NewRegistry(publisher)
	_, err := registry.Create(&models.ScalingThreshold{
		ResourceID: "web-frontend",
		MetricName: models.MetricCPUUsage,
		ScaleUp: models.ThresholdSide{
			Value:             85,
			Operator:          models.CompareGreaterThan,
			SustainedDuration: time.Nanosecond,
			Cooldown:          time.Hour,
		},
		ScaleDown: models.ThresholdSide{
			Value:             20,
			Operator:          models.CompareLessThan,
			SustainedDuration: time.Nanosecond,
		},
		Policy: models.ScalingPolicy{MinInstances: 1, MaxInstances: 10, ScaleUpBy: 1, ScaleDownBy: 1},
		Active: true,
	})
	require.NoError(t, err)

	estimator := impact.New(impact.Config{})
	maker := decision.NewMaker(estimator)
	exec := executor.New(executor.Config{MinConfidence: 0.1}, sc, publisher, nil)

	dispatcher := notify.NewDispatcher()
	dispatcher.Register("log", notify.NewLogNotifier())

	alerts := alerting.NewManager(alerting.Config{
		AutoScalingEnabled:   autoScale,
		NotificationChannels: []string{"log"},
	}, dispatcher, maker, exec, sc, publisher, nil)
	t.Cleanup(alerts.Close)

	evaluator := threshold.NewEvaluator(threshold.NewStateStore())
	loop := NewLoop(Config{
		EvaluationInterval: time.Hour, // cycles are driven manually in tests
		HistoryWindow:      time.Hour,
	}, registry, evaluator, sim, alerts, publisher, nil)

	return &loopFixture{loop: loop, sim: sim, scaler: sc, registry: registry, alerts: alerts, bus: bus}
}

func TestLoop_SustainedBreachRaisesAlert(t *testing.T) {
	f := newLoopFixture(t, false)
	alertEvents := f.bus.Subscribe(models.EventTypeAlertCreated)

	f.sim.SetLoad("web-frontend", 96, 50, 30)
	ctx := context.Background()

	// First cycle starts the dwell timer, second satisfies it
	f.loop.RunCycle(ctx)
	time.Sleep(time.Millisecond)
	f.loop.RunCycle(ctx)

	active := f.alerts.ActiveAlerts()
	require.Len(t, active, 1)
	assert.Equal(t, models.MetricCPUUsage, active[0].MetricName)
	assert.Equal(t, 96.0, active[0].CurrentValue)
	assert.NotEmpty(t, alertEvents)
}

func TestLoop_NormalLoadStaysQuiet(t *testing.T) {
	f := newLoopFixture(t, false)

	f.sim.SetLoad("web-frontend", 50, 50, 30)
	ctx := context.Background()

	f.loop.RunCycle(ctx)
	time.Sleep(time.Millisecond)
	f.loop.RunCycle(ctx)

	assert.Empty(t, f.alerts.ActiveAlerts())
}

func TestLoop_AutoScalesOnSustainedBreach(t *testing.T) {
	f := newLoopFixture(t, true)

	f.sim.SetLoad("web-frontend", 96, 50, 30)
	ctx := context.Background()

	f.loop.RunCycle(ctx)
	time.Sleep(time.Millisecond)
	f.loop.RunCycle(ctx)

	capacity, err := f.scaler.Capacity(ctx, "web-frontend")
	require.NoError(t, err)
	assert.Equal(t, 3, capacity)
}

func TestLoop_ReaderFailurePublishesError(t *testing.T) {
	f := newLoopFixture(t, false)
	errorEvents := f.bus.Subscribe(models.EventTypeEvaluationError)

	// A threshold for a resource the reader does not know
	_, err := f.registry.Create(&models.ScalingThreshold{
		ResourceID: "ghost",
		MetricName: models.MetricCPUUsage,
		ScaleUp: models.ThresholdSide{
			Value: 85, Operator: models.CompareGreaterThan, SustainedDuration: time.Nanosecond,
		},
		ScaleDown: models.ThresholdSide{
			Value: 20, Operator: models.CompareLessThan, SustainedDuration: time.Nanosecond,
		},
		Policy: models.ScalingPolicy{MinInstances: 1, MaxInstances: 10, ScaleUpBy: 1, ScaleDownBy: 1},
		Active: true,
	})
	require.NoError(t, err)

	f.loop.RunCycle(context.Background())

	require.Len(t, errorEvents, 1)
	event := <-errorEvents
	assert.Equal(t, "ghost", event.ResourceID)
}

func TestLoop_StartStop(t *testing.T) {
	f := newLoopFixture(t, false)

	f.loop.Start()
	f.loop.Stop()
}
