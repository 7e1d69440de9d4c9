package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/internal/scaler"
	"github.com/platformkit/scaling-engine/pkg/models"
)

func testDecision(resourceID string, current, target int, confidence float64) *models.ScalingDecision {
	action := models.ActionScaleUp
	if target < current {
		action = models.ActionScaleDown
	}
	return &models.ScalingDecision{
		ID:              models.NewUUID(),
		ResourceID:      resourceID,
		Timestamp:       time.Now(),
		Action:          action,
		CurrentCapacity: current,
		TargetCapacity:  target,
		Reason:          "test",
		Confidence:      confidence,
		ExecutionPlan: []models.ExecutionStep{
			{Order: 1, Kind: models.StepValidate},
			{Order: 2, Kind: models.StepScale, TargetCapacity: target},
			{Order: 3, Kind: models.StepVerify, TargetCapacity: target},
		},
		RollbackPlan: []models.ExecutionStep{
			{Order: 1, Kind: models.StepRollback, TargetCapacity: current},
		},
	}
}

func newTestExecutor(sc scaler.Scaler) *Executor {
	publisher := events.NewPublisher(events.NewEventBus(16))
	return New(Config{MinConfidence: 0.7}, sc, publisher, nil)
}

func TestExecutor_ExecutesPlanInOrder(t *testing.T) {
	sc := scaler.NewSimulatorScaler(0)
	sc.SetCapacity("web-frontend", 2)
	exec := newTestExecutor(sc)

	record, err := exec.Execute(context.Background(), testDecision("web-frontend", 2, 3, 0.9))
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, models.ScalingOutcomeExecuted, record.Status)
	assert.Equal(t, 2, record.CapacityBefore)
	assert.Equal(t, 3, record.CapacityAfter)

	capacity, err := sc.Capacity(context.Background(), "web-frontend")
	require.NoError(t, err)
	assert.Equal(t, 3, capacity)
}

func TestExecutor_SkipsLowConfidence(t *testing.T) {
	sc := scaler.NewSimulatorScaler(0)
	sc.SetCapacity("web-frontend", 2)
	exec := newTestExecutor(sc)

	record, err := exec.Execute(context.Background(), testDecision("web-frontend", 2, 3, 0.5))
	require.NoError(t, err)

	assert.Equal(t, models.ScalingOutcomeSkipped, record.Status)
	assert.Equal(t, 2, record.CapacityAfter)

	capacity, _ := sc.Capacity(context.Background(), "web-frontend")
	assert.Equal(t, 2, capacity, "capacity must not change on a skipped decision")
}

func TestExecutor_SkipsNoActionDecision(t *testing.T) {
	sc := scaler.NewSimulatorScaler(0)
	sc.SetCapacity("web-frontend", 2)
	exec := newTestExecutor(sc)

	d := testDecision("web-frontend", 2, 2, 0.9)
	d.Action = models.ActionNoAction

	record, err := exec.Execute(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, models.ScalingOutcomeSkipped, record.Status)
}

func TestExecutor_RollsBackOnStepFailure(t *testing.T) {
	sc := scaler.NewSimulatorScaler(0)
	sc.SetCapacity("web-frontend", 2)
	exec := newTestExecutor(sc)

	// The scale step fails, the rollback step succeeds
	sc.FailNext(errors.New("provisioning refused"))

	record, err := exec.Execute(context.Background(), testDecision("web-frontend", 2, 3, 0.9))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepFailed)
	require.NotNil(t, record)

	assert.Equal(t, models.ScalingOutcomeRolledBack, record.Status)
	assert.Equal(t, string(models.StepScale), record.FailedStep)
	assert.Equal(t, 2, record.CapacityAfter)

	capacity, _ := sc.Capacity(context.Background(), "web-frontend")
	assert.Equal(t, 2, capacity)
}

func TestExecutor_ValidateCatchesCapacityDrift(t *testing.T) {
	sc := scaler.NewSimulatorScaler(0)
	sc.SetCapacity("web-frontend", 5)
	exec := newTestExecutor(sc)

	// Decision was made when capacity was 2, fleet has since moved to 5
	record, err := exec.Execute(context.Background(), testDecision("web-frontend", 2, 3, 0.9))
	require.Error(t, err)
	require.NotNil(t, record)
	assert.Equal(t, string(models.StepValidate), record.FailedStep)
}

// gatedScaler blocks every Scale call until released, so tests can hold a
// scaling in flight for as long as they need.
type gatedScaler struct {
	*scaler.SimulatorScaler
	entered chan struct{}
	release chan struct{}
}

func (g *gatedScaler) Scale(ctx context.Context, resourceID string, targetCapacity int) (*scaler.Outcome, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.SimulatorScaler.Scale(ctx, resourceID, targetCapacity)
}

func TestExecutor_OneInFlightPerResource(t *testing.T) {
	inner := scaler.NewSimulatorScaler(0)
	inner.SetCapacity("web-frontend", 2)
	sc := &gatedScaler{
		SimulatorScaler: inner,
		entered:         make(chan struct{}, 1),
		release:         make(chan struct{}),
	}
	exec := newTestExecutor(sc)

	done := make(chan error, 1)
	go func() {
		_, err := exec.Execute(context.Background(), testDecision("web-frontend", 2, 3, 0.9))
		done <- err
	}()

	// Wait until the first execution is holding the resource slot
	<-sc.entered
	assert.True(t, exec.InFlight("web-frontend"))

	for i := 0; i < 5; i++ {
		record, err := exec.Execute(context.Background(), testDecision("web-frontend", 2, 3, 0.9))
		assert.ErrorIs(t, err, ErrScalingInProgress)
		assert.Nil(t, record)
	}

	close(sc.release)
	require.NoError(t, <-done)
	exec.Wait()
	assert.False(t, exec.InFlight("web-frontend"))

	capacity, _ := sc.Capacity(context.Background(), "web-frontend")
	assert.Equal(t, 3, capacity)
}

func TestExecutor_ConcurrentScalingLimit(t *testing.T) {
	inner := scaler.NewSimulatorScaler(0)
	inner.SetCapacity("web-frontend", 2)
	inner.SetCapacity("api-backend", 2)
	sc := &gatedScaler{
		SimulatorScaler: inner,
		entered:         make(chan struct{}, 1),
		release:         make(chan struct{}),
	}
	publisher := events.NewPublisher(events.NewEventBus(16))
	exec := New(Config{MinConfidence: 0.7, MaxConcurrentScalings: 1}, sc, publisher, nil)

	done := make(chan error, 1)
	go func() {
		_, err := exec.Execute(context.Background(), testDecision("web-frontend", 2, 3, 0.9))
		done <- err
	}()
	<-sc.entered

	// A second resource is rejected while the single slot is taken
	record, err := exec.Execute(context.Background(), testDecision("api-backend", 2, 3, 0.9))
	assert.ErrorIs(t, err, ErrTooManyScalings)
	assert.Nil(t, record)

	close(sc.release)
	require.NoError(t, <-done)
	exec.Wait()

	record, err = exec.Execute(context.Background(), testDecision("api-backend", 2, 3, 0.9))
	require.NoError(t, err)
	assert.Equal(t, models.ScalingOutcomeExecuted, record.Status)
}

// slowScaler delays the first Scale call past any step deadline; later calls
// pass straight through so rollback can complete.
type slowScaler struct {
	*scaler.SimulatorScaler
	delay  time.Duration
	slowed bool
}

func (s *slowScaler) Scale(ctx context.Context, resourceID string, targetCapacity int) (*scaler.Outcome, error) {
	if !s.slowed {
		s.slowed = true
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.SimulatorScaler.Scale(ctx, resourceID, targetCapacity)
}

func TestExecutor_StepTimeoutAbortsSlowStep(t *testing.T) {
	inner := scaler.NewSimulatorScaler(0)
	inner.SetCapacity("web-frontend", 2)
	sc := &slowScaler{SimulatorScaler: inner, delay: 500 * time.Millisecond}
	publisher := events.NewPublisher(events.NewEventBus(16))
	exec := New(Config{MinConfidence: 0.7, StepTimeout: 20 * time.Millisecond}, sc, publisher, nil)

	record, err := exec.Execute(context.Background(), testDecision("web-frontend", 2, 3, 0.9))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepFailed)
	require.NotNil(t, record)

	assert.Equal(t, models.ScalingOutcomeRolledBack, record.Status)
	assert.Equal(t, string(models.StepScale), record.FailedStep)

	capacity, _ := sc.Capacity(context.Background(), "web-frontend")
	assert.Equal(t, 2, capacity, "capacity must not change when the scale step times out")
}

func TestExecutor_DifferentResourcesRunConcurrently(t *testing.T) {
	sc := scaler.NewSimulatorScaler(0)
	sc.SetCapacity("web-frontend", 2)
	sc.SetCapacity("api-backend", 2)
	exec := newTestExecutor(sc)

	var wg sync.WaitGroup
	for _, id := range []string{"web-frontend", "api-backend"} {
		wg.Add(1)
		go func(resourceID string) {
			defer wg.Done()
			record, err := exec.Execute(context.Background(), testDecision(resourceID, 2, 3, 0.9))
			assert.NoError(t, err)
			assert.Equal(t, models.ScalingOutcomeExecuted, record.Status)
		}(id)
	}
	wg.Wait()
}
