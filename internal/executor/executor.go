package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/internal/scaler"
	"github.com/platformkit/scaling-engine/internal/telemetry"
	"github.com/platformkit/scaling-engine/pkg/models"
)

var (
	// ErrScalingInProgress is returned when a scaling for the same resource
	// is already executing. Callers may retry on the next cycle.
	ErrScalingInProgress = errors.New("scaling already in progress for resource")

	// ErrTooManyScalings is returned when the engine-wide concurrency cap
	// is reached. Callers may retry on the next cycle.
	ErrTooManyScalings = errors.New("concurrent scaling limit reached")

	ErrStepFailed = errors.New("execution step failed")
)

type Config struct {
	// MinConfidence below which decisions are skipped, never executed
	MinConfidence float64

	// StepTimeout caps each execution step. Zero means no deadline.
	StepTimeout time.Duration

	// MaxConcurrentScalings caps in-flight executions across all resources.
	// Zero means unlimited.
	MaxConcurrentScalings int
}

// Executor runs a decision's execution plan strictly in order. A failed step
// aborts the remainder and triggers the rollback plan; a failed rollback is
// reported for operator intervention and not retried. At most one scaling is
// in flight per resource at any time.
type Executor struct {
	config    Config
	scaler    scaler.Scaler
	publisher *events.Publisher
	metrics   *telemetry.Metrics

	mu       sync.Mutex
	inFlight map[string]bool
	wg       sync.WaitGroup
}

func New(cfg Config, sc scaler.Scaler, publisher *events.Publisher, metrics *telemetry.Metrics) *Executor {
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = 0.7
	}
	return &Executor{
		config:    cfg,
		scaler:    sc,
		publisher: publisher,
		metrics:   metrics,
		inFlight:  make(map[string]bool),
	}
}

// Execute consumes the decision exactly once. A skipped low-confidence
// decision is a normal outcome, not an error; a busy resource is rejected
// with ErrScalingInProgress.
func (e *Executor) Execute(ctx context.Context, decision *models.ScalingDecision) (*models.ScalingRecord, error) {
	if !decision.ShouldExecute() {
		return models.NewScalingRecord(decision, models.ScalingOutcomeSkipped), nil
	}

	if decision.Confidence < e.config.MinConfidence {
		logger.WithResource(decision.ResourceID).Infof(
			"Skipping decision %s: confidence %.2f below %.2f",
			decision.ID, decision.Confidence, e.config.MinConfidence,
		)
		e.publisher.ScalingSkipped(decision, fmt.Sprintf("confidence %.2f below threshold", decision.Confidence))
		if e.metrics != nil {
			e.metrics.ScalingsTotal.WithLabelValues(string(decision.Action), "skipped").Inc()
		}
		return models.NewScalingRecord(decision, models.ScalingOutcomeSkipped), nil
	}

	if err := e.acquire(decision.ResourceID); err != nil {
		return nil, err
	}
	e.wg.Add(1)
	defer func() {
		e.release(decision.ResourceID)
		e.wg.Done()
	}()

	if e.metrics != nil {
		e.metrics.InFlightScalings.Inc()
		defer e.metrics.InFlightScalings.Dec()
	}

	record, err := e.runPlan(ctx, decision)
	if e.metrics != nil {
		e.metrics.ScalingsTotal.WithLabelValues(string(decision.Action), string(record.Status)).Inc()
	}
	return record, err
}

func (e *Executor) runPlan(ctx context.Context, decision *models.ScalingDecision) (*models.ScalingRecord, error) {
	for _, step := range decision.ExecutionPlan {
		if err := e.runStep(ctx, decision, step); err != nil {
			logger.WithResource(decision.ResourceID).Errorf(
				"Step %d (%s) failed: %v", step.Order, step.Kind, err,
			)
			e.publisher.ScalingFailed(decision, err)

			record := models.NewScalingRecord(decision, models.ScalingOutcomeFailed)
			record.FailedStep = string(step.Kind)
			record.CapacityAfter = decision.CurrentCapacity

			if rollbackErr := e.rollback(ctx, decision); rollbackErr != nil {
				// Resource left in an indeterminate state, flagged for
				// manual review.
				e.publisher.RollbackFailed(decision, rollbackErr)
			} else {
				record.Status = models.ScalingOutcomeRolledBack
			}

			return record, fmt.Errorf("%w: step %d (%s): %v", ErrStepFailed, step.Order, step.Kind, err)
		}
	}

	record := models.NewScalingRecord(decision, models.ScalingOutcomeExecuted)
	e.publisher.ScalingExecuted(record)
	return record, nil
}

func (e *Executor) runStep(ctx context.Context, decision *models.ScalingDecision, step models.ExecutionStep) error {
	if e.config.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.StepTimeout)
		defer cancel()
	}

	switch step.Kind {
	case models.StepValidate:
		capacity, err := e.scaler.Capacity(ctx, decision.ResourceID)
		if err != nil {
			return fmt.Errorf("capacity check: %w", err)
		}
		if capacity != decision.CurrentCapacity {
			return fmt.Errorf("capacity drifted: decision assumed %d, found %d", decision.CurrentCapacity, capacity)
		}
		return nil

	case models.StepScale, models.StepRollback:
		_, err := e.scaler.Scale(ctx, decision.ResourceID, step.TargetCapacity)
		return err

	case models.StepVerify:
		capacity, err := e.scaler.Capacity(ctx, decision.ResourceID)
		if err != nil {
			return fmt.Errorf("verification read: %w", err)
		}
		if capacity != step.TargetCapacity {
			return fmt.Errorf("verification failed: capacity %d, wanted %d", capacity, step.TargetCapacity)
		}
		return nil

	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (e *Executor) rollback(ctx context.Context, decision *models.ScalingDecision) error {
	for _, step := range decision.RollbackPlan {
		if err := e.runStep(ctx, decision, step); err != nil {
			return fmt.Errorf("rollback step %d: %w", step.Order, err)
		}
	}
	logger.WithResource(decision.ResourceID).Warnf(
		"Rolled back to capacity %d", decision.CurrentCapacity,
	)
	return nil
}

func (e *Executor) acquire(resourceID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[resourceID] {
		return ErrScalingInProgress
	}
	if e.config.MaxConcurrentScalings > 0 && len(e.inFlight) >= e.config.MaxConcurrentScalings {
		return ErrTooManyScalings
	}
	e.inFlight[resourceID] = true
	return nil
}

func (e *Executor) release(resourceID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, resourceID)
}

// InFlight reports whether a scaling is currently executing for the resource
func (e *Executor) InFlight(resourceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight[resourceID]
}

// Wait blocks until all in-flight executions complete, for shutdown
func (e *Executor) Wait() {
	e.wg.Wait()
}
