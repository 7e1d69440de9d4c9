package metricsource

import (
	"context"
	"time"

	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/internal/resilience"
	"github.com/platformkit/scaling-engine/pkg/models"
)

// ResilientReader wraps a Reader with retries and a circuit breaker so a
// flapping metrics backend cannot stall the evaluation loops.
type ResilientReader struct {
	reader         Reader
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientReaderConfig struct {
	Reader        Reader
	MaxFailures   int
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientReader(cfg ResilientReaderConfig) *ResilientReader {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "metricsource",
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientReader{
		reader:         cfg.Reader,
		circuitBreaker: cb,
		retryAttempts:  cfg.RetryAttempts,
		retryDelay:     cfg.RetryDelay,
	}
}

func (r *ResilientReader) Latest(ctx context.Context, resourceID string) (*models.ResourceMetrics, error) {
	var metrics *models.ResourceMetrics
	err := r.execute(ctx, resourceID, func() error {
		var err error
		metrics, err = r.reader.Latest(ctx, resourceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

func (r *ResilientReader) Recent(ctx context.Context, resourceID string, window time.Duration) ([]models.ResourceMetrics, error) {
	var samples []models.ResourceMetrics
	err := r.execute(ctx, resourceID, func() error {
		var err error
		samples, err = r.reader.Recent(ctx, resourceID, window)
		return err
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *ResilientReader) execute(ctx context.Context, resourceID string, fn func() error) error {
	var lastErr error

	return r.circuitBreaker.Execute(func() error {
		for attempt := 1; attempt <= r.retryAttempts; attempt++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err := fn(); err == nil {
				return nil
			} else {
				lastErr = err
			}

			logger.WithResource(resourceID).Warnf(
				"Metric read attempt %d/%d failed: %v",
				attempt, r.retryAttempts, lastErr,
			)

			if attempt < r.retryAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(r.retryDelay):
				}
			}
		}
		return lastErr
	})
}

func (r *ResilientReader) HealthCheck(ctx context.Context) error {
	return r.reader.HealthCheck(ctx)
}

func (r *ResilientReader) Close() error {
	return r.reader.Close()
}

func (r *ResilientReader) CircuitState() resilience.State {
	return r.circuitBreaker.State()
}
