package control

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/platformkit/scaling-engine/internal/alerting"
	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/internal/metricsource"
	"github.com/platformkit/scaling-engine/internal/telemetry"
	"github.com/platformkit/scaling-engine/internal/threshold"
)

// Config drives the reactive evaluation loop
type Config struct {
	EvaluationInterval time.Duration
	HistoryWindow      time.Duration
}

// Loop is the reactive control loop: on every tick it evaluates all active
// thresholds against fresh samples and hands triggered evaluations to the
// alert manager. Resources are evaluated concurrently; a failing resource
// is reported and skipped until the next tick.
type Loop struct {
	config    Config
	registry  *threshold.Registry
	evaluator *threshold.Evaluator
	reader    metricsource.Reader
	alerts    *alerting.Manager
	publisher *events.Publisher
	metrics   *telemetry.Metrics

	cancel context.CancelFunc
	done   chan struct{}
}

func NewLoop(
	cfg Config,
	registry *threshold.Registry,
	evaluator *threshold.Evaluator,
	reader metricsource.Reader,
	alerts *alerting.Manager,
	publisher *events.Publisher,
	metrics *telemetry.Metrics,
) *Loop {
	if cfg.EvaluationInterval == 0 {
		cfg.EvaluationInterval = 30 * time.Second
	}
	if cfg.HistoryWindow == 0 {
		cfg.HistoryWindow = time.Hour
	}
	return &Loop{
		config:    cfg,
		registry:  registry,
		evaluator: evaluator,
		reader:    reader,
		alerts:    alerts,
		publisher: publisher,
		metrics:   metrics,
		done:      make(chan struct{}),
	}
}

func (l *Loop) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go l.run(ctx)
	logger.Infof("Control loop started, evaluating every %s", l.config.EvaluationInterval)
}

// Stop halts the loop and waits for the in-progress cycle to finish
func (l *Loop) Stop() {
	if l.cancel != nil {
		l.cancel()
		<-l.done
	}
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.config.EvaluationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.RunCycle(ctx)
		}
	}
}

// RunCycle evaluates every resource once. Errors never stop the loop: each
// failing resource is reported and retried on the next tick.
func (l *Loop) RunCycle(ctx context.Context) {
	var wg sync.WaitGroup
	for _, resourceID := range l.registry.Resources() {
		wg.Add(1)
		go func(resourceID string) {
			defer wg.Done()
			if err := l.evaluateResource(ctx, resourceID); err != nil {
				logger.WithResource(resourceID).Errorf("Evaluation cycle failed: %v", err)
				l.publisher.EvaluationError(resourceID, err)
				if l.metrics != nil {
					l.metrics.EvaluationErrorsTotal.WithLabelValues(resourceID).Inc()
				}
			}
		}(resourceID)
	}
	wg.Wait()
}

func (l *Loop) evaluateResource(ctx context.Context, resourceID string) error {
	latest, err := l.reader.Latest(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("read latest metrics: %w", err)
	}
	history, err := l.reader.Recent(ctx, resourceID, l.config.HistoryWindow)
	if err != nil {
		return fmt.Errorf("read metric history: %w", err)
	}

	if l.metrics != nil {
		l.metrics.EvaluationsTotal.WithLabelValues(resourceID).Inc()
	}

	now := time.Now()
	for _, t := range l.registry.ListByResource(resourceID) {
		eval := l.evaluator.Evaluate(t, latest, history, now)
		if !eval.IsTriggered {
			continue
		}
		if _, err := l.alerts.HandleEvaluation(ctx, eval, t, history); err != nil {
			return fmt.Errorf("handle triggered evaluation for %s: %w", t.MetricName, err)
		}
	}
	return nil
}
