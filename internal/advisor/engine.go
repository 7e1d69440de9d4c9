package advisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/internal/metricsource"
	"github.com/platformkit/scaling-engine/internal/scaler"
	"github.com/platformkit/scaling-engine/internal/telemetry"
	"github.com/platformkit/scaling-engine/pkg/models"
)

// EngineConfig drives the advisory batch loop
type EngineConfig struct {
	Interval      time.Duration
	HistoryWindow time.Duration
	// MaxConcurrent bounds how many resources are analyzed in parallel
	MaxConcurrent int
}

// ResourceLister supplies the set of resources to analyze each batch
type ResourceLister func() []string

// Engine runs the advisory loop: on every tick it analyzes all known
// resources with bounded parallelism, feeds each generator's candidates
// through the scorer, and stores the survivors. The advisory path never
// executes anything.
type Engine struct {
	config     EngineConfig
	generators []Generator
	scorer     *Scorer
	store      *Store
	reader     metricsource.Reader
	forecaster metricsource.ForecastProvider
	business   metricsource.ContextProvider
	scaler     scaler.Scaler
	resources  ResourceLister
	publisher  *events.Publisher
	metrics    *telemetry.Metrics

	cancel context.CancelFunc
	done   chan struct{}
}

func NewEngine(
	cfg EngineConfig,
	generators []Generator,
	scorer *Scorer,
	store *Store,
	reader metricsource.Reader,
	forecaster metricsource.ForecastProvider,
	business metricsource.ContextProvider,
	sc scaler.Scaler,
	resources ResourceLister,
	publisher *events.Publisher,
	metrics *telemetry.Metrics,
) *Engine {
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.HistoryWindow == 0 {
		cfg.HistoryWindow = time.Hour
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	return &Engine{
		config:     cfg,
		generators: generators,
		scorer:     scorer,
		store:      store,
		reader:     reader,
		forecaster: forecaster,
		business:   business,
		scaler:     sc,
		resources:  resources,
		publisher:  publisher,
		metrics:    metrics,
		done:       make(chan struct{}),
	}
}

func (e *Engine) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.run(ctx)
}

func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RunBatch(ctx)
		}
	}
}

// RunBatch analyzes every known resource once. A single resource failing
// yields an empty set for that resource and never fails the batch.
func (e *Engine) RunBatch(ctx context.Context) {
	started := time.Now()
	resourceIDs := e.resources()

	var mu sync.Mutex
	var total int

	g := new(errgroup.Group)
	g.SetLimit(e.config.MaxConcurrent)

	for _, resourceID := range resourceIDs {
		resourceID := resourceID
		g.Go(func() error {
			recs, err := e.analyzeResource(ctx, resourceID)
			if err != nil {
				logger.WithResource(resourceID).Warnf("Recommendation analysis failed: %v", err)
				return nil
			}
			mu.Lock()
			total += len(recs)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	expired := e.store.Sweep()

	if e.metrics != nil {
		e.metrics.BatchDuration.Observe(time.Since(started).Seconds())
	}
	e.publisher.BatchRecommendationCompleted(len(resourceIDs), total)
	logger.Debugf(
		"Recommendation batch: %d resources, %d recommendations, %d expired, took %s",
		len(resourceIDs), total, expired, time.Since(started),
	)
}

func (e *Engine) analyzeResource(ctx context.Context, resourceID string) ([]*models.ScalingRecommendation, error) {
	latest, err := e.reader.Latest(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("read latest metrics: %w", err)
	}
	history, err := e.reader.Recent(ctx, resourceID, e.config.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("read metric history: %w", err)
	}
	capacity, err := e.scaler.Capacity(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("read capacity: %w", err)
	}

	genCtx := Context{
		ResourceID:      resourceID,
		CurrentCapacity: capacity,
		Latest:          latest,
		History:         history,
		RecentRecs:      e.store.ListByResource(resourceID),
		Now:             time.Now(),
	}

	// Forecasts and business context are advisory inputs: if either source
	// is unavailable the generators that need them simply see less.
	if e.forecaster != nil {
		if forecasts, err := e.forecaster.Forecast(ctx, resourceID); err == nil {
			genCtx.Forecasts = forecasts
		} else {
			logger.WithResource(resourceID).Debugf("Forecast unavailable: %v", err)
		}
	}
	if e.business != nil {
		if business, err := e.business.BusinessContext(ctx); err == nil {
			genCtx.Business = business
		}
	}

	var candidates []*models.ScalingRecommendation
	for _, gen := range e.generators {
		candidates = append(candidates, gen.Generate(genCtx)...)
	}

	final := e.scorer.Resolve(candidates, genCtx)
	for _, rec := range final {
		e.store.Put(rec)
	}
	return final, nil
}
