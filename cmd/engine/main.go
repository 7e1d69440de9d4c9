package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platformkit/scaling-engine/api"
	"github.com/platformkit/scaling-engine/internal/advisor"
	"github.com/platformkit/scaling-engine/internal/alerting"
	"github.com/platformkit/scaling-engine/internal/control"
	"github.com/platformkit/scaling-engine/internal/decision"
	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/internal/executor"
	"github.com/platformkit/scaling-engine/internal/impact"
	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/internal/metricsource"
	"github.com/platformkit/scaling-engine/internal/notify"
	"github.com/platformkit/scaling-engine/internal/resilience"
	"github.com/platformkit/scaling-engine/internal/scaler"
	"github.com/platformkit/scaling-engine/internal/telemetry"
	"github.com/platformkit/scaling-engine/internal/threshold"
	"github.com/platformkit/scaling-engine/pkg/config"
	"github.com/platformkit/scaling-engine/pkg/database"
	"github.com/platformkit/scaling-engine/pkg/models"
)

// demoResources is the fleet the simulator metric source serves when no real
// monitoring backend is configured.
var demoResources = []struct {
	id       string
	baseCPU  float64
	baseMem  float64
	capacity int
}{
	{"web-frontend", 55, 60, 3},
	{"api-backend", 45, 50, 2},
	{"worker-pool", 35, 40, 2},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.New(cfg.Database.ToDBConfig())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("Database connection established")

		if *migrate {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			logger.Info("Running database migrations")
			if err := database.NewMigrator(db).Run(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info("Migrations completed successfully")
			return nil
		}
	} else if *migrate {
		return fmt.Errorf("cannot migrate: database is disabled")
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		metrics = telemetry.New()
	}

	bus := events.NewEventBus(cfg.Events.BufferSize)
	publisher := events.NewPublisher(bus)

	sink := events.NewSink(db, bus.SubscribeAll())
	sink.Start()

	// Metric source: the simulator is the only built-in backend; anything
	// else needs a reader implementation wired here.
	if cfg.Metrics.Type != "simulator" {
		return fmt.Errorf("unsupported metrics source %q", cfg.Metrics.Type)
	}
	sim := metricsource.NewSimulator()
	simScaler := scaler.NewSimulatorScaler(2 * time.Second)
	for _, r := range demoResources {
		sim.AddResource(r.id, r.baseCPU, r.baseMem)
		simScaler.SetCapacity(r.id, r.capacity)
	}

	reader := metricsource.NewResilientReader(metricsource.ResilientReaderConfig{
		Reader:      sim,
		MaxFailures: cfg.Metrics.CircuitBreaker.MaxFailures,
		Timeout:     cfg.Metrics.CircuitBreaker.Timeout,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	defer reader.Close()

	business := metricsource.NewClockContextProvider(
		cfg.Advisor.BusinessHours.StartHour,
		cfg.Advisor.BusinessHours.EndHour,
	)

	estimator := impact.New(impact.Config{})

	registry := threshold.NewRegistry(publisher)
	evaluator := threshold.NewEvaluator(threshold.NewStateStore())

	defaultPolicy := models.ScalingPolicy{
		MinInstances: 1,
		MaxInstances: 10,
		ScaleUpBy:    1,
		ScaleDownBy:  1,
	}
	for _, r := range demoResources {
		if err := registry.SeedDefaults(r.id, cfg.Control.DefaultThresholds, defaultPolicy); err != nil {
			return fmt.Errorf("failed to seed thresholds for %s: %w", r.id, err)
		}
	}

	dispatcher := notify.NewDispatcher()
	dispatcher.Register("log", notify.NewLogNotifier())

	maker := decision.NewMaker(estimator)
	exec := executor.New(executor.Config{
		MinConfidence:         cfg.Executor.MinConfidence,
		StepTimeout:           cfg.Executor.StepTimeout,
		MaxConcurrentScalings: cfg.Advisor.Constraints.MaxConcurrentScalings,
	}, simScaler, publisher, metrics)

	escalationRules := make([]models.EscalationRule, 0, len(cfg.Control.EscalationRules))
	for _, rule := range cfg.Control.EscalationRules {
		actions := make([]models.AlertActionType, 0, len(rule.Actions))
		for _, a := range rule.Actions {
			actions = append(actions, models.AlertActionType(a))
		}
		escalationRules = append(escalationRules, models.EscalationRule{
			Level:   rule.Level,
			Delay:   rule.Delay,
			Actions: actions,
		})
	}

	alerts := alerting.NewManager(alerting.Config{
		AlertCooldown:        cfg.Control.AlertCooldown,
		MaxConcurrentAlerts:  cfg.Control.MaxConcurrentAlerts,
		AutoScalingEnabled:   cfg.Control.AutoScalingEnabled,
		NotificationChannels: cfg.Control.NotificationChannels,
		EscalationRules:      escalationRules,
	}, dispatcher, maker, exec, simScaler, publisher, metrics)

	loop := control.NewLoop(control.Config{
		EvaluationInterval: cfg.Control.EvaluationInterval,
		HistoryWindow:      cfg.Metrics.HistoryWindow,
	}, registry, evaluator, reader, alerts, publisher, metrics)
	loop.Start()

	var generators []advisor.Generator
	if cfg.Advisor.ProactiveEnabled {
		generators = append(generators, advisor.NewProactiveGenerator())
	}
	generators = append(generators, advisor.NewReactiveGenerator())
	if cfg.Advisor.CostOptimizationEnabled {
		analyzer := advisor.NewCostAnalyzer(estimator, cfg.Advisor.RiskTolerance)
		generators = append(generators, advisor.NewCostGenerator(analyzer, cfg.Advisor.MinSavingsFloor))
	}
	if cfg.Advisor.PerformanceTuningEnabled {
		generators = append(generators, advisor.NewPerformanceGenerator(advisor.NewBottleneckAnalyzer()))
	}

	scorer := advisor.NewScorer(advisor.ScorerConfig{
		MinConfidence:     cfg.Advisor.MinConfidenceThreshold,
		MaxPerResource:    cfg.Advisor.MaxRecommendationsPerResource,
		BudgetLimit:       cfg.Advisor.Constraints.BudgetLimit,
		ImplementCooldown: cfg.Advisor.Constraints.Cooldown,
		Dependencies:      cfg.Advisor.Constraints.Dependencies,

		MaxScaleUpFactor:   cfg.Advisor.Constraints.MaxScaleUpFactor,
		MaxScaleDownFactor: cfg.Advisor.Constraints.MaxScaleDownFactor,
	}, estimator)
	store := advisor.NewStore(cfg.Advisor.ValidityPeriod, publisher, metrics)

	advisorEngine := advisor.NewEngine(advisor.EngineConfig{
		Interval:      cfg.Advisor.EvaluationInterval,
		HistoryWindow: cfg.Metrics.HistoryWindow,
		MaxConcurrent: cfg.Advisor.MaxConcurrentAnalyses,
	}, generators, scorer, store, reader, sim, business, simScaler, registry.Resources, publisher, metrics)
	advisorEngine.Start()

	var server *api.Server
	errChan := make(chan error, 1)
	if cfg.API.Enabled {
		server = api.NewServer(cfg.API, cfg.WebSocket, api.Deps{
			DB:       db,
			Bus:      bus,
			Registry: registry,
			Alerts:   alerts,
			Executor: exec,
			Store:    store,
			Reader:   reader,
			Metrics:  metrics,
		})
		go func() {
			logger.Infof("API server listening on port %d", cfg.API.Port)
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	loop.Stop()
	advisorEngine.Stop()
	alerts.Close()
	exec.Wait()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	sink.Stop()
	bus.Close()

	logger.Info("Engine stopped gracefully")
	return nil
}
