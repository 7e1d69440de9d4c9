package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformkit/scaling-engine/api/handlers"
	"github.com/platformkit/scaling-engine/api/middleware"
	"github.com/platformkit/scaling-engine/api/websocket"
	"github.com/platformkit/scaling-engine/internal/advisor"
	"github.com/platformkit/scaling-engine/internal/alerting"
	"github.com/platformkit/scaling-engine/internal/auth"
	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/internal/executor"
	"github.com/platformkit/scaling-engine/internal/metricsource"
	"github.com/platformkit/scaling-engine/internal/telemetry"
	"github.com/platformkit/scaling-engine/internal/threshold"
	"github.com/platformkit/scaling-engine/pkg/config"
	"github.com/platformkit/scaling-engine/pkg/database"
	"github.com/platformkit/scaling-engine/pkg/database/queries"
)

// Deps collects everything the HTTP surface exposes
type Deps struct {
	DB       *database.DB
	Bus      *events.EventBus
	Registry *threshold.Registry
	Alerts   *alerting.Manager
	Executor *executor.Executor
	Store    *advisor.Store
	Reader   metricsource.Reader
	Metrics  *telemetry.Metrics
}

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      config.APIConfig
	wsConfig    config.WebSocketConfig
	deps        Deps
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
}

func NewServer(cfg config.APIConfig, wsCfg config.WebSocketConfig, deps Deps) *Server {
	if cfg.JWTSecret == "" || cfg.JWTSecret == "change-me-in-production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	authService := auth.NewService(cfg.JWTSecret, cfg.JWTDuration, cfg.JWTIssuer)
	wsHub := websocket.NewHub(wsCfg)

	s := &Server{
		router:      router,
		config:      cfg,
		wsConfig:    wsCfg,
		deps:        deps,
		authService: authService,
		wsHub:       wsHub,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	if deps.Bus != nil {
		s.wsBridge = websocket.NewEventBridge(wsHub, deps.Bus.SubscribeAll())
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORS(s.config.CORS))
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.RateLimit(middleware.NewRateLimiter(s.config.RateLimit)))
	s.router.Use(middleware.RequestSizeLimit(1 << 20))
}

func (s *Server) setupRoutes() {
	var alertRepo *queries.AlertRepository
	var recordRepo *queries.ScalingRecordRepository
	var recRepo *queries.RecommendationRepository
	if s.deps.DB != nil {
		alertRepo = queries.NewAlertRepository(s.deps.DB.DB)
		recordRepo = queries.NewScalingRecordRepository(s.deps.DB.DB)
		recRepo = queries.NewRecommendationRepository(s.deps.DB.DB)
	}

	healthHandler := handlers.NewHealthHandler(s.deps.DB, s.deps.Reader)
	authHandler := handlers.NewAuthHandler(s.config, s.authService)
	thresholdHandler := handlers.NewThresholdHandler(s.deps.Registry)
	alertHandler := handlers.NewAlertHandler(s.deps.Alerts, alertRepo)
	recHandler := handlers.NewRecommendationHandler(s.deps.Store, recRepo)
	scalingHandler := handlers.NewScalingHandler(recordRepo, s.deps.Executor, s.deps.Alerts, s.deps.Registry)

	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	s.router.POST("/auth/login", middleware.AuthRateLimiter(), authHandler.Login)

	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	{
		protected.GET("/thresholds", thresholdHandler.List)
		protected.POST("/thresholds", thresholdHandler.Create)
		protected.GET("/thresholds/:id", thresholdHandler.Get)
		protected.PUT("/thresholds/:id", thresholdHandler.Update)

		protected.GET("/alerts", alertHandler.List)
		protected.GET("/alerts/:id", alertHandler.Get)
		protected.POST("/alerts/:id/acknowledge", alertHandler.Acknowledge)
		protected.POST("/alerts/:id/resolve", alertHandler.Resolve)
		protected.POST("/alerts/:id/suppress", alertHandler.Suppress)
		protected.POST("/alerts/:id/cancel", alertHandler.Cancel)

		protected.GET("/recommendations", recHandler.List)
		protected.GET("/recommendations/:id", recHandler.Get)
		protected.POST("/recommendations/:id/feedback", recHandler.Feedback)

		protected.GET("/resources/:id/alerts", alertHandler.History)
		protected.GET("/resources/:id/scalings", scalingHandler.History)

		protected.GET("/status", scalingHandler.Status)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	idleTimeout := s.config.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 60 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  idleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
