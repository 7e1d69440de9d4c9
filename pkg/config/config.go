package config

import (
	"fmt"
	"time"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Control   ControlConfig   `mapstructure:"control"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	Advisor   AdvisorConfig   `mapstructure:"advisor"`
	API       APIConfig       `mapstructure:"api"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Events    EventsConfig    `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxConnections  int           `mapstructure:"max_connections"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

type MetricsConfig struct {
	Type           string               `mapstructure:"type"`
	Endpoint       string               `mapstructure:"endpoint"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	HistoryWindow  time.Duration        `mapstructure:"history_window"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DefaultThreshold seeds a per-metric threshold when none is configured
// explicitly for a resource.
type DefaultThreshold struct {
	ScaleUpValue      float64       `mapstructure:"scale_up_value"`
	ScaleDownValue    float64       `mapstructure:"scale_down_value"`
	SustainedDuration time.Duration `mapstructure:"sustained_duration"`
	Cooldown          time.Duration `mapstructure:"cooldown"`
}

type EscalationRuleConfig struct {
	Level   int           `mapstructure:"level"`
	Delay   time.Duration `mapstructure:"delay"`
	Actions []string      `mapstructure:"actions"`
}

// ControlConfig drives the reactive threshold-triggered control loop
type ControlConfig struct {
	EvaluationInterval   time.Duration               `mapstructure:"evaluation_interval"`
	AlertCooldown        time.Duration               `mapstructure:"alert_cooldown"`
	MaxConcurrentAlerts  int                         `mapstructure:"max_concurrent_alerts"`
	AutoScalingEnabled   bool                        `mapstructure:"auto_scaling_enabled"`
	DefaultThresholds    map[string]DefaultThreshold `mapstructure:"default_thresholds"`
	EscalationRules      []EscalationRuleConfig      `mapstructure:"escalation_rules"`
	NotificationChannels []string                    `mapstructure:"notification_channels"`
}

type ExecutorConfig struct {
	MinConfidence float64       `mapstructure:"min_confidence"`
	StepTimeout   time.Duration `mapstructure:"step_timeout"`
}

type BusinessHoursConfig struct {
	StartHour int `mapstructure:"start_hour"`
	EndHour   int `mapstructure:"end_hour"`
}

// ScalingConstraints bound what the advisory loop may propose
type ScalingConstraints struct {
	MaxScaleUpFactor      float64             `mapstructure:"max_scale_up_factor"`
	MaxScaleDownFactor    float64             `mapstructure:"max_scale_down_factor"`
	Cooldown              time.Duration       `mapstructure:"cooldown"`
	MaxConcurrentScalings int                 `mapstructure:"max_concurrent_scalings"`
	BudgetLimit           float64             `mapstructure:"budget_limit"`
	Dependencies          map[string][]string `mapstructure:"dependencies"`
}

// AdvisorConfig drives the recommendation scoring engine
type AdvisorConfig struct {
	EvaluationInterval            time.Duration       `mapstructure:"evaluation_interval"`
	ValidityPeriod                time.Duration       `mapstructure:"validity_period"`
	MinConfidenceThreshold        float64             `mapstructure:"min_confidence_threshold"`
	MaxRecommendationsPerResource int                 `mapstructure:"max_recommendations_per_resource"`
	ProactiveEnabled              bool                `mapstructure:"proactive_enabled"`
	CostOptimizationEnabled       bool                `mapstructure:"cost_optimization_enabled"`
	PerformanceTuningEnabled      bool                `mapstructure:"performance_tuning_enabled"`
	RiskTolerance                 string              `mapstructure:"risk_tolerance"`
	MinSavingsFloor               float64             `mapstructure:"min_savings_floor"`
	MaxConcurrentAnalyses         int                 `mapstructure:"max_concurrent_analyses"`
	BusinessHours                 BusinessHoursConfig `mapstructure:"business_hours"`
	Constraints                   ScalingConstraints  `mapstructure:"constraints"`
}

type APIConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	RateLimit         int           `mapstructure:"rate_limit"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	JWTDuration       time.Duration `mapstructure:"jwt_duration"`
	JWTIssuer         string        `mapstructure:"jwt_issuer"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	DefaultLimit      int           `mapstructure:"default_limit"`
	MaxLimit          int           `mapstructure:"max_limit"`
	CORS              CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type WebSocketConfig struct {
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
