package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/scaling-engine")
	}

	v.SetEnvPrefix("SCALING_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "scaling-engine")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "scaling_engine")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")

	// Metric source defaults
	v.SetDefault("metrics.type", "simulator")
	v.SetDefault("metrics.endpoint", "http://localhost:9000/metrics")
	v.SetDefault("metrics.timeout", "5s")
	v.SetDefault("metrics.history_window", "10m")
	v.SetDefault("metrics.circuit_breaker.max_failures", 5)
	v.SetDefault("metrics.circuit_breaker.timeout", "30s")

	// Control loop defaults
	v.SetDefault("control.evaluation_interval", "30s")
	v.SetDefault("control.alert_cooldown", "5m")
	v.SetDefault("control.max_concurrent_alerts", 10)
	v.SetDefault("control.auto_scaling_enabled", true)
	v.SetDefault("control.notification_channels", []string{"log"})
	v.SetDefault("control.default_thresholds.cpu_usage.scale_up_value", 85.0)
	v.SetDefault("control.default_thresholds.cpu_usage.scale_down_value", 20.0)
	v.SetDefault("control.default_thresholds.cpu_usage.sustained_duration", "2m")
	v.SetDefault("control.default_thresholds.cpu_usage.cooldown", "5m")
	v.SetDefault("control.default_thresholds.memory_usage.scale_up_value", 85.0)
	v.SetDefault("control.default_thresholds.memory_usage.scale_down_value", 30.0)
	v.SetDefault("control.default_thresholds.memory_usage.sustained_duration", "2m")
	v.SetDefault("control.default_thresholds.memory_usage.cooldown", "5m")

	// Executor defaults
	v.SetDefault("executor.min_confidence", 0.7)
	v.SetDefault("executor.step_timeout", "30s")

	// Advisor defaults
	v.SetDefault("advisor.evaluation_interval", "5m")
	v.SetDefault("advisor.validity_period", "1h")
	v.SetDefault("advisor.min_confidence_threshold", 0.6)
	v.SetDefault("advisor.max_recommendations_per_resource", 3)
	v.SetDefault("advisor.proactive_enabled", true)
	v.SetDefault("advisor.cost_optimization_enabled", true)
	v.SetDefault("advisor.performance_tuning_enabled", true)
	v.SetDefault("advisor.risk_tolerance", "medium")
	v.SetDefault("advisor.min_savings_floor", 50.0)
	v.SetDefault("advisor.max_concurrent_analyses", 5)
	v.SetDefault("advisor.business_hours.start_hour", 9)
	v.SetDefault("advisor.business_hours.end_hour", 18)
	v.SetDefault("advisor.constraints.max_scale_up_factor", 3.0)
	v.SetDefault("advisor.constraints.max_scale_down_factor", 0.5)
	v.SetDefault("advisor.constraints.cooldown", "15m")
	v.SetDefault("advisor.constraints.max_concurrent_scalings", 3)
	v.SetDefault("advisor.constraints.budget_limit", 5000.0)

	// API defaults
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.jwt_issuer", "scaling-engine")
	v.SetDefault("api.default_limit", 50)
	v.SetDefault("api.max_limit", 500)

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.broadcast_buffer", 256)
	v.SetDefault("websocket.client_buffer", 64)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", true)

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
}
