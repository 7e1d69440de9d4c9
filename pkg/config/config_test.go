package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "scaling-engine", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Mode)
	assert.Equal(t, 30*time.Second, cfg.Control.EvaluationInterval)
	assert.Equal(t, 0.7, cfg.Executor.MinConfidence)
	assert.Equal(t, "simulator", cfg.Metrics.Type)
	assert.True(t, cfg.API.Enabled)
	assert.False(t, cfg.Database.Enabled)

	cpu, ok := cfg.Control.DefaultThresholds["cpu_usage"]
	require.True(t, ok)
	assert.Equal(t, 85.0, cpu.ScaleUpValue)
	assert.Equal(t, 20.0, cpu.ScaleDownValue)

	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Helper()
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "missing app name",
			mutate:  func(cfg *Config) { cfg.App.Name = "" },
			wantErr: "app.name is required",
		},
		{
			name:    "invalid mode",
			mutate:  func(cfg *Config) { cfg.App.Mode = "staging" },
			wantErr: "app.mode",
		},
		{
			name:    "invalid log level",
			mutate:  func(cfg *Config) { cfg.App.LogLevel = "trace" },
			wantErr: "app.log_level",
		},
		{
			name: "enabled database requires a host",
			mutate: func(cfg *Config) {
				cfg.Database.Enabled = true
				cfg.Database.Host = ""
			},
			wantErr: "database.host is required",
		},
		{
			name:    "non-positive evaluation interval",
			mutate:  func(cfg *Config) { cfg.Control.EvaluationInterval = 0 },
			wantErr: "control.evaluation_interval",
		},
		{
			name: "scale-up value must exceed scale-down",
			mutate: func(cfg *Config) {
				thr := cfg.Control.DefaultThresholds["cpu_usage"]
				thr.ScaleUpValue = 10
				thr.ScaleDownValue = 50
				cfg.Control.DefaultThresholds["cpu_usage"] = thr
			},
			wantErr: "scale_up_value must be greater than scale_down_value",
		},
		{
			name: "escalation levels must increase",
			mutate: func(cfg *Config) {
				cfg.Control.EscalationRules = []EscalationRuleConfig{
					{Level: 2, Delay: time.Minute},
					{Level: 1, Delay: time.Minute},
				}
			},
			wantErr: "levels must be strictly increasing",
		},
		{
			name:    "min confidence out of range",
			mutate:  func(cfg *Config) { cfg.Executor.MinConfidence = 1.5 },
			wantErr: "executor.min_confidence",
		},
		{
			name:    "unknown risk tolerance",
			mutate:  func(cfg *Config) { cfg.Advisor.RiskTolerance = "extreme" },
			wantErr: "advisor.risk_tolerance",
		},
		{
			name:    "business hours out of range",
			mutate:  func(cfg *Config) { cfg.Advisor.BusinessHours.EndHour = 25 },
			wantErr: "business_hours",
		},
		{
			name: "default jwt secret rejected in production",
			mutate: func(cfg *Config) {
				cfg.App.Mode = "production"
				cfg.API.JWTSecret = "change-me-in-production"
			},
			wantErr: "api.jwt_secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_EscalationLadderAccepted(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Control.EscalationRules = []EscalationRuleConfig{
		{Level: 1, Delay: 5 * time.Minute, Actions: []string{"notify"}},
		{Level: 2, Delay: 15 * time.Minute, Actions: []string{"notify", "chat"}},
	}
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db.internal", Port: 5432, Name: "scaling_engine",
		User: "svc", Password: "pw",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "dbname=scaling_engine")
	assert.Contains(t, dsn, "sslmode=disable", "ssl mode defaults to disable")

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}
