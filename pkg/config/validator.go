package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required"))
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, errors.New("database.port must be between 1 and 65535"))
		}
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required"))
		}
		if c.Database.MaxConnections <= 0 {
			errs = append(errs, errors.New("database.max_connections must be positive"))
		}
	}

	// Control loop validation
	if c.Control.EvaluationInterval <= 0 {
		errs = append(errs, errors.New("control.evaluation_interval must be positive"))
	}
	if c.Control.AlertCooldown < 0 {
		errs = append(errs, errors.New("control.alert_cooldown must not be negative"))
	}
	if c.Control.MaxConcurrentAlerts <= 0 {
		errs = append(errs, errors.New("control.max_concurrent_alerts must be positive"))
	}
	for metric, threshold := range c.Control.DefaultThresholds {
		if threshold.ScaleUpValue <= threshold.ScaleDownValue {
			errs = append(errs, fmt.Errorf("control.default_thresholds.%s: scale_up_value must be greater than scale_down_value", metric))
		}
		if threshold.SustainedDuration < 0 {
			errs = append(errs, fmt.Errorf("control.default_thresholds.%s: sustained_duration must not be negative", metric))
		}
	}
	lastLevel := 0
	for i, rule := range c.Control.EscalationRules {
		if rule.Level <= lastLevel {
			errs = append(errs, fmt.Errorf("control.escalation_rules[%d]: levels must be strictly increasing", i))
		}
		if rule.Delay <= 0 {
			errs = append(errs, fmt.Errorf("control.escalation_rules[%d]: delay must be positive", i))
		}
		lastLevel = rule.Level
	}

	// Executor validation
	if c.Executor.MinConfidence < 0 || c.Executor.MinConfidence > 1 {
		errs = append(errs, errors.New("executor.min_confidence must be in [0, 1]"))
	}

	// Advisor validation
	if c.Advisor.EvaluationInterval <= 0 {
		errs = append(errs, errors.New("advisor.evaluation_interval must be positive"))
	}
	if c.Advisor.ValidityPeriod <= 0 {
		errs = append(errs, errors.New("advisor.validity_period must be positive"))
	}
	if c.Advisor.MinConfidenceThreshold < 0 || c.Advisor.MinConfidenceThreshold > 1 {
		errs = append(errs, errors.New("advisor.min_confidence_threshold must be in [0, 1]"))
	}
	if c.Advisor.MaxRecommendationsPerResource <= 0 {
		errs = append(errs, errors.New("advisor.max_recommendations_per_resource must be positive"))
	}
	if c.Advisor.MaxConcurrentAnalyses <= 0 {
		errs = append(errs, errors.New("advisor.max_concurrent_analyses must be positive"))
	}
	validRisk := map[string]bool{"low": true, "medium": true, "high": true}
	if !validRisk[c.Advisor.RiskTolerance] {
		errs = append(errs, errors.New("advisor.risk_tolerance must be one of: low, medium, high"))
	}
	if c.Advisor.BusinessHours.StartHour < 0 || c.Advisor.BusinessHours.StartHour > 23 ||
		c.Advisor.BusinessHours.EndHour < 0 || c.Advisor.BusinessHours.EndHour > 23 {
		errs = append(errs, errors.New("advisor.business_hours hours must be between 0 and 23"))
	}
	if c.Advisor.Constraints.MaxScaleUpFactor < 1 {
		errs = append(errs, errors.New("advisor.constraints.max_scale_up_factor must be >= 1"))
	}
	if c.Advisor.Constraints.MaxScaleDownFactor <= 0 || c.Advisor.Constraints.MaxScaleDownFactor > 1 {
		errs = append(errs, errors.New("advisor.constraints.max_scale_down_factor must be in (0, 1]"))
	}

	// API validation
	if c.API.Enabled {
		if c.API.Port <= 0 || c.API.Port > 65535 {
			errs = append(errs, errors.New("api.port must be between 1 and 65535"))
		}
		if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
			errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
