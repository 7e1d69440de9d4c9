package alerting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/platformkit/scaling-engine/internal/decision"
	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/internal/executor"
	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/internal/notify"
	"github.com/platformkit/scaling-engine/internal/scaler"
	"github.com/platformkit/scaling-engine/internal/telemetry"
	"github.com/platformkit/scaling-engine/pkg/models"
)

var ErrAlertNotFound = errors.New("alert not found")

type Config struct {
	// Cooldown window within which a repeat trigger for the same
	// (resource, metric) is suppressed instead of raising a new alert.
	// A threshold's own scale-up cooldown takes precedence when set.
	AlertCooldown time.Duration

	// MaxConcurrentAlerts caps how many active alerts may drive
	// auto-scaling at once
	MaxConcurrentAlerts int

	AutoScalingEnabled bool

	// NotificationChannels receive every alert
	NotificationChannels []string

	// EscalationRules must be ordered by strictly increasing level
	EscalationRules []models.EscalationRule
}

// Manager owns the alert lifecycle: creation with cooldown dedup, severity
// classification, notification dispatch, optional auto-scaling, and
// escalation scheduling.
type Manager struct {
	config     Config
	dispatcher *notify.Dispatcher
	maker      *decision.Maker
	exec       *executor.Executor
	scaler     scaler.Scaler
	publisher  *events.Publisher
	metrics    *telemetry.Metrics

	mu          sync.Mutex
	alerts      map[string]*models.Alert
	activeByKey map[string]string // (resource|metric) -> alert id
	contexts    map[string]*alertContext
	escalations map[string]*time.Timer
	closed      bool
}

// alertContext keeps what an escalation rung needs to re-run auto-scaling
// after the alert has been raised.
type alertContext struct {
	eval      *models.ThresholdEvaluation
	threshold *models.ScalingThreshold
	history   []models.ResourceMetrics
}

func NewManager(
	cfg Config,
	dispatcher *notify.Dispatcher,
	maker *decision.Maker,
	exec *executor.Executor,
	sc scaler.Scaler,
	publisher *events.Publisher,
	metrics *telemetry.Metrics,
) *Manager {
	if cfg.AlertCooldown == 0 {
		cfg.AlertCooldown = 5 * time.Minute
	}
	if cfg.MaxConcurrentAlerts == 0 {
		cfg.MaxConcurrentAlerts = 10
	}
	return &Manager{
		config:      cfg,
		dispatcher:  dispatcher,
		maker:       maker,
		exec:        exec,
		scaler:      sc,
		publisher:   publisher,
		metrics:     metrics,
		alerts:      make(map[string]*models.Alert),
		activeByKey: make(map[string]string),
		contexts:    make(map[string]*alertContext),
		escalations: make(map[string]*time.Timer),
	}
}

func alertKey(resourceID, metricName string) string {
	return resourceID + "|" + metricName
}

// HandleEvaluation processes a triggered evaluation: deduplicates against
// the cooldown window, raises and dispatches an alert, optionally invokes
// the decision maker and executor, and schedules escalation.
func (m *Manager) HandleEvaluation(
	ctx context.Context,
	eval *models.ThresholdEvaluation,
	threshold *models.ScalingThreshold,
	history []models.ResourceMetrics,
) (*models.Alert, error) {
	if !eval.IsTriggered {
		return nil, nil
	}

	cooldown := threshold.ScaleUp.Cooldown
	if cooldown == 0 {
		cooldown = m.config.AlertCooldown
	}

	key := alertKey(eval.ResourceID, eval.MetricName)

	m.mu.Lock()
	if existingID, ok := m.activeByKey[key]; ok {
		existing := m.alerts[existingID]
		if existing != nil && existing.IsActive() && time.Since(existing.TriggeredAt) < cooldown {
			m.mu.Unlock()
			logger.WithResource(eval.ResourceID).Debugf(
				"Suppressing duplicate alert for %s (cooldown)", eval.MetricName,
			)
			return nil, nil
		}
	}

	alert := m.buildAlert(eval, threshold)
	m.alerts[alert.ID] = alert
	m.activeByKey[key] = alert.ID
	m.contexts[alert.ID] = &alertContext{eval: eval, threshold: threshold, history: history}
	activeCount := m.activeCountLocked()
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.AlertsCreatedTotal.WithLabelValues(string(alert.Severity)).Inc()
		m.metrics.ActiveAlerts.Set(float64(activeCount))
	}
	m.publisher.AlertCreated(alert)

	// Per-channel failures are isolated inside the dispatcher
	m.dispatcher.Dispatch(ctx, alert, m.config.NotificationChannels)

	if m.shouldAutoScale(alert, activeCount) {
		m.autoScale(ctx, alert, eval, threshold, history)
	}

	m.scheduleEscalation(alert.ID)

	return alert, nil
}

func (m *Manager) buildAlert(eval *models.ThresholdEvaluation, threshold *models.ScalingThreshold) *models.Alert {
	thresholdValue := eval.ThresholdValue(threshold)

	alert := &models.Alert{
		ID:             models.NewUUID(),
		ResourceID:     eval.ResourceID,
		MetricName:     eval.MetricName,
		ThresholdID:    threshold.ID,
		Status:         models.AlertStatusActive,
		CurrentValue:   eval.CurrentValue,
		ThresholdValue: thresholdValue,
		TriggeredAt:    eval.EvaluatedAt,
		CreatedAt:      time.Now(),
	}
	alert.Severity = models.SeverityFromDeviation(alert.RelativeDeviation())
	alert.Message = fmt.Sprintf(
		"%s %s at %.1f breached %s threshold %.1f",
		eval.ResourceID, eval.MetricName, eval.CurrentValue, eval.Side, thresholdValue,
	)
	alert.Actions = m.defaultActions(alert.Severity)
	return alert
}

func (m *Manager) defaultActions(severity models.AlertSeverity) []models.AlertAction {
	actions := []models.AlertAction{{Type: models.AlertActionNotify}}
	if severity == models.SeverityHigh || severity == models.SeverityCritical {
		actions = append(actions, models.AlertAction{Type: models.AlertActionChat})
	}
	if m.config.AutoScalingEnabled {
		actions = append(actions, models.AlertAction{Type: models.AlertActionAutoScale})
	}
	return actions
}

func (m *Manager) shouldAutoScale(alert *models.Alert, activeCount int) bool {
	if !m.config.AutoScalingEnabled {
		return false
	}
	if alert.Severity == models.SeverityLow {
		return false
	}
	return activeCount <= m.config.MaxConcurrentAlerts
}

func (m *Manager) autoScale(
	ctx context.Context,
	alert *models.Alert,
	eval *models.ThresholdEvaluation,
	threshold *models.ScalingThreshold,
	history []models.ResourceMetrics,
) {
	capacity, err := m.scaler.Capacity(ctx, alert.ResourceID)
	if err != nil {
		logger.WithAlert(alert.ID).Errorf("Cannot read capacity for auto-scale: %v", err)
		return
	}

	dec := m.maker.Decide(eval, threshold, capacity, history)
	m.publisher.ScalingDecisionMade(dec)

	if !dec.ShouldExecute() {
		return
	}

	if _, err := m.exec.Execute(ctx, dec); err != nil {
		if errors.Is(err, executor.ErrScalingInProgress) {
			logger.WithAlert(alert.ID).Warn("Auto-scale deferred: scaling already in flight")
			return
		}
		logger.WithAlert(alert.ID).Errorf("Auto-scale execution failed: %v", err)
	}
}

// Acknowledge marks an active alert acknowledged and cancels escalation
func (m *Manager) Acknowledge(alertID string) error {
	alert, err := m.transition(alertID, models.AlertStatusAcknowledged)
	if err != nil {
		return err
	}
	m.publisher.AlertAcknowledged(alert)
	return nil
}

// Resolve closes an alert and cancels its pending escalation
func (m *Manager) Resolve(alertID string) error {
	alert, err := m.transition(alertID, models.AlertStatusResolved)
	if err != nil {
		return err
	}
	m.publisher.AlertResolved(alert)
	return nil
}

// Suppress silences an alert and cancels its pending escalation
func (m *Manager) Suppress(alertID string) error {
	alert, err := m.transition(alertID, models.AlertStatusSuppressed)
	if err != nil {
		return err
	}
	m.publisher.AlertSuppressed(alert)
	return nil
}

// Cancel withdraws an alert raised in error and cancels its pending escalation
func (m *Manager) Cancel(alertID string) error {
	alert, err := m.transition(alertID, models.AlertStatusCancelled)
	if err != nil {
		return err
	}
	m.publisher.AlertCancelled(alert)
	return nil
}

func (m *Manager) transition(alertID string, status models.AlertStatus) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, exists := m.alerts[alertID]
	if !exists {
		return nil, ErrAlertNotFound
	}

	alert.Status = status
	if status == models.AlertStatusResolved {
		now := time.Now()
		alert.ResolvedAt = &now
	}

	key := alertKey(alert.ResourceID, alert.MetricName)
	if m.activeByKey[key] == alertID {
		delete(m.activeByKey, key)
	}

	m.cancelEscalationLocked(alertID)
	delete(m.contexts, alertID)

	if m.metrics != nil {
		m.metrics.ActiveAlerts.Set(float64(m.activeCountLocked()))
	}

	copied := *alert
	return &copied, nil
}

func (m *Manager) Get(alertID string) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, exists := m.alerts[alertID]
	if !exists {
		return nil, ErrAlertNotFound
	}
	copied := *alert
	return &copied, nil
}

// ActiveAlerts returns a snapshot of all currently active alerts
func (m *Manager) ActiveAlerts() []*models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	alerts := make([]*models.Alert, 0, len(m.activeByKey))
	for _, id := range m.activeByKey {
		if alert, exists := m.alerts[id]; exists && alert.IsActive() {
			copied := *alert
			alerts = append(alerts, &copied)
		}
	}
	return alerts
}

func (m *Manager) activeCountLocked() int {
	var count int
	for _, id := range m.activeByKey {
		if alert, exists := m.alerts[id]; exists && alert.IsActive() {
			count++
		}
	}
	return count
}

// Close cancels all pending escalation timers
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for alertID, timer := range m.escalations {
		timer.Stop()
		delete(m.escalations, alertID)
	}
	m.contexts = make(map[string]*alertContext)
}
