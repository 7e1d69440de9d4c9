package alerting

import (
	"context"
	"time"

	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/pkg/models"
)

// scheduleEscalation arms the timer for the next escalation level above the
// alert's current one. Each firing re-arms for the level after it, so an
// unattended alert walks the whole ladder.
func (m *Manager) scheduleEscalation(alertID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduleEscalationLocked(alertID)
}

func (m *Manager) scheduleEscalationLocked(alertID string) {
	if m.closed {
		return
	}

	alert, exists := m.alerts[alertID]
	if !exists || !alert.IsActive() {
		return
	}

	rule := m.nextRule(alert.EscalationLevel)
	if rule == nil {
		return
	}

	m.cancelEscalationLocked(alertID)
	level := rule.Level
	actions := append([]models.AlertActionType(nil), rule.Actions...)
	m.escalations[alertID] = time.AfterFunc(rule.Delay, func() {
		m.escalate(alertID, level, actions)
	})
}

func (m *Manager) nextRule(currentLevel int) *models.EscalationRule {
	for i := range m.config.EscalationRules {
		if m.config.EscalationRules[i].Level > currentLevel {
			return &m.config.EscalationRules[i]
		}
	}
	return nil
}

func (m *Manager) escalate(alertID string, level int, actions []models.AlertActionType) {
	m.mu.Lock()

	delete(m.escalations, alertID)

	alert, exists := m.alerts[alertID]
	if !exists || !alert.IsActive() || m.closed {
		m.mu.Unlock()
		return
	}

	alert.EscalationLevel = level
	copied := *alert
	ec := m.contexts[alertID]
	m.scheduleEscalationLocked(alertID)
	m.mu.Unlock()

	logger.WithAlert(alertID).Warnf("Alert escalated to level %d", level)
	m.publisher.AlertEscalated(&copied)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	m.runActions(ctx, &copied, ec, actions)
}

// runActions executes one escalation rung. Rules without explicit actions
// re-notify the configured channels.
func (m *Manager) runActions(
	ctx context.Context,
	alert *models.Alert,
	ec *alertContext,
	actions []models.AlertActionType,
) {
	if len(actions) == 0 {
		actions = []models.AlertActionType{models.AlertActionNotify}
	}

	notified := false
	for _, action := range actions {
		switch action {
		case models.AlertActionNotify, models.AlertActionChat:
			if notified {
				continue
			}
			m.dispatcher.Dispatch(ctx, alert, m.config.NotificationChannels)
			notified = true

		case models.AlertActionAutoScale:
			if !m.config.AutoScalingEnabled || ec == nil {
				continue
			}
			m.autoScale(ctx, alert, ec.eval, ec.threshold, ec.history)
		}
	}
}

func (m *Manager) cancelEscalationLocked(alertID string) {
	if timer, exists := m.escalations[alertID]; exists {
		timer.Stop()
		delete(m.escalations, alertID)
	}
}
