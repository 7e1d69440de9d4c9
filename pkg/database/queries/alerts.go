package queries

import (
	"context"
	"database/sql"

	"github.com/platformkit/scaling-engine/pkg/models"
)

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Upsert(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts
			(id, resource_id, metric_name, threshold_id, severity, status, current_value,
			 threshold_value, escalation_level, message, triggered_at, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			escalation_level = EXCLUDED.escalation_level,
			resolved_at = EXCLUDED.resolved_at`

	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.ResourceID,
		alert.MetricName,
		alert.ThresholdID,
		alert.Severity,
		alert.Status,
		alert.CurrentValue,
		alert.ThresholdValue,
		alert.EscalationLevel,
		alert.Message,
		alert.TriggeredAt,
		alert.CreatedAt,
		alert.ResolvedAt,
	)
	return err
}

func (r *AlertRepository) GetByResource(ctx context.Context, resourceID string, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, resource_id, metric_name, threshold_id, severity, status, current_value,
		       threshold_value, escalation_level, message, triggered_at, created_at, resolved_at
		FROM alerts
		WHERE resource_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, resourceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		err := rows.Scan(
			&a.ID, &a.ResourceID, &a.MetricName, &a.ThresholdID, &a.Severity, &a.Status,
			&a.CurrentValue, &a.ThresholdValue, &a.EscalationLevel, &a.Message,
			&a.TriggeredAt, &a.CreatedAt, &a.ResolvedAt,
		)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}
