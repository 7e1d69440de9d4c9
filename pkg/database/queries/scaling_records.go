package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/platformkit/scaling-engine/pkg/models"
)

type ScalingRecordRepository struct {
	db *sql.DB
}

func NewScalingRecordRepository(db *sql.DB) *ScalingRecordRepository {
	return &ScalingRecordRepository{db: db}
}

func (r *ScalingRecordRepository) Insert(ctx context.Context, record *models.ScalingRecord) error {
	query := `
		INSERT INTO scaling_records
			(resource_id, timestamp, action, capacity_before, capacity_after, trigger_reason, confidence, status, failed_step)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		record.ResourceID,
		record.Timestamp,
		record.Action,
		record.CapacityBefore,
		record.CapacityAfter,
		record.TriggerReason,
		record.Confidence,
		record.Status,
		record.FailedStep,
	)
	return err
}

func (r *ScalingRecordRepository) GetByResource(ctx context.Context, resourceID string, from, to time.Time, limit int) ([]models.ScalingRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, resource_id, timestamp, action, capacity_before, capacity_after,
		       trigger_reason, confidence, status, failed_step
		FROM scaling_records
		WHERE resource_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp DESC
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, resourceID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ScalingRecord
	for rows.Next() {
		var rec models.ScalingRecord
		err := rows.Scan(
			&rec.ID, &rec.ResourceID, &rec.Timestamp, &rec.Action,
			&rec.CapacityBefore, &rec.CapacityAfter, &rec.TriggerReason,
			&rec.Confidence, &rec.Status, &rec.FailedStep,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
