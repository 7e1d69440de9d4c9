package queries

import (
	"context"
	"database/sql"

	"github.com/platformkit/scaling-engine/pkg/models"
)

type RecommendationRepository struct {
	db *sql.DB
}

func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

func (r *RecommendationRepository) Insert(ctx context.Context, rec *models.ScalingRecommendation) error {
	var overall *float64
	if rec.Score != nil {
		overall = &rec.Score.Overall
	}

	query := `
		INSERT INTO recommendations
			(id, resource_id, strategy, action, current_capacity, target_capacity, reasoning,
			 priority, confidence, overall_score, valid_until, created_at, implemented, feedback)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.ResourceID,
		rec.Strategy,
		rec.Action,
		rec.CurrentCapacity,
		rec.TargetCapacity,
		rec.Reasoning,
		rec.Priority,
		rec.Confidence,
		overall,
		rec.ValidUntil,
		rec.CreatedAt,
		rec.Implemented,
		rec.Feedback,
	)
	return err
}

func (r *RecommendationRepository) MarkImplemented(ctx context.Context, id, feedback string) error {
	query := `
		UPDATE recommendations
		SET implemented = TRUE, implemented_at = NOW(), feedback = $2
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, feedback)
	return err
}

func (r *RecommendationRepository) GetByResource(ctx context.Context, resourceID string, limit int) ([]models.ScalingRecommendation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, resource_id, strategy, action, current_capacity, target_capacity,
		       reasoning, priority, confidence, valid_until, created_at, implemented, feedback
		FROM recommendations
		WHERE resource_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, resourceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.ScalingRecommendation
	for rows.Next() {
		var rec models.ScalingRecommendation
		err := rows.Scan(
			&rec.ID, &rec.ResourceID, &rec.Strategy, &rec.Action,
			&rec.CurrentCapacity, &rec.TargetCapacity, &rec.Reasoning,
			&rec.Priority, &rec.Confidence, &rec.ValidUntil, &rec.CreatedAt,
			&rec.Implemented, &rec.Feedback,
		)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}
