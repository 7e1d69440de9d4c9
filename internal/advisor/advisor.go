package advisor

import (
	"time"

	"github.com/platformkit/scaling-engine/pkg/models"
)

// Context is the shared input every generator receives for one resource.
// Generators are side-effect free: they read the context and return
// candidates, nothing else.
type Context struct {
	ResourceID      string
	CurrentCapacity int
	Latest          *models.ResourceMetrics
	History         []models.ResourceMetrics
	Forecasts       []models.ForecastSeries
	RecentRecs      []models.ScalingRecommendation
	Business        models.BusinessContext
	Now             time.Time
}

// Generator produces unscored candidate recommendations for one resource
type Generator interface {
	Strategy() models.RecommendationStrategy
	Generate(ctx Context) []*models.ScalingRecommendation
}

func newCandidate(ctx Context, strategy models.RecommendationStrategy, action models.ScalingAction, target int) *models.ScalingRecommendation {
	return &models.ScalingRecommendation{
		ID:              models.NewUUID(),
		ResourceID:      ctx.ResourceID,
		Strategy:        strategy,
		Action:          action,
		CurrentCapacity: ctx.CurrentCapacity,
		TargetCapacity:  target,
		CreatedAt:       ctx.Now,
		Timeline:        buildTimeline(action),
	}
}

func buildTimeline(action models.ScalingAction) models.Timeline {
	if action == models.ActionScaleDown {
		return models.Timeline{
			Immediate: []models.TimelineStep{
				{Description: "confirm no traffic spike is expected", Offset: 0},
			},
			ShortTerm: []models.TimelineStep{
				{Description: "drain and remove excess instances", Offset: 30 * time.Minute},
				{Description: "watch error rates after capacity reduction", Offset: time.Hour},
			},
			LongTerm: []models.TimelineStep{
				{Description: "revisit baseline capacity next planning cycle", Offset: 7 * 24 * time.Hour},
			},
		}
	}
	return models.Timeline{
		Immediate: []models.TimelineStep{
			{Description: "provision additional instances", Offset: 0},
		},
		ShortTerm: []models.TimelineStep{
			{Description: "verify load is spread across new instances", Offset: 30 * time.Minute},
		},
		LongTerm: []models.TimelineStep{
			{Description: "review whether the new capacity should become the baseline", Offset: 7 * 24 * time.Hour},
		},
	}
}
