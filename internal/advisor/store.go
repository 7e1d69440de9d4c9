package advisor

import (
	"errors"
	"sync"
	"time"

	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/internal/telemetry"
	"github.com/platformkit/scaling-engine/pkg/models"
)

var ErrRecommendationNotFound = errors.New("recommendation not found")

// Store holds live recommendations per resource. Entries expire at their
// validity deadline and are removed by the periodic sweep, which announces
// each expiry on the event bus.
type Store struct {
	validity  time.Duration
	publisher *events.Publisher
	metrics   *telemetry.Metrics

	mu    sync.RWMutex
	byID  map[string]*models.ScalingRecommendation
	order map[string][]string // resourceID -> recommendation IDs, insertion order
}

func NewStore(validity time.Duration, publisher *events.Publisher, metrics *telemetry.Metrics) *Store {
	if validity == 0 {
		validity = time.Hour
	}
	return &Store{
		validity:  validity,
		publisher: publisher,
		metrics:   metrics,
		byID:      make(map[string]*models.ScalingRecommendation),
		order:     make(map[string][]string),
	}
}

// Put stores the recommendation with a fresh validity window and announces it
func (s *Store) Put(rec *models.ScalingRecommendation) {
	rec.ValidUntil = time.Now().Add(s.validity)

	s.mu.Lock()
	s.byID[rec.ID] = rec
	s.order[rec.ResourceID] = append(s.order[rec.ResourceID], rec.ID)
	count := len(s.byID)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.StoredRecommendations.Set(float64(count))
		s.metrics.RecommendationsTotal.WithLabelValues(string(rec.Strategy)).Inc()
	}
	s.publisher.RecommendationGenerated(rec)
}

func (s *Store) Get(id string) (*models.ScalingRecommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.byID[id]
	if !exists {
		return nil, ErrRecommendationNotFound
	}
	copied := *rec
	return &copied, nil
}

// ListByResource returns the resource's unexpired recommendations in
// insertion order.
func (s *Store) ListByResource(resourceID string) []models.ScalingRecommendation {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[resourceID]
	recs := make([]models.ScalingRecommendation, 0, len(ids))
	for _, id := range ids {
		if rec, exists := s.byID[id]; exists && !rec.IsExpired(now) {
			recs = append(recs, *rec)
		}
	}
	return recs
}

func (s *Store) List() []models.ScalingRecommendation {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]models.ScalingRecommendation, 0, len(s.byID))
	for _, rec := range s.byID {
		if !rec.IsExpired(now) {
			recs = append(recs, *rec)
		}
	}
	return recs
}

// MarkImplemented records operator feedback on a recommendation
func (s *Store) MarkImplemented(id, feedback string) (*models.ScalingRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.byID[id]
	if !exists {
		return nil, ErrRecommendationNotFound
	}
	now := time.Now()
	rec.Implemented = true
	rec.ImplementedAt = &now
	rec.Feedback = feedback
	copied := *rec
	return &copied, nil
}

// Sweep removes expired recommendations, announcing each expiry. It returns
// how many entries were removed.
func (s *Store) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	var expired []*models.ScalingRecommendation
	for id, rec := range s.byID {
		if rec.IsExpired(now) {
			expired = append(expired, rec)
			delete(s.byID, id)
		}
	}
	if len(expired) > 0 {
		for resourceID, ids := range s.order {
			kept := ids[:0]
			for _, id := range ids {
				if _, exists := s.byID[id]; exists {
					kept = append(kept, id)
				}
			}
			if len(kept) == 0 {
				delete(s.order, resourceID)
			} else {
				s.order[resourceID] = kept
			}
		}
	}
	count := len(s.byID)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.StoredRecommendations.Set(float64(count))
	}
	for _, rec := range expired {
		s.publisher.RecommendationExpired(rec)
	}
	return len(expired)
}
