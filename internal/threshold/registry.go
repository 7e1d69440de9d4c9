package threshold

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/platformkit/scaling-engine/internal/events"
	"github.com/platformkit/scaling-engine/pkg/config"
	"github.com/platformkit/scaling-engine/pkg/models"
)

var (
	ErrThresholdNotFound = errors.New("threshold not found")
)

// Registry holds the configured scaling thresholds. Create and Update reject
// invalid thresholds synchronously; nothing malformed is ever stored.
type Registry struct {
	mu         sync.RWMutex
	thresholds map[string]*models.ScalingThreshold
	byResource map[string][]string // resourceID -> threshold IDs
	publisher  *events.Publisher
}

func NewRegistry(publisher *events.Publisher) *Registry {
	return &Registry{
		thresholds: make(map[string]*models.ScalingThreshold),
		byResource: make(map[string][]string),
		publisher:  publisher,
	}
}

func (r *Registry) Create(t *models.ScalingThreshold) (*models.ScalingThreshold, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if t.ID == "" {
		t.ID = models.NewUUID()
	} else if _, exists := r.thresholds[t.ID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("threshold %s already exists", t.ID)
	}
	t.CreatedAt = time.Now()
	r.thresholds[t.ID] = t
	r.byResource[t.ResourceID] = append(r.byResource[t.ResourceID], t.ID)
	r.mu.Unlock()

	if r.publisher != nil {
		r.publisher.ThresholdCreated(t)
	}
	return t, nil
}

func (r *Registry) Update(t *models.ScalingThreshold) (*models.ScalingThreshold, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	existing, exists := r.thresholds[t.ID]
	if !exists {
		r.mu.Unlock()
		return nil, ErrThresholdNotFound
	}
	if existing.ResourceID != t.ResourceID {
		r.mu.Unlock()
		return nil, errors.New("threshold resource_id cannot be changed")
	}
	t.CreatedAt = existing.CreatedAt
	now := time.Now()
	t.UpdatedAt = &now
	r.thresholds[t.ID] = t
	r.mu.Unlock()

	if r.publisher != nil {
		r.publisher.ThresholdUpdated(t)
	}
	return t, nil
}

func (r *Registry) Get(id string) (*models.ScalingThreshold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.thresholds[id]
	if !exists {
		return nil, ErrThresholdNotFound
	}
	copied := *t
	return &copied, nil
}

// ListByResource returns the active thresholds for a resource
func (r *Registry) ListByResource(resourceID string) []*models.ScalingThreshold {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byResource[resourceID]
	thresholds := make([]*models.ScalingThreshold, 0, len(ids))
	for _, id := range ids {
		if t, exists := r.thresholds[id]; exists && t.Active {
			copied := *t
			thresholds = append(thresholds, &copied)
		}
	}
	return thresholds
}

func (r *Registry) List() []*models.ScalingThreshold {
	r.mu.RLock()
	defer r.mu.RUnlock()

	thresholds := make([]*models.ScalingThreshold, 0, len(r.thresholds))
	for _, t := range r.thresholds {
		copied := *t
		thresholds = append(thresholds, &copied)
	}
	return thresholds
}

// Resources returns all resource ids with at least one active threshold
func (r *Registry) Resources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resources := make([]string, 0, len(r.byResource))
	for resourceID, ids := range r.byResource {
		for _, id := range ids {
			if t, exists := r.thresholds[id]; exists && t.Active {
				resources = append(resources, resourceID)
				break
			}
		}
	}
	return resources
}

// SeedDefaults creates thresholds for a resource from the configured
// per-metric defaults, skipping metrics the resource already has.
func (r *Registry) SeedDefaults(resourceID string, defaults map[string]config.DefaultThreshold, policy models.ScalingPolicy) error {
	existing := make(map[string]bool)
	for _, t := range r.ListByResource(resourceID) {
		existing[t.MetricName] = true
	}

	for metric, d := range defaults {
		if existing[metric] {
			continue
		}
		t := &models.ScalingThreshold{
			ResourceID: resourceID,
			MetricName: metric,
			ScaleUp: models.ThresholdSide{
				Value:             d.ScaleUpValue,
				Operator:          models.CompareGreaterThan,
				SustainedDuration: d.SustainedDuration,
				Cooldown:          d.Cooldown,
			},
			ScaleDown: models.ThresholdSide{
				Value:             d.ScaleDownValue,
				Operator:          models.CompareLessThan,
				SustainedDuration: d.SustainedDuration,
				Cooldown:          d.Cooldown,
			},
			Policy: policy,
			Active: true,
		}
		if _, err := r.Create(t); err != nil {
			return fmt.Errorf("failed to seed %s threshold: %w", metric, err)
		}
	}
	return nil
}
