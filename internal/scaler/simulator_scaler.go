package scaler

import (
	"context"
	"sync"
	"time"

	"github.com/platformkit/scaling-engine/internal/logger"
)

// SimulatorScaler applies capacity changes to an in-memory fleet after a
// configurable provisioning delay. It stands in for a cloud or orchestrator
// API during development and tests.
type SimulatorScaler struct {
	mu            sync.Mutex
	capacities    map[string]int
	provisionTime time.Duration
	failNext      error
}

func NewSimulatorScaler(provisionTime time.Duration) *SimulatorScaler {
	return &SimulatorScaler{
		capacities:    make(map[string]int),
		provisionTime: provisionTime,
	}
}

func (s *SimulatorScaler) SetCapacity(resourceID string, capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacities[resourceID] = capacity
}

// FailNext makes the next Scale call return err, for failure-path testing
func (s *SimulatorScaler) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *SimulatorScaler) Scale(ctx context.Context, resourceID string, targetCapacity int) (*Outcome, error) {
	if targetCapacity < 0 {
		return nil, ErrInvalidTarget
	}

	s.mu.Lock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		s.mu.Unlock()
		return nil, err
	}
	previous, exists := s.capacities[resourceID]
	s.mu.Unlock()

	if !exists {
		return nil, ErrResourceNotFound
	}

	if s.provisionTime > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.provisionTime):
		}
	}

	s.mu.Lock()
	s.capacities[resourceID] = targetCapacity
	s.mu.Unlock()

	logger.WithResource(resourceID).Infof(
		"Simulated scaling %d -> %d", previous, targetCapacity,
	)

	return &Outcome{
		ResourceID:       resourceID,
		PreviousCapacity: previous,
		CurrentCapacity:  targetCapacity,
	}, nil
}

func (s *SimulatorScaler) Capacity(_ context.Context, resourceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	capacity, exists := s.capacities[resourceID]
	if !exists {
		return 0, ErrResourceNotFound
	}
	return capacity, nil
}

func (s *SimulatorScaler) Close() error {
	return nil
}
