package threshold

import (
	"sync"
	"time"
)

// State is the hysteresis state for one threshold. At most one of the two
// dwell timers is non-nil at any time.
type State struct {
	ScaleUpDwellStart   *time.Time
	ScaleDownDwellStart *time.Time
	LastEvaluatedAt     time.Time
}

type stateEntry struct {
	mu    sync.Mutex
	state State
}

// StateStore keeps per-threshold dwell state behind per-key locks so that
// concurrent evaluations of different thresholds never serialize on each
// other, while updates to a single threshold are never lost.
type StateStore struct {
	mu      sync.Mutex
	entries map[string]*stateEntry
}

func NewStateStore() *StateStore {
	return &StateStore{
		entries: make(map[string]*stateEntry),
	}
}

func (s *StateStore) entry(thresholdID string) *stateEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[thresholdID]
	if !exists {
		e = &stateEntry{}
		s.entries[thresholdID] = e
	}
	return e
}

// Update runs fn with exclusive access to the threshold's state
func (s *StateStore) Update(thresholdID string, fn func(*State)) {
	e := s.entry(thresholdID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.state)
}

// Get returns a copy of the threshold's current state
func (s *StateStore) Get(thresholdID string) State {
	e := s.entry(thresholdID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Reset clears all dwell state for a threshold
func (s *StateStore) Reset(thresholdID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, thresholdID)
}
