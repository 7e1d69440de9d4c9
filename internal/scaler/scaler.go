package scaler

import (
	"context"
	"errors"
)

var (
	ErrScalingFailed    = errors.New("scaling operation failed")
	ErrInvalidTarget    = errors.New("invalid target capacity")
	ErrResourceNotFound = errors.New("resource not found")
)

// Outcome reports the result of one scaling call
type Outcome struct {
	ResourceID       string
	PreviousCapacity int
	CurrentCapacity  int
}

// Scaler executes capacity changes against the actual orchestrator. How the
// orchestrator API authenticates is the implementation's concern.
type Scaler interface {
	// Scale moves the resource to the target capacity
	Scale(ctx context.Context, resourceID string, targetCapacity int) (*Outcome, error)

	// Capacity returns the resource's current capacity
	Capacity(ctx context.Context, resourceID string) (int, error)

	// Close releases resources
	Close() error
}
