package metricsource

import (
	"context"
	"errors"
	"time"

	"github.com/platformkit/scaling-engine/pkg/models"
)

var (
	ErrReadFailed       = errors.New("metric read failed")
	ErrResourceNotFound = errors.New("resource not found")
)

// Reader provides utilization samples for resources. Implementations wrap
// whatever monitoring system actually collects the data.
type Reader interface {
	// Latest returns the most recent sample for a resource
	Latest(ctx context.Context, resourceID string) (*models.ResourceMetrics, error)

	// Recent returns ordered samples within the trailing window, oldest first
	Recent(ctx context.Context, resourceID string, window time.Duration) ([]models.ResourceMetrics, error)

	// HealthCheck verifies the reader can reach its data source
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the reader
	Close() error
}

// ForecastProvider supplies predicted utilization per (resource, metric)
type ForecastProvider interface {
	Forecast(ctx context.Context, resourceID string) ([]models.ForecastSeries, error)
}

// ContextProvider supplies the current business context, refreshed per
// evaluation cycle.
type ContextProvider interface {
	BusinessContext(ctx context.Context) (models.BusinessContext, error)
}
