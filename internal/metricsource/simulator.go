package metricsource

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/platformkit/scaling-engine/pkg/models"
)

const (
	simForecastPoints   = 24
	simForecastStep     = 5 * time.Minute
	simForecastAccuracy = 0.85
)

type simResource struct {
	baseCPU    float64
	baseMemory float64
	baseDisk   float64
	amplitude  float64
	phase      float64
	override   *models.ResourceMetrics
	custom     map[string]float64
}

// Simulator is a deterministic in-memory metric source for development and
// testing. Utilization follows a daily sinusoid per resource; SetLoad pins a
// resource to fixed values instead.
type Simulator struct {
	mu        sync.RWMutex
	resources map[string]*simResource
	history   map[string][]models.ResourceMetrics
}

func NewSimulator() *Simulator {
	return &Simulator{
		resources: make(map[string]*simResource),
		history:   make(map[string][]models.ResourceMetrics),
	}
}

func (s *Simulator) AddResource(resourceID string, baseCPU, baseMemory float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	phase := float64(len(s.resources)) * 0.7
	s.resources[resourceID] = &simResource{
		baseCPU:    baseCPU,
		baseMemory: baseMemory,
		baseDisk:   40.0,
		amplitude:  15.0,
		phase:      phase,
	}
}

// SetLoad pins a resource's utilization to fixed values
func (s *Simulator) SetLoad(resourceID string, cpu, memory, disk float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.resources[resourceID]
	if !exists {
		r = &simResource{}
		s.resources[resourceID] = r
	}
	r.override = &models.ResourceMetrics{
		ResourceID:  resourceID,
		CPUUsage:    cpu,
		MemoryUsage: memory,
		DiskUsage:   disk,
	}
}

// SetCustomMetric pins an application-defined gauge reported with every
// sample for the resource.
func (s *Simulator) SetCustomMetric(resourceID, name string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.resources[resourceID]
	if !exists {
		r = &simResource{}
		s.resources[resourceID] = r
	}
	if r.custom == nil {
		r.custom = make(map[string]float64)
	}
	r.custom[name] = value
}

func (s *Simulator) sample(resourceID string, at time.Time) (*models.ResourceMetrics, error) {
	r, exists := s.resources[resourceID]
	if !exists {
		return nil, ErrResourceNotFound
	}

	if r.override != nil {
		m := *r.override
		m.Timestamp = at
		m.CustomMetrics = copyCustom(r.custom)
		return &m, nil
	}

	minuteOfDay := float64(at.Hour()*60 + at.Minute())
	wave := math.Sin(2*math.Pi*minuteOfDay/1440 + r.phase)

	return &models.ResourceMetrics{
		ResourceID:    resourceID,
		Timestamp:     at,
		CPUUsage:      clampPercent(r.baseCPU + r.amplitude*wave),
		MemoryUsage:   clampPercent(r.baseMemory + r.amplitude*0.6*wave),
		DiskUsage:     clampPercent(r.baseDisk + 2*wave),
		NetworkIn:     clampPercent(30 + 20*wave),
		NetworkOut:    clampPercent(25 + 15*wave),
		CustomMetrics: copyCustom(r.custom),
	}, nil
}

func copyCustom(src map[string]float64) map[string]float64 {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (s *Simulator) Latest(_ context.Context, resourceID string) (*models.ResourceMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.sample(resourceID, time.Now())
	if err != nil {
		return nil, err
	}

	history := append(s.history[resourceID], *m)
	if len(history) > 120 {
		history = history[len(history)-120:]
	}
	s.history[resourceID] = history

	return m, nil
}

func (s *Simulator) Recent(_ context.Context, resourceID string, window time.Duration) ([]models.ResourceMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.resources[resourceID]; !exists {
		return nil, ErrResourceNotFound
	}

	cutoff := time.Now().Add(-window)
	var samples []models.ResourceMetrics
	for _, m := range s.history[resourceID] {
		if m.Timestamp.After(cutoff) {
			samples = append(samples, m)
		}
	}
	return samples, nil
}

func (s *Simulator) Forecast(_ context.Context, resourceID string) ([]models.ForecastSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.resources[resourceID]
	if !exists {
		return nil, ErrResourceNotFound
	}

	now := time.Now()
	series := []models.ForecastSeries{
		{ResourceID: resourceID, MetricName: models.MetricCPUUsage, ModelName: "daily-pattern", ModelAccuracy: simForecastAccuracy, GeneratedAt: now},
		{ResourceID: resourceID, MetricName: models.MetricMemoryUsage, ModelName: "daily-pattern", ModelAccuracy: simForecastAccuracy, GeneratedAt: now},
	}

	for i := 0; i < simForecastPoints; i++ {
		at := now.Add(time.Duration(i+1) * simForecastStep)
		minuteOfDay := float64(at.Hour()*60 + at.Minute())
		wave := math.Sin(2*math.Pi*minuteOfDay/1440 + r.phase)

		cpu := r.baseCPU + r.amplitude*wave
		mem := r.baseMemory + r.amplitude*0.6*wave
		if r.override != nil {
			cpu = r.override.CPUUsage
			mem = r.override.MemoryUsage
		}

		series[0].Points = append(series[0].Points, models.ForecastPoint{
			Timestamp: at, PredictedValue: clampPercent(cpu), Confidence: simForecastAccuracy,
		})
		series[1].Points = append(series[1].Points, models.ForecastPoint{
			Timestamp: at, PredictedValue: clampPercent(mem), Confidence: simForecastAccuracy,
		})
	}

	return series, nil
}

func (s *Simulator) HealthCheck(context.Context) error {
	return nil
}

func (s *Simulator) Close() error {
	return nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
