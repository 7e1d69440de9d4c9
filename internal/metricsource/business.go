package metricsource

import (
	"context"
	"sync"
	"time"

	"github.com/platformkit/scaling-engine/pkg/models"
)

// ClockContextProvider derives the business-hours flag from the wall clock
// and configured hours; the critical-period flag and expected load are set
// by operators (or integrations) at runtime.
type ClockContextProvider struct {
	mu             sync.RWMutex
	startHour      int
	endHour        int
	criticalPeriod bool
	expectedLoad   models.ExpectedLoad
	now            func() time.Time
}

func NewClockContextProvider(startHour, endHour int) *ClockContextProvider {
	return &ClockContextProvider{
		startHour:    startHour,
		endHour:      endHour,
		expectedLoad: models.LoadNormal,
		now:          time.Now,
	}
}

func (p *ClockContextProvider) SetCriticalPeriod(critical bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criticalPeriod = critical
}

func (p *ClockContextProvider) SetExpectedLoad(load models.ExpectedLoad) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedLoad = load
}

func (p *ClockContextProvider) BusinessContext(context.Context) (models.BusinessContext, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	hour := p.now().Hour()
	return models.BusinessContext{
		IsBusinessHours:  hour >= p.startHour && hour < p.endHour,
		IsCriticalPeriod: p.criticalPeriod,
		ExpectedLoad:     p.expectedLoad,
	}, nil
}
