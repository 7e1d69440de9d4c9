package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/pkg/models"
)

var ErrUnknownChannel = errors.New("unknown notification channel")

// Notifier delivers an alert to a single channel
type Notifier interface {
	Send(ctx context.Context, alert *models.Alert) error
}

// Dispatcher fans an alert out to named channels. Each channel is attempted
// independently: one channel failing never blocks or fails the others.
type Dispatcher struct {
	mu       sync.RWMutex
	channels map[string]Notifier
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		channels: make(map[string]Notifier),
	}
}

func (d *Dispatcher) Register(name string, notifier Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[name] = notifier
}

// Dispatch sends the alert to every named channel concurrently and waits for
// all attempts to finish. Failures are logged per channel and swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert, channels []string) {
	var wg sync.WaitGroup

	for _, name := range channels {
		d.mu.RLock()
		notifier, exists := d.channels[name]
		d.mu.RUnlock()

		if !exists {
			logger.WithAlert(alert.ID).Warnf("Notification channel %q not registered", name)
			continue
		}

		wg.Add(1)
		go func(name string, notifier Notifier) {
			defer wg.Done()
			if err := notifier.Send(ctx, alert); err != nil {
				logger.WithAlert(alert.ID).Errorf("Notification to channel %q failed: %v", name, err)
			}
		}(name, notifier)
	}

	wg.Wait()
}

// LogNotifier writes alerts to the structured log. It is the default channel
// and also serves as the development stand-in for chat or paging integrations.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(_ context.Context, alert *models.Alert) error {
	logger.WithFields(map[string]interface{}{
		"alert_id":    alert.ID,
		"resource_id": alert.ResourceID,
		"metric_name": alert.MetricName,
		"severity":    alert.Severity,
		"value":       alert.CurrentValue,
	}).Warn(alert.Message)
	return nil
}
