package events

import (
	"sync"

	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/pkg/models"
)

// EventBus fans events out to per-type subscribers over bounded channels.
// Publishing never blocks: a full subscriber channel drops the event.
type EventBus struct {
	mu       sync.RWMutex
	byType   map[models.EventType][]chan *models.Event
	firehose []chan *models.Event
	buffer   int
	closed   bool
}

func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventBus{
		byType: make(map[models.EventType][]chan *models.Event),
		buffer: bufferSize,
	}
}

// Subscribe returns a channel receiving only events of the given type.
func (b *EventBus) Subscribe(eventType models.EventType) <-chan *models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *models.Event, b.buffer)
	b.byType[eventType] = append(b.byType[eventType], ch)
	return ch
}

// SubscribeAll returns a channel receiving every published event.
func (b *EventBus) SubscribeAll() <-chan *models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *models.Event, b.buffer)
	b.firehose = append(b.firehose, ch)
	return ch
}

func (b *EventBus) Publish(event *models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.byType[event.Type] {
		b.deliver(ch, event)
	}
	for _, ch := range b.firehose {
		b.deliver(ch, event)
	}
}

func (b *EventBus) deliver(ch chan *models.Event, event *models.Event) {
	select {
	case ch <- event:
	default:
		logger.Warnf("Event channel full, dropping event: %s", event.Type)
	}
}

// Close closes every subscriber channel. Publishing after Close is a no-op.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, subscribers := range b.byType {
		for _, ch := range subscribers {
			close(ch)
		}
	}
	for _, ch := range b.firehose {
		close(ch)
	}

	b.byType = make(map[models.EventType][]chan *models.Event)
	b.firehose = nil
}
