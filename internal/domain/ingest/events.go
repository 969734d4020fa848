package ingest

import (
	"sync"

	"github.com/google/uuid"

	"github.com/devlens/devlens/internal/infrastructure/monitoring"
	"github.com/devlens/devlens/internal/shared/types"
)

// Bus is a typed publish/subscribe channel for ingestion events.
//
// Publish never blocks: each subscriber gets a buffered channel and events
// are dropped for subscribers that fall behind. No subscriber failure can
// affect the ingestion path.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string]chan types.Event
	closed  bool
	metrics *monitoring.Metrics
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan types.Event)}
}

// WithMetrics adds metrics tracking to the bus
func (b *Bus) WithMetrics(metrics *monitoring.Metrics) *Bus {
	b.metrics = metrics
	return b
}

// Subscribe registers a subscriber with the given buffer size and returns
// its id and receive channel. The channel is closed on Unsubscribe or Close.
func (b *Bus) Subscribe(buffer int) (string, <-chan types.Event) {
	if buffer <= 0 {
		buffer = 16
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan types.Event, buffer)
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers an event to every subscriber without blocking
func (b *Bus) Publish(ev types.Event) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	dropped := 0
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	if b.metrics != nil {
		b.metrics.RecordEvent(string(ev.Type), dropped)
	}
}

// Close shuts down the bus and closes every subscriber channel
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
