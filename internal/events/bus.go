package events

import (
	"log/slog"
	"sync"
)

// Payload carries event data as loose key-value pairs.
type Payload map[string]any

// Handler receives a triggered event.
type Handler func(event string, payload Payload)

// Bus is a fire-and-forget event bus. Triggering never blocks on consumer
// logic beyond the handler call itself and is safe under concurrent use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	catchAll []Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a single event name.
func (b *Bus) Subscribe(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

// SubscribeAll registers a handler for every event.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catchAll = append(b.catchAll, h)
}

// Trigger dispatches an event to all matching handlers synchronously.
func (b *Bus) Trigger(event string, payload Payload) {
	b.mu.RLock()
	matched := b.handlers[event]
	catchAll := b.catchAll
	b.mu.RUnlock()

	for _, h := range matched {
		h(event, payload)
	}
	for _, h := range catchAll {
		h(event, payload)
	}
}

// LogHandler returns a handler that mirrors every event into a logger.
func LogHandler(log *slog.Logger) Handler {
	return func(event string, payload Payload) {
		attrs := make([]any, 0, len(payload)*2)
		for k, v := range payload {
			attrs = append(attrs, k, v)
		}
		log.Info(event, attrs...)
	}
}
