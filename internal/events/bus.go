// Package events provides the in-process domain event bus used to decouple
// the workflow cascades (customer becomes quote-eligible, quote created,
// quote decided) from the services that trigger them. Dispatch is
// synchronous and in publish order; handler errors are logged, never
// propagated, so a failed cascade cannot abort the triggering operation.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Event is a domain event carried on the bus.
type Event interface {
	Name() string
}

// Handler consumes one event. Returned errors are logged by the bus.
type Handler func(ctx context.Context, event Event) error

// Bus fans events out to subscribed handlers synchronously.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewBus creates an event bus
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the named event. Subscriptions happen
// during wiring, before any publish.
func (b *Bus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all subscribed handlers in order.
// Handler failures are logged and swallowed.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Name()]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			b.logger.Warn("event handler failed",
				zap.String("event", event.Name()),
				zap.Error(err))
		}
	}
}
