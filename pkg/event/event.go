// Package event provides the in-process event dispatcher the store uses to
// surface side effects (order completed, sync failed, points awarded) to
// listeners such as the terminal live feed and the staff notifier.
package event

import "sync"

// Handler is a function that receives an event payload.
type Handler func(payload interface{})

// Bus is an isolated dispatcher. The store takes a *Bus so tests can observe
// emitted events without touching the global one.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus returns an empty dispatcher.
func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Fire dispatches an event synchronously to all registered listeners.
func (b *Bus) Fire(event string, payload interface{}) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	b.mu.RUnlock()

	for _, h := range hs {
		h(payload)
	}
}

// FireAsync dispatches the event to all listeners concurrently and returns
// immediately.
func (b *Bus) FireAsync(event string, payload interface{}) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	b.mu.RUnlock()

	for _, h := range hs {
		go h(payload)
	}
}

// Flush removes all listeners (useful in tests).
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}

// Default is the application-wide bus.
var Default = NewBus()

// Listen registers a handler on the default bus.
func Listen(event string, handler Handler) { Default.Listen(event, handler) }

// Fire dispatches on the default bus.
func Fire(event string, payload interface{}) { Default.Fire(event, payload) }

// FireAsync dispatches asynchronously on the default bus.
func FireAsync(event string, payload interface{}) { Default.FireAsync(event, payload) }
