// Package progress provides the advisory progress-event interface stages
// use to report work within a run. Observers must never influence stage
// output; events are fire-and-forget notifications only.
package progress

import (
	"sync"
	"time"
)

// Event describes one unit of progress within a stage.
type Event struct {
	Stage     string    // e.g. "normalize"
	Partition string    // e.g. "2025Q2", or "" for the stage as a whole
	Done      int       // units completed
	Total     int       // units expected, 0 if unknown
	Message   string    // human-readable description
	Timestamp time.Time
}

// Observer receives progress events. Implementations must not block for
// long or return an error that changes stage behavior — observers render
// progress bars, they do not participate in computation.
type Observer func(Event)

// Bus fans a published Event out to every registered Observer, synchronously:
// stage code calls Publish inline at partition boundaries, so a slow
// observer measurably slows the stage rather than racing its completion.
type Bus struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewBus creates an empty progress bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers an Observer. Subscribe is safe to call concurrently
// with Publish.
func (b *Bus) Subscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// Publish notifies every registered Observer, synchronously and in
// registration order.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.RLock()
	observers := make([]Observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.RUnlock()

	for _, o := range observers {
		o(e)
	}
}

// Noop is a Bus with no observers; stages may take one when the caller
// doesn't care about progress reporting.
func Noop() *Bus {
	return NewBus()
}
