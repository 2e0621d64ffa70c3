package host

import "sync"

// EventType discriminates payloads on the Dispatcher, mirroring
// texel/dispatcher.go's EventType/Event pattern.
type EventType int

const (
	// EventRegionDirty signals that a Rect of terminal rows needs
	// repainting on the next Show(), the answer to "avoiding visible
	// flicker" (spec.md §1) on a host where a full repaint flashes.
	EventRegionDirty EventType = iota
	// EventRowResized signals a committed row-height change, mirroring
	// the coordinator's updateRowSize fan-out.
	EventRowResized
)

// Event is a message passed through the Dispatcher.
type Event struct {
	Type    EventType
	Payload any
}

// RegionDirtyPayload is carried by EventRegionDirty.
type RegionDirtyPayload struct {
	Rect Rect
}

// RowResizedPayload is carried by EventRowResized.
type RowResizedPayload struct {
	Index   int
	NewSize int
}

// Listener receives dispatched events.
type Listener func(Event)

// Dispatcher fans out Events to registered listeners. Adapted from
// texel/dispatcher.go's mutex-guarded publish/subscribe core, re-typed for
// row-range invalidation instead of desktop pane state.
type Dispatcher struct {
	mu        sync.Mutex
	listeners []Listener
}

// NewDispatcher builds an empty Dispatcher.
func NewDispatcher() *Dispatcher { return &Dispatcher{} }

// Subscribe registers a listener, returning an unsubscribe function.
func (d *Dispatcher) Subscribe(l Listener) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
	idx := len(d.listeners) - 1
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if idx < len(d.listeners) {
			d.listeners[idx] = nil
		}
	}
}

// Publish fans evt out to every live listener.
func (d *Dispatcher) Publish(evt Event) {
	d.mu.Lock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.Unlock()

	for _, l := range listeners {
		if l != nil {
			l(evt)
		}
	}
}
