// Package events implements the per-element event bus used to announce
// activation ("load") to host code.
//
// Callbacks are keyed by element id and event name. Registration order is
// dispatch order, and a later registration never replaces an earlier one:
//
//	bus := events.NewBus(engine)
//	bus.On("hero", "load", func(ev events.Event) {
//	    fmt.Println("loaded", ev.Args[0])
//	})
//	bus.Emit("hero", "load", element)
package events

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Load is the event emitted once an element has been activated.
const Load = "load"

// Event is passed to every callback.
type Event struct {
	// Key is the element id the event was emitted for.
	Key string

	// Name is the single event name being dispatched.
	Name string

	// Args are the extra emit arguments, forwarded positionally.
	Args []any

	// Context is the value the bus was created with (the engine).
	Context any
}

// Arg returns the i-th argument or nil.
func (e Event) Arg(i int) any {
	if i < 0 || i >= len(e.Args) {
		return nil
	}
	return e.Args[i]
}

// Handler is an event callback.
type Handler func(Event)

// Bus maps key -> event name -> ordered callbacks. Entries are created on
// first registration and never pruned.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string]map[string][]Handler
	context   any
	logger    *slog.Logger
}

// NewBus creates an empty bus. context is exposed to callbacks as Event.Context.
func NewBus(context any) *Bus {
	return &Bus{
		listeners: make(map[string]map[string][]Handler),
		context:   context,
		logger:    slog.Default().With("component", "events"),
	}
}

// SetLogger replaces the logger used for dispatch diagnostics.
func (b *Bus) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	b.mu.Lock()
	b.logger = logger
	b.mu.Unlock()
}

// On appends handler to every whitespace-separated event name in events.
// A nil handler is ignored.
func (b *Bus) On(key, events string, handler Handler) {
	if handler == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	byEvent, ok := b.listeners[key]
	if !ok {
		byEvent = make(map[string][]Handler)
		b.listeners[key] = byEvent
	}
	for _, name := range strings.Fields(events) {
		byEvent[name] = append(byEvent[name], handler)
	}
}

// Emit runs the callbacks registered for key and each named event, in the
// order the names are given and, per name, in registration order.
//
// key must be a string; nil means "no id" and dispatches nothing. events may
// be a space-separated string or a []string. Any other shape is reported as a
// debug diagnostic and dispatch is skipped.
func (b *Bus) Emit(key any, events any, args ...any) {
	var id string
	switch k := key.(type) {
	case string:
		id = k
	case nil:
		return
	default:
		b.log().Debug("the id attribute is not set in the correct format, use a string",
			"code", "E002", "key_type", fmt.Sprintf("%T", key))
		return
	}

	var names []string
	switch ev := events.(type) {
	case string:
		names = strings.Fields(ev)
	case []string:
		names = ev
	default:
		b.log().Debug("the event is not set in the correct format, use a string or a list of strings",
			"code", "E003", "key", id, "events_type", fmt.Sprintf("%T", events))
		return
	}

	for _, name := range names {
		for _, h := range b.snapshot(id, name) {
			h(Event{Key: id, Name: name, Args: args, Context: b.context})
		}
	}
}

// Count returns the number of callbacks registered for key and event.
func (b *Bus) Count(key, event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[key][event])
}

// snapshot copies the callback list so registrations made during dispatch
// only affect later emits.
func (b *Bus) snapshot(key, event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlers := b.listeners[key][event]
	if len(handlers) == 0 {
		return nil
	}
	out := make([]Handler, len(handlers))
	copy(out, handlers)
	return out
}

func (b *Bus) log() *slog.Logger {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.logger
}
