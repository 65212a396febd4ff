package lazyload

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vango-dev/lazyload/pkg/dom"
	"github.com/vango-dev/lazyload/pkg/events"
	"github.com/vango-dev/lazyload/pkg/geometry"
	"github.com/vango-dev/lazyload/pkg/trigger"
)

// Engine binds elements of one window to the visibility trigger.
//
// Elements are tracked by identity, so dom.Element implementations must be
// comparable (pointer types are).
type Engine struct {
	window     dom.Window
	bus        *events.Bus
	handlers   *Registry
	cell       *trigger.Cell
	logger     *slog.Logger
	middleware []Middleware
	dispatch   UpdateFunc
	onError    func(*Binding, error)
	loadingSrc string
	polling    bool
	throttle   time.Duration
	scheduler  trigger.Scheduler

	mu       sync.Mutex
	bindings map[dom.Element]*Binding
	order    []*Binding
	offs     []func()
	closed   bool
}

// New creates an engine for window and binds its scroll and resize events.
func New(window dom.Window, opts ...Option) *Engine {
	e := &Engine{
		window:    window,
		handlers:  NewRegistry(),
		logger:    slog.Default().With("component", "lazyload"),
		polling:   true,
		throttle:  DefaultThrottle,
		scheduler: trigger.RealScheduler{},
		bindings:  make(map[dom.Element]*Binding),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.onError == nil {
		e.onError = e.logError
	}

	e.bus = events.NewBus(e)
	e.bus.SetLogger(e.logger)
	e.cell = trigger.New(e.throttle, trigger.WithScheduler(e.scheduler))
	e.dispatch = Chain(e.runHandler, e.middleware...)

	e.offs = append(e.offs,
		window.On(dom.EventScroll, e.FlagForLoadCheck),
		window.On(dom.EventResize, e.FlagForLoadCheck),
	)
	return e
}

// Handlers returns the tag handler registry. Hosts may register more tags.
func (e *Engine) Handlers() *Registry {
	return e.handlers
}

// Bus returns the engine's event bus.
func (e *Engine) Bus() *events.Bus {
	return e.bus
}

// Trigger returns the visibility trigger cell.
func (e *Engine) Trigger() *trigger.Cell {
	return e.cell
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// On registers a callback for an element id. See events.Bus.On.
func (e *Engine) On(id, eventNames string, handler events.Handler) {
	e.bus.On(id, eventNames, handler)
}

// Emit dispatches events for an element id. See events.Bus.Emit.
func (e *Engine) Emit(key any, eventNames any, args ...any) {
	e.bus.Emit(key, eventNames, args...)
}

// FlagForLoadCheck toggles the trigger cell. It is bound to the window's
// scroll and resize events.
func (e *Engine) FlagForLoadCheck() {
	e.cell.Toggle()
}

// IsInViewport reports whether el is within the viewport, with the fold
// lowered by threshold pixels.
func (e *Engine) IsInViewport(el dom.Element, threshold float64) bool {
	vp := geometry.ResolveViewport(e.window.InnerSize(), e.window.ClientSize())
	return geometry.IsInViewport(el.BoundingClientRect(), vp, threshold)
}

// Init binds el: it shows the placeholder, registers the configured
// callbacks, subscribes the element to the trigger, arms a tick and runs one
// immediate check so elements above the fold activate right away.
//
// Callbacks on an element without an id are not registered; a diagnostic is
// logged and the element is still bound.
func (e *Engine) Init(ctx context.Context, el dom.Element, opts Options) (*Binding, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	if _, ok := e.bindings[el]; ok {
		e.mu.Unlock()
		return nil, ErrAlreadyBound
	}
	e.mu.Unlock()

	if err := el.SetAttr("src", e.placeholder(opts)); err != nil {
		return nil, err
	}

	b := newBinding(el, opts)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	if _, ok := e.bindings[el]; ok {
		e.mu.Unlock()
		return nil, ErrAlreadyBound
	}
	e.bindings[el] = b
	e.order = append(e.order, b)
	if len(opts.On) > 0 {
		e.registerCallbacks(el, opts.On)
	}
	b.setUnsubscribe(e.cell.Subscribe(func(bool) { e.recheck(b) }))
	e.mu.Unlock()

	e.FlagForLoadCheck()

	if _, err := e.Update(ctx, b); err != nil {
		return b, err
	}
	return b, nil
}

// Update runs the activation guard for b and, if it passes, dispatches to the
// handler for the element's tag. An element with no registered handler is an
// integration error and yields ErrNoHandler.
func (e *Engine) Update(ctx context.Context, b *Binding) (Outcome, error) {
	el := b.Element()
	if el.IsHidden() || el.CSS("visibility") == "hidden" || b.Activated() {
		return OutcomeSkipped, nil
	}
	return e.dispatch(ctx, b)
}

// Binding returns the binding for el.
func (e *Engine) Binding(el dom.Element) (*Binding, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.bindings[el]
	return b, ok
}

// Bindings returns every binding in bind order.
func (e *Engine) Bindings() []*Binding {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Binding, len(e.order))
	copy(out, e.order)
	return out
}

// Release forgets el, e.g. after it was removed from the page. Its event
// callbacks stay registered.
func (e *Engine) Release(el dom.Element) {
	e.mu.Lock()
	b, ok := e.bindings[el]
	if ok {
		delete(e.bindings, el)
		for i, o := range e.order {
			if o == b {
				e.order = append(e.order[:i:i], e.order[i+1:]...)
				break
			}
		}
	}
	e.mu.Unlock()

	if ok {
		b.release()
	}
}

// Close unbinds the window listeners, stops the trigger and drops all
// bindings. Init fails with ErrClosed afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	offs := e.offs
	e.offs = nil
	order := e.order
	e.order = nil
	e.bindings = make(map[dom.Element]*Binding)
	e.mu.Unlock()

	for _, off := range offs {
		off()
	}
	for _, b := range order {
		b.release()
	}
	e.cell.Close()
}

// recheck is the per-binding trigger subscriber.
func (e *Engine) recheck(b *Binding) {
	if _, err := e.Update(context.Background(), b); err != nil {
		e.onError(b, err)
		return
	}
	if b.Activated() {
		b.release()
		return
	}
	if e.polling {
		e.FlagForLoadCheck()
	}
}

// runHandler is the innermost UpdateFunc.
func (e *Engine) runHandler(ctx context.Context, b *Binding) (Outcome, error) {
	tag := strings.ToLower(b.Element().TagName())
	h, ok := e.handlers.Lookup(tag)
	if !ok {
		id, _ := b.ID()
		return OutcomeFailed, noHandlerError(tag, id)
	}
	if err := h(ctx, e, b); err != nil {
		return OutcomeFailed, err
	}
	if b.Activated() {
		return OutcomeActivated, nil
	}
	return OutcomePending, nil
}

func (e *Engine) registerCallbacks(el dom.Element, on map[string]events.Handler) {
	id, ok := el.Attr("id")
	if !ok || id == "" {
		e.logger.Debug("failed to register the callback function, specify the id attribute to use callbacks",
			"code", "E004", "tag", strings.ToLower(el.TagName()))
		return
	}

	names := make([]string, 0, len(on))
	for name := range on {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e.bus.On(id, name, on[name])
	}
}

func (e *Engine) placeholder(opts Options) string {
	if opts.LoadingSrc != "" {
		return opts.LoadingSrc
	}
	if e.loadingSrc != "" {
		return e.loadingSrc
	}
	return TransparentGIF
}

func (e *Engine) logError(b *Binding, err error) {
	attrs := []any{"error", err, "tag", strings.ToLower(b.Element().TagName())}
	if id, ok := b.ID(); ok {
		attrs = append(attrs, "id", id)
	}
	e.logger.Error("lazy update failed", attrs...)
}
