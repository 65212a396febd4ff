package lazyload

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/lazyload/pkg/dom"
)

// Binding is the engine's record for one bound element. The engine holds a
// reference to the element, never ownership.
type Binding struct {
	element   dom.Element
	options   Options
	activated atomic.Bool

	mu          sync.Mutex
	unsubscribe func()
}

func newBinding(el dom.Element, opts Options) *Binding {
	return &Binding{element: el, options: opts}
}

// Element returns the bound element.
func (b *Binding) Element() dom.Element {
	return b.element
}

// Options returns the configuration the element was bound with.
func (b *Binding) Options() Options {
	return b.options
}

// ID returns the element's current id attribute.
func (b *Binding) ID() (string, bool) {
	return b.element.Attr("id")
}

// Activated reports whether the element has been activated.
func (b *Binding) Activated() bool {
	return b.activated.Load()
}

// MarkActivated sets the activated marker. It returns false if the marker was
// already set, in which case the caller must not activate the element.
func (b *Binding) MarkActivated() bool {
	return b.activated.CompareAndSwap(false, true)
}

// clearActivated undoes MarkActivated after a failed activation so the next
// tick retries.
func (b *Binding) clearActivated() {
	b.activated.Store(false)
}

// eventKey is the bus key for this element: the id, or nil when there is none.
func (b *Binding) eventKey() any {
	id, ok := b.ID()
	if !ok {
		return nil
	}
	return id
}

func (b *Binding) setUnsubscribe(fn func()) {
	b.mu.Lock()
	b.unsubscribe = fn
	b.mu.Unlock()
}

// release drops the binding's trigger subscription.
func (b *Binding) release() {
	b.mu.Lock()
	fn := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}
