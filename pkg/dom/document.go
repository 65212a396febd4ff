package dom

import (
	"strconv"
	"sync"

	"github.com/vango-dev/lazyload/pkg/geometry"
)

// Mutation describes one attribute change on a node.
type Mutation struct {
	Node    *Node
	Name    string
	Value   string
	Removed bool
}

type listener struct {
	id uint64
	fn func()
}

type observer struct {
	id uint64
	fn func(Mutation)
}

// Document is an in-memory page. It implements Window.
type Document struct {
	mu        sync.RWMutex
	inner     geometry.Size
	client    geometry.Size
	scrollX   float64
	scrollY   float64
	body      *Node
	byHID     map[string]*Node
	nextHID   int
	nextID    uint64
	listeners map[string][]listener
	observers []observer
}

// GeneratedHIDPrefix starts every handle the document generates. Handles
// supplied by callers must not use it.
const GeneratedHIDPrefix = "_h"

// NewDocument creates an empty document whose window and client areas both
// have the given size.
func NewDocument(viewport geometry.Size) *Document {
	d := &Document{
		inner:     viewport,
		client:    viewport,
		byHID:     make(map[string]*Node),
		listeners: make(map[string][]listener),
	}
	d.body = d.CreateElement("body")
	return d
}

// Body returns the root node.
func (d *Document) Body() *Node {
	return d.body
}

// CreateElement creates a detached node with a document-unique handle.
func (d *Document) CreateElement(tag string) *Node {
	return d.CreateElementWithHID(tag, "")
}

// CreateElementWithHID creates a detached node with the given handle, or a
// generated one when hid is empty.
func (d *Document) CreateElementWithHID(tag, hid string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	if hid == "" {
		d.nextHID++
		hid = GeneratedHIDPrefix + strconv.Itoa(d.nextHID)
	}
	n := &Node{
		doc:   d,
		hid:   hid,
		tag:   lower(tag),
		attrs: make(map[string]string),
		style: make(map[string]string),
	}
	d.byHID[hid] = n
	return n
}

// ByHID looks a node up by handle.
func (d *Document) ByHID(hid string) (*Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.byHID[hid]
	return n, ok
}

// GetElementByID returns the first attached node in document order with the id.
func (d *Document) GetElementByID(id string) *Node {
	for _, n := range d.Nodes() {
		if v, ok := n.Attr("id"); ok && v == id {
			return n
		}
	}
	return nil
}

// Nodes returns every attached node below the body in document order.
func (d *Document) Nodes() []*Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(d.body)
	return out
}

// Query returns the attached nodes carrying attribute name, in document order.
func (d *Document) Query(name string) []*Node {
	var out []*Node
	for _, n := range d.Nodes() {
		if _, ok := n.Attr(name); ok {
			out = append(out, n)
		}
	}
	return out
}

// InnerSize implements Window.
func (d *Document) InnerSize() geometry.Size {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.inner
}

// ClientSize implements Window.
func (d *Document) ClientSize() geometry.Size {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.client
}

// SetClientSize sets the document client area without firing events.
func (d *Document) SetClientSize(size geometry.Size) {
	d.mu.Lock()
	d.client = size
	d.mu.Unlock()
}

// Scroll returns the current scroll offset.
func (d *Document) Scroll() (x, y float64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scrollX, d.scrollY
}

// ScrollTo sets the scroll offset and fires "scroll".
func (d *Document) ScrollTo(x, y float64) {
	d.mu.Lock()
	d.scrollX, d.scrollY = x, y
	d.mu.Unlock()
	d.Dispatch(EventScroll)
}

// ScrollBy moves the scroll offset and fires "scroll".
func (d *Document) ScrollBy(dx, dy float64) {
	d.mu.Lock()
	d.scrollX += dx
	d.scrollY += dy
	d.mu.Unlock()
	d.Dispatch(EventScroll)
}

// Resize sets the window and client size and fires "resize".
func (d *Document) Resize(size geometry.Size) {
	d.mu.Lock()
	d.inner = size
	d.client = size
	d.mu.Unlock()
	d.Dispatch(EventResize)
}

// On implements Window.
func (d *Document) On(event string, fn func()) (off func()) {
	if fn == nil {
		return func() {}
	}

	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.listeners[event] = append(d.listeners[event], listener{id: id, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		ls := d.listeners[event]
		for i, l := range ls {
			if l.id == id {
				d.listeners[event] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

// Listeners returns the number of listeners bound to event.
func (d *Document) Listeners(event string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[event])
}

// Dispatch runs the listeners bound to event.
func (d *Document) Dispatch(event string) {
	d.mu.RLock()
	ls := make([]listener, len(d.listeners[event]))
	copy(ls, d.listeners[event])
	d.mu.RUnlock()

	for _, l := range ls {
		l.fn()
	}
}

// Observe registers fn for every attribute mutation. The returned func removes it.
func (d *Document) Observe(fn func(Mutation)) (off func()) {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.observers = append(d.observers, observer{id: id, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, o := range d.observers {
			if o.id == id {
				d.observers = append(d.observers[:i:i], d.observers[i+1:]...)
				return
			}
		}
	}
}

func (d *Document) notify(m Mutation) {
	d.mu.RLock()
	obs := make([]observer, len(d.observers))
	copy(obs, d.observers)
	d.mu.RUnlock()

	for _, o := range obs {
		o.fn(m)
	}
}

var _ Window = (*Document)(nil)
