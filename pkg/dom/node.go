package dom

import (
	"sort"
	"strings"

	lzerrors "github.com/vango-dev/lazyload/internal/errors"
	"github.com/vango-dev/lazyload/pkg/geometry"
)

// inherited lists the style properties that inherit from ancestors.
var inherited = map[string]bool{
	"visibility": true,
}

// defaults are the computed values of unset, non-inherited properties.
var defaults = map[string]string{
	"display":    "inline",
	"visibility": "visible",
}

// Node is an in-memory element. It implements Element.
type Node struct {
	doc      *Document
	hid      string
	tag      string
	attrs    map[string]string
	style    map[string]string
	box      geometry.Box
	parent   *Node
	children []*Node
}

// HID returns the document-unique handle.
func (n *Node) HID() string {
	return n.hid
}

// Tag returns the lowercase tag name.
func (n *Node) Tag() string {
	return n.tag
}

// TagName implements Element. Like the DOM, it reports HTML tags upper-cased.
func (n *Node) TagName() string {
	return strings.ToUpper(n.tag)
}

// ID returns the id attribute.
func (n *Node) ID() string {
	v, _ := n.Attr("id")
	return v
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// AppendChild attaches child as the last child of n, detaching it first.
// A node cannot be attached to itself or to one of its descendants.
func (n *Node) AppendChild(child *Node) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	for cur := n; cur != nil; cur = cur.parent {
		if cur == child {
			return lzerrors.New("E042").
				WithMessage("Cannot append %s to %s: it would create a cycle", child.hid, n.hid)
		}
	}

	if p := child.parent; p != nil {
		for i, c := range p.children {
			if c == child {
				p.children = append(p.children[:i:i], p.children[i+1:]...)
				break
			}
		}
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// Attr implements Element.
func (n *Node) Attr(name string) (string, bool) {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	v, ok := n.attrs[lower(name)]
	return v, ok
}

// Attrs returns a copy of the attributes.
func (n *Node) Attrs() map[string]string {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// AttrNames returns the attribute names in sorted order.
func (n *Node) AttrNames() []string {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetAttr implements Element.
func (n *Node) SetAttr(name, value string) error {
	name = lower(name)
	n.doc.mu.Lock()
	n.attrs[name] = value
	n.doc.mu.Unlock()

	n.doc.notify(Mutation{Node: n, Name: name, Value: value})
	return nil
}

// RemoveAttr implements Element.
func (n *Node) RemoveAttr(name string) error {
	name = lower(name)
	n.doc.mu.Lock()
	_, ok := n.attrs[name]
	delete(n.attrs, name)
	n.doc.mu.Unlock()

	if ok {
		n.doc.notify(Mutation{Node: n, Name: name, Removed: true})
	}
	return nil
}

// Box returns the layout box in document coordinates.
func (n *Node) Box() geometry.Box {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.box
}

// SetBox sets the layout box in document coordinates.
func (n *Node) SetBox(b geometry.Box) {
	n.doc.mu.Lock()
	n.box = b
	n.doc.mu.Unlock()
}

// SetStyle sets an inline style property. An empty value clears it.
func (n *Node) SetStyle(property, value string) {
	property = lower(property)
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if value == "" {
		delete(n.style, property)
		return
	}
	n.style[property] = strings.TrimSpace(value)
}

// BoundingClientRect implements Element.
func (n *Node) BoundingClientRect() geometry.Rect {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.box.Offset(n.doc.scrollX, n.doc.scrollY).Rect()
}

// IsHidden implements Element.
func (n *Node) IsHidden() bool {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()

	if n.box.Width == 0 && n.box.Height == 0 {
		return true
	}
	for cur := n; cur != nil; cur = cur.parent {
		if cur.style["display"] == "none" {
			return true
		}
	}
	return false
}

// CSS implements Element.
func (n *Node) CSS(property string) string {
	property = lower(property)
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()

	if v, ok := n.style[property]; ok {
		return v
	}
	if inherited[property] {
		for cur := n.parent; cur != nil; cur = cur.parent {
			if v, ok := cur.style[property]; ok {
				return v
			}
		}
	}
	return defaults[property]
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var _ Element = (*Node)(nil)
