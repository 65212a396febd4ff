package dom

import "github.com/vango-dev/lazyload/pkg/geometry"

// Window events the engine listens to.
const (
	EventScroll = "scroll"
	EventResize = "resize"
)

// Element is a bound DOM element.
type Element interface {
	// TagName returns the element's tag name in any case.
	TagName() string

	// Attr returns an attribute value and whether it is present.
	Attr(name string) (string, bool)

	// SetAttr writes an attribute.
	SetAttr(name, value string) error

	// RemoveAttr deletes an attribute.
	RemoveAttr(name string) error

	// BoundingClientRect returns the element rectangle in viewport coordinates.
	BoundingClientRect() geometry.Rect

	// IsHidden reports whether the element takes no space in the layout
	// (display: none on it or an ancestor, or zero width and height).
	IsHidden() bool

	// CSS returns the computed value of a style property.
	CSS(property string) string
}

// Window is the viewport the elements are laid out in.
type Window interface {
	// InnerSize returns window.innerWidth/innerHeight. Zero means unavailable.
	InnerSize() geometry.Size

	// ClientSize returns document.documentElement.clientWidth/clientHeight.
	ClientSize() geometry.Size

	// On binds fn to a window event and returns a func that unbinds it.
	On(event string, fn func()) (off func())
}
