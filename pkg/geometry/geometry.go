// Package geometry holds the rectangle math used to decide whether an element
// is about to scroll into view.
package geometry

// Rect is a bounding rectangle in viewport coordinates, as returned by
// getBoundingClientRect.
type Rect struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// Box is an origin plus size. Layout stores boxes; the viewport test works on Rects.
type Box struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Rect converts the box to a rectangle.
func (b Box) Rect() Rect {
	return Rect{
		Top:    b.Y,
		Left:   b.X,
		Bottom: b.Y + b.Height,
		Right:  b.X + b.Width,
	}
}

// Offset returns the box translated by (-dx, -dy).
func (b Box) Offset(dx, dy float64) Box {
	b.X -= dx
	b.Y -= dy
	return b
}

// Width returns the rectangle width.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the rectangle height.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// ResolveViewport picks the window inner dimensions, falling back per axis to
// the document client dimensions when an inner dimension is unavailable (zero).
func ResolveViewport(inner, client Size) Size {
	vp := inner
	if vp.Width == 0 {
		vp.Width = client.Width
	}
	if vp.Height == 0 {
		vp.Height = client.Height
	}
	return vp
}

// IsInViewport reports whether r is visible in a viewport of the given size,
// treating the top boundary as threshold pixels lower than the fold.
//
// Zero-size rectangles get no special treatment.
func IsInViewport(r Rect, viewport Size, threshold float64) bool {
	return r.Bottom > 0 &&
		r.Right > 0 &&
		r.Top-threshold < viewport.Height &&
		r.Left < viewport.Width
}
