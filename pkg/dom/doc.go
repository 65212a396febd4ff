// Package dom defines the small slice of the DOM the lazy loader needs and
// ships an in-memory implementation of it.
//
// Element and Window are the toolkit boundary: bounding rectangles, viewport
// dimensions, attributes, visibility state and scroll/resize listeners. A
// browser binding implements them over the real DOM; Document and Node
// implement them in memory for tests, the simulator and the live server's
// per-session mirror.
//
//	doc := dom.NewDocument(geometry.Size{Width: 1280, Height: 800})
//	img := doc.CreateElement("img")
//	img.SetBox(geometry.Box{Y: 1200, Width: 400, Height: 300})
//	doc.Body().AppendChild(img)
//	doc.ScrollTo(0, 900) // fires "scroll" listeners
package dom
