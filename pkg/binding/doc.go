// Package binding evaluates knockout-style data-bind declarations.
//
// A declaration is the body of an object literal, as written in markup:
//
//	<img id="hero" data-bind="lazyload: {src: photo, threshold: 50, on: {load: loaded}}">
//
// Parse evaluates it with goja, with the view model's fields in scope, and
// returns the lazyload entry as lazyload.Options. Observables (zero-argument
// functions) used for src, srcset, threshold and loadingSrc are unwrapped.
// Functions under "on" become bus handlers that run inside the parser's
// runtime.
package binding
