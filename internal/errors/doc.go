// Package errors provides structured, coded errors for lazyload.
//
// Every failure the engine, the config loader, the page loaders and the live
// server can report has a registered code:
//   - runtime: missing tag handlers, closed engines (E001-E019)
//   - dispatch: malformed event bus arguments (E002, E003)
//   - binding: callback registration and declaration problems
//   - config: lazyload.json / lazyload.yaml loading and validation (E020-E039)
//   - page: HTML and YAML page fixtures (E040-E059)
//   - session: live websocket sessions (E060-E079)
//
// # Usage
//
//	err := errors.New("E001").
//	    WithMessage("No lazy handler defined for %q", "div").
//	    WithSuggestion("Register a handler for the tag")
//
//	fmt.Println(err.WithElement("div", "banner").Format())
//	// Output:
//	// error[E001] No lazy handler defined for "div"
//	//   --> <div id="banner">
//	//   The element's tag has no activation handler in the engine's registry. ...
//	//   hint: Register a handler for the tag
//
// FormatCompact gives the one-line form carried by session error frames and
// the simulate table; FormatJSON (also used by MarshalJSON) gives the form in
// simulate --json reports.
//
// LazyError values compare equal under errors.Is when their codes match, so
// callers can test against a template:
//
//	if errors.Is(err, lzerrors.New("E001")) { ... }
package errors
