// Package lazyload is the viewport-driven activation engine.
//
// An Engine watches a dom.Window for scroll and resize, coalesces those
// signals through a throttled trigger cell, and on every tick re-checks each
// bound element. An element that is displayed, not visibility:hidden, not yet
// activated, and within the viewport (plus its threshold) is handed to the
// handler registered for its tag. The built-in img handler swaps the
// placeholder for the configured src/srcset and emits "load" on the event bus.
//
//	engine := lazyload.New(window)
//	defer engine.Close()
//
//	_, err := engine.Init(ctx, img, lazyload.Options{
//	    Src:       "/photos/large.jpg",
//	    Threshold: 200,
//	    On: map[string]events.Handler{
//	        "load": func(ev events.Event) { log.Println("loaded", ev.Key) },
//	    },
//	})
//
// Activation is one-way: once a binding is marked activated it is never
// evaluated again.
package lazyload
