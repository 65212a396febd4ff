// Package middleware provides observability middleware for lazyload engines.
//
// Middleware wraps the dispatch step of an update, so it only sees elements
// that passed the visibility and activation guard.
//
// # OpenTelemetry Middleware
//
// OpenTelemetry traces every dispatched update. Spans carry the element tag,
// id, threshold and the resulting outcome.
//
//	engine := lazyload.New(doc,
//	    lazyload.WithMiddleware(middleware.OpenTelemetry()),
//	)
//
// Configure with options:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("gallery"),
//	    middleware.WithFilter(func(b *lazyload.Binding) bool {
//	        return b.Options().Threshold > 0
//	    }),
//	)
//
// # Prometheus Metrics
//
// Prometheus counts updates, activations and errors, and times dispatch:
//   - lazyload_updates_total
//   - lazyload_activations_total
//   - lazyload_update_errors_total
//   - lazyload_update_duration_seconds
//
// The session server also reports lazyload_active_sessions,
// lazyload_patches_sent_total and lazyload_websocket_errors_total through the
// Record functions. Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
