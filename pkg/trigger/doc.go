// Package trigger provides the throttled toggle cell that drives visibility
// re-checks.
//
// A Cell holds a single boolean. Toggle flips it and re-arms a quiet-period
// timer; when no further toggle arrives for the configured delay, every
// subscriber is notified once, in subscription order. A burst of scroll or
// resize events therefore collapses into a single tick.
//
// Only the fact that a tick happened is meaningful. Subscribers are notified
// even when an even number of toggles left the value unchanged.
//
//	cell := trigger.New(50 * time.Millisecond)
//	cell.Subscribe(func(bool) { recheck() })
//	window.On("scroll", cell.Toggle)
package trigger
