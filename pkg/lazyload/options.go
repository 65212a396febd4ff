package lazyload

import (
	"log/slog"
	"math"
	"time"

	"github.com/vango-dev/lazyload/pkg/events"
	"github.com/vango-dev/lazyload/pkg/trigger"
)

// TransparentGIF is the 1x1 transparent placeholder shown until activation.
const TransparentGIF = "data:image/gif;base64,R0lGODlhAQABAGAAACH5BAEKAP8ALAAAAAABAAEAAAgEAP8FBAA7"

// DefaultThrottle is the quiet period between a scroll/resize burst and the re-check.
const DefaultThrottle = trigger.DefaultDelay

// Options is the resolved binding configuration for one element.
type Options struct {
	// Src is written to the element's src attribute on activation.
	Src string

	// Srcset is written to the element's srcset attribute on activation.
	// When empty the attribute is left untouched.
	Srcset string

	// Threshold moves the fold down by this many pixels so the element
	// activates before it scrolls into view.
	Threshold float64

	// LoadingSrc is the placeholder shown until activation.
	LoadingSrc string

	// On maps event names to callbacks. Requires the element to have an id.
	On map[string]events.Handler
}

// threshold returns the threshold with NaN treated as unset.
func (o Options) threshold() float64 {
	if math.IsNaN(o.Threshold) {
		return 0
	}
	return o.Threshold
}

// Option configures an Engine.
type Option func(*Engine)

// WithThrottle sets the trigger quiet period.
func WithThrottle(d time.Duration) Option {
	return func(e *Engine) {
		e.throttle = d
	}
}

// WithScheduler sets the clock driving the trigger cell.
func WithScheduler(s trigger.Scheduler) Option {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMiddleware appends update middleware. The first one given is outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(e *Engine) {
		e.middleware = append(e.middleware, mw...)
	}
}

// WithErrorHandler sets the callback receiving errors from tick-driven
// updates, which have no caller to return to.
func WithErrorHandler(fn func(b *Binding, err error)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.onError = fn
		}
	}
}

// WithLoadingSrc sets the engine-wide placeholder used when a binding has none.
func WithLoadingSrc(src string) Option {
	return func(e *Engine) {
		e.loadingSrc = src
	}
}

// WithPolling controls whether pending bindings keep re-arming the trigger
// after each tick. Polling catches elements that become visible without a
// scroll or resize, such as modals. Enabled by default.
func WithPolling(enabled bool) Option {
	return func(e *Engine) {
		e.polling = enabled
	}
}
