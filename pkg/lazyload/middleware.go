package lazyload

import "context"

// Outcome is the result of one update.
type Outcome int

const (
	// OutcomeSkipped means the guard rejected the element: hidden,
	// visibility:hidden or already activated.
	OutcomeSkipped Outcome = iota

	// OutcomePending means the handler ran but did not activate the element.
	OutcomePending

	// OutcomeActivated means the element was activated by this update.
	OutcomeActivated

	// OutcomeFailed means dispatch returned an error.
	OutcomeFailed
)

// String returns the outcome name used in logs and metric labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomePending:
		return "pending"
	case OutcomeActivated:
		return "activated"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UpdateFunc dispatches an eligible binding to its handler.
type UpdateFunc func(ctx context.Context, b *Binding) (Outcome, error)

// Middleware wraps handler dispatch. It only sees bindings that passed the
// visibility and activation guard.
type Middleware func(next UpdateFunc) UpdateFunc

// Chain composes middleware so that the first is outermost.
func Chain(final UpdateFunc, mw ...Middleware) UpdateFunc {
	h := final
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
