package lazyload

import (
	lzerrors "github.com/vango-dev/lazyload/internal/errors"
)

// Sentinel errors, matched by code with errors.Is.
var (
	ErrNoHandler    = lzerrors.New("E001")
	ErrAlreadyBound = lzerrors.New("E005")
	ErrClosed       = lzerrors.New("E006")
)

func noHandlerError(tag, id string) error {
	return lzerrors.New("E001").
		WithMessage("No lazy handler defined for %q", tag).
		WithElement(tag, id)
}
