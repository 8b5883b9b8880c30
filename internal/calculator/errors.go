package calculator

import "errors"

var (
	// ErrInsufficientData is returned when a series is too short for an indicator or window.
	ErrInsufficientData = errors.New("insufficient history")
	// ErrMalformedBar is returned when a bar violates OHLC or ordering invariants.
	ErrMalformedBar = errors.New("malformed bar")
)
