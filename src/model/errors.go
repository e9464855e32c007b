package model

import "errors"

var (
	// ErrMaxAttemptsOutOfRange is returned when a config update asks for a
	// max_attempts outside the allowed 1..5 window.
	ErrMaxAttemptsOutOfRange = errors.New("max_attempts must be between 1 and 5")

	// ErrNegativeDelay is returned when a config update carries a negative
	// per-type delay.
	ErrNegativeDelay = errors.New("delay minutes must not be negative")
)
