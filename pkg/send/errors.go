package send

import "errors"

var (
	// ErrAttemptInFlight is returned when Confirm is called while a send
	// is already signing or submitting.
	ErrAttemptInFlight = errors.New("send attempt already in progress")

	// ErrNotIdle is returned when Confirm is called from a terminal state
	// without an explicit Reset.
	ErrNotIdle = errors.New("flow must be reset before a new attempt")
)
