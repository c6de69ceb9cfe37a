package backend

import "errors"

var (
	// ErrBackend is returned for transport or protocol failures.
	ErrBackend = errors.New("backend request failed")

	// ErrAuthFailed is returned when the auth service rejects credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotFound is returned when a queried record does not exist.
	ErrNotFound = errors.New("record not found")
)
