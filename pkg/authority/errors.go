package authority

import "errors"

var (
	// ErrMissingRecipient is returned when a transfer has no recipient.
	ErrMissingRecipient = errors.New("recipient is required")

	// ErrInvalidAmount is returned for zero, negative, or sub-cent amounts.
	ErrInvalidAmount = errors.New("amount must be positive with at most 2 decimal places")

	// ErrUnknownCurrency is returned for unsupported asset symbols.
	ErrUnknownCurrency = errors.New("unsupported currency")

	// ErrBadFingerprint is returned when the authority hands back a
	// malformed fingerprint.
	ErrBadFingerprint = errors.New("malformed transaction fingerprint")

	// ErrFingerprintRequest is returned when a fingerprint could not be
	// obtained. The attempt must not proceed to signing.
	ErrFingerprintRequest = errors.New("fingerprint request failed")

	// ErrUnknownAccount is returned by the mock authority for senders or
	// recipients it has no account for.
	ErrUnknownAccount = errors.New("unknown account")
)
