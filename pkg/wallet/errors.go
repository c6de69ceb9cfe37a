package wallet

import "errors"

var (
	// ErrCredentialMissing is returned when no keypair has been provisioned.
	// Distinct from store failures: absence is a normal pre-registration state.
	ErrCredentialMissing = errors.New("no wallet keypair provisioned")

	// ErrCredentialStore is returned when the credential store itself fails.
	ErrCredentialStore = errors.New("credential store operation failed")

	// ErrKeypairExists is returned when trying to provision over an
	// existing keypair.
	ErrKeypairExists = errors.New("wallet keypair already exists")

	// ErrSigningFailed is returned when signing cannot be performed.
	// A signature is never produced over a substitute key.
	ErrSigningFailed = errors.New("fingerprint signing failed")
)
