// Package authority defines the transfer authority contract: the external
// service that issues transaction fingerprints and accepts signed submissions.
package authority

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is a supported asset symbol.
type Currency string

const (
	CurrencyZARP Currency = "ZARP" // South African Rand stablecoin
	CurrencyUSDC Currency = "USDC" // US Dollar stablecoin
)

// Valid reports whether the currency is one of the supported assets.
func (c Currency) Valid() bool {
	return c == CurrencyZARP || c == CurrencyUSDC
}

// Symbol returns the display symbol for amounts in this currency.
func (c Currency) Symbol() string {
	if c == CurrencyZARP {
		return "R"
	}
	return "$"
}

// TransferRequest describes a proposed transfer. It is built when the user
// confirms intent to send and consumed immediately; it is never persisted.
type TransferRequest struct {
	RecipientID string          `json:"recipient_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    Currency        `json:"currency"`
}

// Validate rejects a request before any fingerprint is ever issued for it.
// Amounts must be positive with at most 2 decimal places.
func (r TransferRequest) Validate() error {
	if r.RecipientID == "" {
		return ErrMissingRecipient
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if r.Amount.Exponent() < -2 {
		return ErrInvalidAmount
	}
	if !r.Currency.Valid() {
		return ErrUnknownCurrency
	}
	return nil
}

// Fingerprint is a server-issued 32-byte hash binding a proposed transfer to
// the sender. It is valid for a single attempt and never reused.
type Fingerprint string

// Validate checks the fingerprint is a 0x-prefixed 32-byte hex value.
func (f Fingerprint) Validate() error {
	s := string(f)
	if !strings.HasPrefix(s, "0x") || len(s) != 66 {
		return ErrBadFingerprint
	}
	if _, err := hex.DecodeString(s[2:]); err != nil {
		return ErrBadFingerprint
	}
	return nil
}

// Bytes returns the raw fingerprint bytes.
func (f Fingerprint) Bytes() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return hex.DecodeString(string(f)[2:])
}

// Submission is the signed payload delivered to the authority.
type Submission struct {
	Fingerprint Fingerprint     `json:"fingerprint"`
	Signature   string          `json:"signature"`
	RecipientID string          `json:"recipient_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    Currency        `json:"currency"`
}

// TransactionOutcome is the authority's terminal answer for one submission.
// Transport failure and authority-side rejection both surface as
// Success=false with a human-readable Error.
type TransactionOutcome struct {
	Success bool   `json:"success"`
	TxHash  string `json:"tx_hash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Authority is the boundary contract consumed by the send flow. The mock and
// the HTTP client are interchangeable behind it.
type Authority interface {
	// RequestFingerprint obtains a fresh fingerprint for the transfer.
	// Callers must never cache or reuse a fingerprint across attempts.
	RequestFingerprint(ctx context.Context, senderID string, req TransferRequest) (Fingerprint, error)

	// Submit delivers the signed payload. Exactly one submission per
	// confirmed attempt; retries restart from RequestFingerprint.
	Submit(ctx context.Context, senderID string, sub Submission) (TransactionOutcome, error)
}
