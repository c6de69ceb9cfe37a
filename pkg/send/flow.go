// Package send drives a single money-send attempt through the confirmation
// states: idle -> signing -> submitting -> success | error.
package send

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chargehq/chargewallet/pkg/authority"
	"github.com/chargehq/chargewallet/pkg/logger"
	"github.com/chargehq/chargewallet/pkg/wallet"
)

// Status is the confirmation flow state visible to the UI.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSigning    Status = "signing"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Result is exposed in the success state for display.
type Result struct {
	TxHash      string
	RecipientID string
	Amount      string
	Currency    authority.Currency
}

// Flow sequences fingerprint request, signing, and submission for one
// attempt at a time. Data flows one direction per attempt; a retry restarts
// from the fingerprint request, never from resubmission.
type Flow struct {
	wallet    *wallet.Service
	authority authority.Authority

	mu     sync.Mutex
	status Status
	result *Result
	errMsg string
	notify func(Status)
}

// NewFlow creates an idle confirmation flow.
func NewFlow(w *wallet.Service, a authority.Authority) *Flow {
	return &Flow{wallet: w, authority: a, status: StatusIdle}
}

// SetNotify registers a callback invoked on every state transition.
func (f *Flow) SetNotify(fn func(Status)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notify = fn
}

// Status returns the current state.
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Result returns the success result, or nil outside the success state.
func (f *Flow) Result() *Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// ErrorMessage returns the user-facing message for the error state.
func (f *Flow) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// Reset returns the flow to idle. It is the retry edge after an error and
// the navigate-away edge from any terminal state. The next Confirm issues a
// brand-new fingerprint.
func (f *Flow) Reset() {
	f.transition(StatusIdle, nil, "")
}

// Confirm runs one full attempt. It only starts from idle: a confirm while
// signing or submitting is rejected, and terminal states need an explicit
// Reset first.
//
// Every step-level failure is converted into the error state with a
// user-facing message; the returned error mirrors it for the caller. If ctx
// is canceled mid-attempt the in-flight result is discarded and the flow
// returns to idle.
func (f *Flow) Confirm(ctx context.Context, senderID string, req authority.TransferRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	switch f.status {
	case StatusSigning, StatusSubmitting:
		f.mu.Unlock()
		return nil, ErrAttemptInFlight
	case StatusSuccess, StatusError:
		f.mu.Unlock()
		return nil, ErrNotIdle
	}
	f.mu.Unlock()

	f.transition(StatusSigning, nil, "")
	logger.InfoCF("send", "Attempt started", map[string]any{
		"recipient": req.RecipientID,
		"amount":    req.Amount.StringFixed(2),
		"currency":  req.Currency,
	})

	// Credential check happens before any network call.
	kp, err := f.wallet.Load()
	if err != nil {
		if errors.Is(err, wallet.ErrCredentialMissing) {
			return f.fail("No wallet keypair found. Please complete registration.", err)
		}
		return f.fail("Wallet credential unavailable.", err)
	}

	fp, err := f.authority.RequestFingerprint(ctx, senderID, req)
	if err != nil {
		if ctx.Err() != nil {
			return f.discard(ctx)
		}
		return f.fail("Could not prepare the transaction. Please try again.", fmt.Errorf("%w: %v", authority.ErrFingerprintRequest, err))
	}

	sig, err := wallet.SignFingerprint(string(fp), kp.PrivateKey)
	if err != nil {
		return f.fail("Could not sign the transaction.", err)
	}

	if ctx.Err() != nil {
		return f.discard(ctx)
	}
	f.transition(StatusSubmitting, nil, "")

	outcome, err := f.authority.Submit(ctx, senderID, authority.Submission{
		Fingerprint: fp,
		Signature:   sig,
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
		Currency:    req.Currency,
	})
	if err != nil {
		if ctx.Err() != nil {
			return f.discard(ctx)
		}
		return f.fail("Transaction failed. Please try again.", err)
	}
	if !outcome.Success {
		msg := outcome.Error
		if msg == "" {
			msg = "Transaction failed. Please try again."
		}
		return f.fail(msg, fmt.Errorf("submission rejected: %s", msg))
	}

	result := &Result{
		TxHash:      outcome.TxHash,
		RecipientID: req.RecipientID,
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
	}
	f.transition(StatusSuccess, result, "")
	logger.InfoCF("send", "Attempt succeeded", map[string]any{
		"recipient": req.RecipientID,
		"tx_hash":   outcome.TxHash,
	})
	return result, nil
}

func (f *Flow) fail(userMsg string, err error) (*Result, error) {
	f.transition(StatusError, nil, userMsg)
	logger.WarnCF("send", "Attempt failed", map[string]any{
		"error": err.Error(),
	})
	return nil, err
}

// discard drops a canceled attempt's outcome instead of applying it to a
// torn-down view.
func (f *Flow) discard(ctx context.Context) (*Result, error) {
	f.transition(StatusIdle, nil, "")
	logger.InfoC("send", "Attempt canceled, result discarded")
	return nil, ctx.Err()
}

func (f *Flow) transition(to Status, result *Result, errMsg string) {
	f.mu.Lock()
	f.status = to
	f.result = result
	f.errMsg = errMsg
	fn := f.notify
	f.mu.Unlock()

	if fn != nil {
		fn(to)
	}
}
