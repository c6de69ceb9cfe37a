package send

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chargehq/chargewallet/pkg/authority"
	"github.com/chargehq/chargewallet/pkg/wallet"
)

// fakeAuthority records calls and returns scripted results.
type fakeAuthority struct {
	mu           sync.Mutex
	fingerprints []authority.Fingerprint
	submissions  []authority.Submission
	fpErr        error
	outcome      authority.TransactionOutcome
	submitBlock  chan struct{} // if set, Submit waits on it
	counter      int
}

func (a *fakeAuthority) RequestFingerprint(ctx context.Context, senderID string, req authority.TransferRequest) (authority.Fingerprint, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fpErr != nil {
		return "", a.fpErr
	}
	a.counter++
	fp := authority.Fingerprint(fmt.Sprintf("0x%064x", a.counter))
	a.fingerprints = append(a.fingerprints, fp)
	return fp, nil
}

func (a *fakeAuthority) Submit(ctx context.Context, senderID string, sub authority.Submission) (authority.TransactionOutcome, error) {
	if a.submitBlock != nil {
		select {
		case <-a.submitBlock:
		case <-ctx.Done():
			return authority.TransactionOutcome{}, ctx.Err()
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.submissions = append(a.submissions, sub)
	return a.outcome, nil
}

func provisionedWallet(t *testing.T) (*wallet.Service, *wallet.Keypair) {
	t.Helper()
	store, err := wallet.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	svc := wallet.NewService(store)
	kp, err := svc.Provision()
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	return svc, kp
}

func emptyWallet(t *testing.T) *wallet.Service {
	t.Helper()
	store, err := wallet.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	return wallet.NewService(store)
}

func zarp(t *testing.T, amount string) authority.TransferRequest {
	t.Helper()
	return authority.TransferRequest{
		RecipientID: "u2",
		Amount:      decimal.RequireFromString(amount),
		Currency:    authority.CurrencyZARP,
	}
}

func TestConfirmSuccessPath(t *testing.T) {
	ws, kp := provisionedWallet(t)
	auth := &fakeAuthority{outcome: authority.TransactionOutcome{Success: true, TxHash: "0xabc"}}
	flow := NewFlow(ws, auth)

	var seen []Status
	flow.SetNotify(func(s Status) { seen = append(seen, s) })

	result, err := flow.Confirm(context.Background(), "u1", zarp(t, "50.00"))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if flow.Status() != StatusSuccess {
		t.Errorf("status = %s, want success", flow.Status())
	}
	if result.TxHash != "0xabc" || result.Amount != "50.00" || result.RecipientID != "u2" {
		t.Errorf("result = %+v", result)
	}

	// No state skips an intermediate step.
	want := []Status{StatusSigning, StatusSubmitting, StatusSuccess}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", seen, want)
		}
	}

	// Exactly one fingerprint, one submission, over the same values.
	if len(auth.fingerprints) != 1 || len(auth.submissions) != 1 {
		t.Fatalf("fingerprints = %d, submissions = %d", len(auth.fingerprints), len(auth.submissions))
	}
	sub := auth.submissions[0]
	if sub.Fingerprint != auth.fingerprints[0] {
		t.Error("submitted fingerprint differs from the issued one")
	}
	if !wallet.VerifyFingerprint(string(sub.Fingerprint), sub.Signature, kp.Address) {
		t.Error("submission signature does not verify against the keypair")
	}
}

func TestConfirmSubmissionRejected(t *testing.T) {
	ws, _ := provisionedWallet(t)
	auth := &fakeAuthority{outcome: authority.TransactionOutcome{Success: false, Error: "Insufficient funds"}}
	flow := NewFlow(ws, auth)

	_, err := flow.Confirm(context.Background(), "u1", zarp(t, "50.00"))
	if err == nil {
		t.Fatal("rejected submission returned no error")
	}
	if flow.Status() != StatusError {
		t.Errorf("status = %s, want error", flow.Status())
	}
	if flow.ErrorMessage() != "Insufficient funds" {
		t.Errorf("error message = %q", flow.ErrorMessage())
	}
}

func TestRetryIssuesFreshFingerprint(t *testing.T) {
	ws, _ := provisionedWallet(t)
	auth := &fakeAuthority{outcome: authority.TransactionOutcome{Success: false, Error: "Insufficient funds"}}
	flow := NewFlow(ws, auth)

	flow.Confirm(context.Background(), "u1", zarp(t, "50.00"))
	if flow.Status() != StatusError {
		t.Fatalf("status = %s", flow.Status())
	}

	// Retry restarts the whole sequence from the fingerprint request.
	flow.Reset()
	if flow.Status() != StatusIdle {
		t.Fatalf("status after reset = %s", flow.Status())
	}
	flow.Confirm(context.Background(), "u1", zarp(t, "50.00"))

	if len(auth.fingerprints) != 2 {
		t.Fatalf("fingerprint requests = %d, want 2", len(auth.fingerprints))
	}
	if auth.fingerprints[0] == auth.fingerprints[1] {
		t.Error("retry reused the previous fingerprint")
	}
	if len(auth.submissions) != 2 || auth.submissions[1].Fingerprint != auth.fingerprints[1] {
		t.Error("retry did not submit the fresh fingerprint")
	}
}

func TestConfirmWithoutKeypair(t *testing.T) {
	auth := &fakeAuthority{}
	flow := NewFlow(emptyWallet(t), auth)

	_, err := flow.Confirm(context.Background(), "u1", zarp(t, "50.00"))
	if !errors.Is(err, wallet.ErrCredentialMissing) {
		t.Fatalf("err = %v, want ErrCredentialMissing", err)
	}
	if flow.Status() != StatusError {
		t.Errorf("status = %s, want error", flow.Status())
	}
	if len(auth.fingerprints) != 0 || len(auth.submissions) != 0 {
		t.Error("network call made without a keypair")
	}
}

func TestConfirmRejectsInvalidAmountBeforeAnyCall(t *testing.T) {
	ws, _ := provisionedWallet(t)
	auth := &fakeAuthority{}
	flow := NewFlow(ws, auth)

	for _, amount := range []string{"0", "-5.00"} {
		if _, err := flow.Confirm(context.Background(), "u1", zarp(t, amount)); !errors.Is(err, authority.ErrInvalidAmount) {
			t.Errorf("amount %s: err = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if flow.Status() != StatusIdle {
		t.Errorf("status = %s, want idle (validation precedes the attempt)", flow.Status())
	}
	if len(auth.fingerprints) != 0 {
		t.Error("fingerprint requested for invalid amount")
	}
}

func TestConfirmWhileInFlight(t *testing.T) {
	ws, _ := provisionedWallet(t)
	block := make(chan struct{})
	auth := &fakeAuthority{
		outcome:     authority.TransactionOutcome{Success: true, TxHash: "0x1"},
		submitBlock: block,
	}
	flow := NewFlow(ws, auth)

	done := make(chan struct{})
	go func() {
		defer close(done)
		flow.Confirm(context.Background(), "u1", zarp(t, "50.00"))
	}()

	// Wait for the first attempt to reach submitting.
	for flow.Status() != StatusSubmitting {
		time.Sleep(time.Millisecond)
	}

	if _, err := flow.Confirm(context.Background(), "u1", zarp(t, "10.00")); !errors.Is(err, ErrAttemptInFlight) {
		t.Fatalf("err = %v, want ErrAttemptInFlight", err)
	}

	close(block)
	<-done
	if flow.Status() != StatusSuccess {
		t.Errorf("status = %s, want success", flow.Status())
	}
}

func TestConfirmFromTerminalStateNeedsReset(t *testing.T) {
	ws, _ := provisionedWallet(t)
	auth := &fakeAuthority{outcome: authority.TransactionOutcome{Success: true, TxHash: "0x1"}}
	flow := NewFlow(ws, auth)

	if _, err := flow.Confirm(context.Background(), "u1", zarp(t, "50.00")); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := flow.Confirm(context.Background(), "u1", zarp(t, "50.00")); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("err = %v, want ErrNotIdle", err)
	}

	flow.Reset()
	if _, err := flow.Confirm(context.Background(), "u1", zarp(t, "50.00")); err != nil {
		t.Fatalf("confirm after reset: %v", err)
	}
}

func TestCancelDiscardsAttempt(t *testing.T) {
	ws, _ := provisionedWallet(t)
	auth := &fakeAuthority{
		outcome:     authority.TransactionOutcome{Success: true, TxHash: "0x1"},
		submitBlock: make(chan struct{}), // never released
	}
	flow := NewFlow(ws, auth)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := flow.Confirm(ctx, "u1", zarp(t, "50.00"))
		done <- err
	}()

	for flow.Status() != StatusSubmitting {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if flow.Status() != StatusIdle {
		t.Errorf("status = %s, want idle after discard", flow.Status())
	}
	if flow.Result() != nil {
		t.Error("discarded attempt left a result")
	}
}

func TestFingerprintFailureStopsBeforeSigning(t *testing.T) {
	ws, _ := provisionedWallet(t)
	auth := &fakeAuthority{fpErr: errors.New("service unavailable")}
	flow := NewFlow(ws, auth)

	_, err := flow.Confirm(context.Background(), "u1", zarp(t, "50.00"))
	if !errors.Is(err, authority.ErrFingerprintRequest) {
		t.Fatalf("err = %v, want ErrFingerprintRequest", err)
	}
	if flow.Status() != StatusError {
		t.Errorf("status = %s, want error", flow.Status())
	}
	if len(auth.submissions) != 0 {
		t.Error("submission made without a fingerprint")
	}
}
