package authority

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testRequest() TransferRequest {
	return TransferRequest{
		RecipientID: "u2",
		Amount:      decimal.RequireFromString("50.00"),
		Currency:    CurrencyZARP,
	}
}

const testFP = "0xabcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"

func TestRequestFingerprint(t *testing.T) {
	var got fingerprintRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/transfers/fingerprint" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer session-token" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(fingerprintResponse{Fingerprint: testFP})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, func() string { return "session-token" })
	fp, err := client.RequestFingerprint(context.Background(), "u1", testRequest())
	if err != nil {
		t.Fatalf("request fingerprint: %v", err)
	}
	if fp != testFP {
		t.Errorf("fingerprint = %s", fp)
	}
	if got.SenderID != "u1" || got.RecipientID != "u2" || got.Amount != "50.00" || got.Currency != CurrencyZARP {
		t.Errorf("wire request = %+v", got)
	}
}

func TestRequestFingerprintServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	_, err := client.RequestFingerprint(context.Background(), "u1", testRequest())
	if !errors.Is(err, ErrFingerprintRequest) {
		t.Fatalf("err = %v, want ErrFingerprintRequest", err)
	}
}

func TestRequestFingerprintRejectsInvalidRequestLocally(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	req := testRequest()
	req.Amount = decimal.Zero
	if _, err := client.RequestFingerprint(context.Background(), "u1", req); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if called {
		t.Error("invalid request reached the authority")
	}
}

func TestSubmitSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/transfers/submit" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(TransactionOutcome{Success: true, TxHash: "0xabc123"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	outcome, err := client.Submit(context.Background(), "u1", Submission{
		Fingerprint: testFP,
		Signature:   "0xsig",
		RecipientID: "u2",
		Amount:      decimal.RequireFromString("50.00"),
		Currency:    CurrencyZARP,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !outcome.Success || outcome.TxHash != "0xabc123" {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestSubmitRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(TransactionOutcome{Success: false, Error: "Insufficient funds"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	outcome, err := client.Submit(context.Background(), "u1", Submission{Fingerprint: testFP})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Success {
		t.Error("rejected submission reported success")
	}
	if outcome.Error != "Insufficient funds" {
		t.Errorf("error = %q", outcome.Error)
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, time.Second, nil)
	outcome, err := client.Submit(context.Background(), "u1", Submission{Fingerprint: testFP})
	if err != nil {
		t.Fatalf("transport failure should be an outcome, got err %v", err)
	}
	if outcome.Success {
		t.Error("unreachable authority reported success")
	}
	if !strings.HasPrefix(outcome.Error, "authority unreachable:") {
		t.Errorf("error = %q, want authority unreachable prefix", outcome.Error)
	}
}

func TestSubmitCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL, time.Second, nil)
	_, err := client.Submit(ctx, "u1", Submission{Fingerprint: testFP})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
