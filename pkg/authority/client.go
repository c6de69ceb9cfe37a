package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chargehq/chargewallet/pkg/logger"
)

// TokenFunc supplies the current session bearer token for authority calls.
type TokenFunc func() string

// Client talks to a real transfer authority over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenFunc
}

// NewClient creates an authority client with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration, token TokenFunc) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		token:   token,
	}
}

type fingerprintRequest struct {
	SenderID    string   `json:"sender_id"`
	RecipientID string   `json:"recipient_id"`
	Amount      string   `json:"amount"`
	Currency    Currency `json:"currency"`
}

type fingerprintResponse struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	Error       string      `json:"error,omitempty"`
}

// RequestFingerprint asks the authority for a fresh fingerprint binding the
// transfer to the sender. The result is never cached.
func (c *Client) RequestFingerprint(ctx context.Context, senderID string, req TransferRequest) (Fingerprint, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	body := fingerprintRequest{
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
	}

	var resp fingerprintResponse
	status, err := c.post(ctx, "/v1/transfers/fingerprint", body, &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFingerprintRequest, err)
	}
	if status != http.StatusOK {
		if resp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrFingerprintRequest, resp.Error)
		}
		return "", fmt.Errorf("%w: authority returned status %d", ErrFingerprintRequest, status)
	}
	if err := resp.Fingerprint.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFingerprintRequest, err)
	}

	return resp.Fingerprint, nil
}

type submitRequest struct {
	SenderID    string      `json:"sender_id"`
	Fingerprint Fingerprint `json:"fingerprint"`
	Signature   string      `json:"signature"`
	RecipientID string      `json:"recipient_id"`
	Amount      string      `json:"amount"`
	Currency    Currency    `json:"currency"`
}

// Submit delivers the signed payload. Transport failure and authority
// rejection both come back as Success=false with a message; only context
// cancellation surfaces as an error so the caller can discard the attempt.
func (c *Client) Submit(ctx context.Context, senderID string, sub Submission) (TransactionOutcome, error) {
	body := submitRequest{
		SenderID:    senderID,
		Fingerprint: sub.Fingerprint,
		Signature:   sub.Signature,
		RecipientID: sub.RecipientID,
		Amount:      sub.Amount.StringFixed(2),
		Currency:    sub.Currency,
	}

	var outcome TransactionOutcome
	status, err := c.post(ctx, "/v1/transfers/submit", body, &outcome)
	if err != nil {
		if ctx.Err() != nil {
			return TransactionOutcome{}, ctx.Err()
		}
		logger.WarnCF("authority", "Submit transport failure", map[string]any{
			"error": err.Error(),
		})
		return TransactionOutcome{
			Success: false,
			Error:   fmt.Sprintf("authority unreachable: %v", err),
		}, nil
	}
	if status != http.StatusOK && outcome.Error == "" {
		outcome.Success = false
		outcome.Error = fmt.Sprintf("authority rejected submission (status %d)", status)
	}

	return outcome, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if len(data) > 0 {
		// Tolerate non-JSON error bodies; status code carries the failure.
		_ = json.Unmarshal(data, out)
	}

	return resp.StatusCode, nil
}
