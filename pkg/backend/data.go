package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Profile is a registered user's public record.
type Profile struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	PublicKey   string `json:"public_key"`
	Registered  bool   `json:"hault_registered"`
}

// Name returns the display name for the profile.
func (p Profile) Name() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Contact is an entry in a user's contact list.
type Contact struct {
	ID            string `json:"id"`
	OwnerID       string `json:"user_id"`
	ContactUserID string `json:"contact_user_id"`
	Name          string `json:"contact_name"`
	Phone         string `json:"contact_phone,omitempty"`
}

// Transaction is a transfer record as stored by the backend.
type Transaction struct {
	ID          string          `json:"id"`
	SenderID    string          `json:"sender_id"`
	ReceiverID  string          `json:"receiver_id"`
	Amount      decimal.Decimal `json:"amount"`
	AssetSymbol string          `json:"asset_symbol"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	Note        string          `json:"error_message,omitempty"`
}

// Balance holds the cached per-currency balances for display.
type Balance struct {
	ZAR decimal.Decimal `json:"zar_balance"`
	USD decimal.Decimal `json:"usd_balance"`
}

// SessionSource supplies the current session for request authorization.
type SessionSource func() *Session

// DataClient queries and mutates backend records over its REST surface.
type DataClient struct {
	baseURL string
	anonKey string
	http    *http.Client
	session SessionSource
}

// NewDataClient creates a data client. The session source may return nil
// before sign-in; requests then carry only the anon key.
func NewDataClient(baseURL, anonKey string, timeout time.Duration, session SessionSource) *DataClient {
	return &DataClient{
		baseURL: baseURL,
		anonKey: anonKey,
		http:    &http.Client{Timeout: timeout},
		session: session,
	}
}

// Profile fetches a user's profile by id.
func (c *DataClient) Profile(ctx context.Context, userID string) (*Profile, error) {
	q := url.Values{}
	q.Set("id", "eq."+userID)
	q.Set("select", "*")

	var rows []Profile
	if err := c.do(ctx, http.MethodGet, "/rest/v1/profiles", q, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: profile %s", ErrNotFound, userID)
	}
	return &rows[0], nil
}

// LookupByPhone resolves a counterparty profile by phone number.
func (c *DataClient) LookupByPhone(ctx context.Context, phone string) (*Profile, error) {
	q := url.Values{}
	q.Set("phone_number", "eq."+phone)
	q.Set("select", "id,first_name,last_name,phone_number,public_key")

	var rows []Profile
	if err := c.do(ctx, http.MethodGet, "/rest/v1/profiles", q, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no user with phone %s", ErrNotFound, phone)
	}
	return &rows[0], nil
}

// Contacts lists a user's contacts.
func (c *DataClient) Contacts(ctx context.Context, userID string) ([]Contact, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)

	var rows []Contact
	if err := c.do(ctx, http.MethodGet, "/rest/v1/contacts", q, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AddContact inserts a contact for the owner.
func (c *DataClient) AddContact(ctx context.Context, contact Contact) (*Contact, error) {
	var rows []Contact
	if err := c.do(ctx, http.MethodPost, "/rest/v1/contacts", nil, []Contact{contact}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &contact, nil
	}
	return &rows[0], nil
}

// DeleteContact removes a contact by id.
func (c *DataClient) DeleteContact(ctx context.Context, contactID string) error {
	q := url.Values{}
	q.Set("id", "eq."+contactID)
	return c.do(ctx, http.MethodDelete, "/rest/v1/contacts", q, nil, nil)
}

// Transactions lists the most recent transfers the user sent or received.
func (c *DataClient) Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	q := url.Values{}
	q.Set("or", fmt.Sprintf("(sender_id.eq.%s,receiver_id.eq.%s)", userID, userID))
	q.Set("order", "created_at.desc")
	q.Set("limit", fmt.Sprintf("%d", limit))

	var rows []Transaction
	if err := c.do(ctx, http.MethodGet, "/rest/v1/transactions", q, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Balance fetches the user's cached balances. An absent row is a zero
// balance, not an error.
func (c *DataClient) Balance(ctx context.Context, userID string) (Balance, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)

	var rows []Balance
	if err := c.do(ctx, http.MethodGet, "/rest/v1/balances", q, nil, &rows); err != nil {
		return Balance{}, err
	}
	if len(rows) == 0 {
		return Balance{}, nil
	}
	return rows[0], nil
}

func (c *DataClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if body != nil {
		req.Header.Set("Prefer", "return=representation")
	}
	if c.session != nil {
		if s := c.session(); s.Valid() {
			req.Header.Set("Authorization", "Bearer "+s.AccessToken)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrBackend, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}
	return nil
}
