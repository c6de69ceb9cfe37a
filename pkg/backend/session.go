// Package backend is the client for the managed auth/data service that owns
// profiles, contacts, balances, and transaction records.
package backend

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

// Session is an authenticated user session. The UserID is the explicit
// sender identity threaded into authority calls.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Email        string
	ExpiresAt    time.Time
}

// Valid reports whether the session token is present and unexpired.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && time.Now().Before(s.ExpiresAt)
}

// AuthClient signs users up and in against the backend auth surface.
type AuthClient struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// NewAuthClient creates an auth client.
func NewAuthClient(baseURL, anonKey string, timeout time.Duration) *AuthClient {
	return &AuthClient{
		baseURL: baseURL,
		anonKey: anonKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

// SignUp registers a new user and returns the resulting session.
func (c *AuthClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "/auth/v1/signup", credentialsBody{Email: email, Password: password})
}

// SignIn authenticates with email and password.
func (c *AuthClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "/auth/v1/token?grant_type=password", credentialsBody{Email: email, Password: password})
}

// RefreshSession exchanges a refresh token for a fresh session.
func (c *AuthClient) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	return c.token(ctx, "/auth/v1/token?grant_type=refresh_token", refreshBody{RefreshToken: refreshToken})
}

func (c *AuthClient) token(ctx context.Context, path string, body any) (*Session, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	var tok tokenResponse
	if len(data) > 0 {
		_ = json.Unmarshal(data, &tok)
	}

	if resp.StatusCode != http.StatusOK {
		msg := tok.ErrorDescription
		if msg == "" {
			msg = tok.Msg
		}
		if msg == "" {
			msg = fmt.Sprintf("auth service returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", ErrAuthFailed, msg)
	}
	if tok.AccessToken == "" || tok.User.ID == "" {
		return nil, fmt.Errorf("%w: no session returned", ErrAuthFailed)
	}

	logger.InfoCF("backend", "Session established", map[string]any{
		"user_id": tok.User.ID,
	})

	return &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		UserID:       tok.User.ID,
		Email:        tok.User.Email,
		ExpiresAt:    time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}, nil
}
