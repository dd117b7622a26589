// Package supabase is a minimal client for the Supabase Auth (GoTrue) REST
// API. Only the operations the application needs are implemented.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// User is the provider's view of an account.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// FullName extracts the full_name entry from user metadata, if present.
func (u *User) FullName() *string {
	if u == nil || u.UserMetadata == nil {
		return nil
	}
	if v, ok := u.UserMetadata["full_name"].(string); ok && v != "" {
		return &v
	}
	return nil
}

// Session is an active provider session.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// SignUpResult is the outcome of a signup call. Session is nil when the
// provider requires email confirmation before issuing a session.
type SignUpResult struct {
	User    *User
	Session *Session
}

// ProviderError carries the provider's failure message and HTTP status.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("supabase: %s (status %d)", e.Message, e.Status)
}

// Client talks to the Supabase Auth endpoints under {baseURL}/auth/v1.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// do performs one request. token overrides the api key as bearer credential
// for user-scoped endpoints.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/auth/v1"+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &ProviderError{Status: 0, Message: err.Error()}
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return &ProviderError{Status: res.StatusCode, Message: err.Error()}
	}

	if res.StatusCode >= 400 {
		return &ProviderError{Status: res.StatusCode, Message: errorMessage(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &ProviderError{Status: res.StatusCode, Message: "malformed provider response"}
		}
	}
	return nil
}

// errorMessage extracts a human-readable message from a GoTrue error body.
// The API is inconsistent across versions, so try the known fields in order.
func errorMessage(data []byte) string {
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		for _, m := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
			if m != "" {
				return m
			}
		}
	}
	return "request rejected by identity provider"
}

// signupResponse covers both shapes GoTrue returns from /signup: a bare user
// when confirmation is pending, or a full session when auto-confirm is on.
type signupResponse struct {
	Session
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// SignUp registers the account with the provider. Metadata is stored as
// user_metadata on the provider side.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error) {
	payload := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		payload["data"] = metadata
	}
	var resp signupResponse
	if err := c.do(ctx, http.MethodPost, "/signup", "", payload, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken != "" {
		sess := resp.Session
		return &SignUpResult{User: sess.User, Session: &sess}, nil
	}
	// No session: confirmation pending, top-level object is the user.
	return &SignUpResult{User: &User{ID: resp.ID, Email: resp.Email, UserMetadata: resp.UserMetadata}}, nil
}

// SignInWithPassword performs the password grant.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]any{"email": email, "password": password}
	var sess Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", payload, &sess); err != nil {
		return nil, err
	}
	if sess.AccessToken == "" {
		return nil, &ProviderError{Status: http.StatusUnauthorized, Message: "no session returned"}
	}
	return &sess, nil
}

// VerifyOTP redeems a one-time code (signup confirmation, magic link, recovery).
func (c *Client) VerifyOTP(ctx context.Context, email, token, otpType string) (*Session, error) {
	payload := map[string]any{"email": email, "token": token, "type": otpType}
	var sess Session
	if err := c.do(ctx, http.MethodPost, "/verify", "", payload, &sess); err != nil {
		return nil, err
	}
	if sess.AccessToken == "" {
		return nil, &ProviderError{Status: http.StatusUnauthorized, Message: "no session returned"}
	}
	return &sess, nil
}

// Resend asks the provider to re-send a signup or email-change OTP.
func (c *Client) Resend(ctx context.Context, email, resendType string) error {
	return c.do(ctx, http.MethodPost, "/resend", "", map[string]any{"email": email, "type": resendType}, nil)
}

// ResetPasswordForEmail asks the provider to send a recovery email.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/recover", "", map[string]any{"email": email}, nil)
}

// UpdateUserPassword sets a new password using the recovery token from the
// reset email as the authorization context.
func (c *Client) UpdateUserPassword(ctx context.Context, accessToken, newPassword string) error {
	return c.do(ctx, http.MethodPut, "/user", accessToken, map[string]any{"password": newPassword}, nil)
}

// GetUser resolves the account a bearer token belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, &ProviderError{Status: http.StatusUnauthorized, Message: "no user for token"}
	}
	return &u, nil
}
