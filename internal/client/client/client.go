// Package client talks to the gophauth HTTP API. The session cookie set by
// login and verify-2fa is kept in a cookie jar and sent back on logout.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

type Client struct {
	base *url.URL
	http *http.Client
}

// LoginResult is either a finished login or a pending 2FA challenge.
type LoginResult struct {
	Requires2FA bool
	AttemptID   string
}

func New(serverURL string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q: scheme and host required", serverURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		base: base,
		http: &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

func (c *Client) Signup(ctx context.Context, email string, password []byte, requires2FA bool) error {
	_, err := c.post(ctx, "/signup", map[string]any{
		"email":       email,
		"password":    string(password),
		"requires2FA": requires2FA,
	}, nil)
	return err
}

func (c *Client) Login(ctx context.Context, email string, password []byte) (*LoginResult, error) {
	var body struct {
		LoginAttemptID string `json:"loginAttemptId"`
	}
	status, err := c.post(ctx, "/login", map[string]any{
		"email":    email,
		"password": string(password),
	}, &body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusPartialContent {
		return &LoginResult{Requires2FA: true, AttemptID: body.LoginAttemptID}, nil
	}
	return &LoginResult{}, nil
}

func (c *Client) Verify2FA(ctx context.Context, email, attemptID, code string) error {
	_, err := c.post(ctx, "/verify-2fa", map[string]any{
		"email":          email,
		"loginAttemptId": attemptID,
		"2FACode":        code,
	}, nil)
	return err
}

// Logout revokes the remembered session; the server clears the cookie.
func (c *Client) Logout(ctx context.Context) error {
	if c.Token() == "" {
		return ErrNotLoggedIn
	}
	_, err := c.post(ctx, "/logout", nil, nil)
	return err
}

// VerifyToken checks token, or the remembered session when token is empty.
func (c *Client) VerifyToken(ctx context.Context, token string) error {
	if token == "" {
		token = c.Token()
	}
	if token == "" {
		return ErrNotLoggedIn
	}
	_, err := c.post(ctx, "/verify-token", map[string]any{"token": token}, nil)
	return err
}

// Token returns the session token held in the cookie jar, if any.
func (c *Client) Token() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == common.AuthCookieName {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) post(ctx context.Context, path string, in any, out any) (int, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(path).String(), body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
