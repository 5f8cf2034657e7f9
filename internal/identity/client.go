package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/config"
)

// maxResponseBody caps how much of a response body is read (1 MB).
const maxResponseBody = 1 << 20

// Client talks to the identity service.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates an identity client from configuration.
func New(cfg config.IdentityConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Login authenticates with the given credentials.
//
// The push identifier inside creds is optional; the backend stores it
// against the account when present.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", creds, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new account.
//
// Locale-formatted birthdates (DD-MM-YYYY) are normalised to ISO form
// (YYYY-MM-DD) before submission. The raw service response is returned;
// registration does not create a session.
func (c *Client) Register(ctx context.Context, reg Registration) (*RegisterResult, error) {
	normalised, err := NormaliseBirthdate(reg.Birthdate)
	if err != nil {
		return nil, err
	}
	reg.Birthdate = normalised

	var result RegisterResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", reg, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout invalidates the session server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoToken
	}
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// FetchProfile retrieves the profile belonging to the token.
//
// A 401, 403, or 404 response means the session is no longer valid;
// callers detect this with AuthInvalid(err).
func (c *Client) FetchProfile(ctx context.Context, token string) (*UserProfile, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var profile UserProfile
	if err := c.do(ctx, http.MethodGet, "/users/me", token, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// DeletePushIdentifier unbinds a push identifier from the account.
func (c *Client) DeletePushIdentifier(ctx context.Context, token, identifier string) error {
	if token == "" {
		return ErrNoToken
	}
	path := "/users/me/push-identifiers/" + url.PathEscape(identifier)
	return c.do(ctx, http.MethodDelete, path, token, nil, nil)
}

// RefreshPushIdentifier re-registers the current push identifier against
// the profile. Covers identifier rotation between sessions.
func (c *Client) RefreshPushIdentifier(ctx context.Context, token, identifier string) error {
	if token == "" {
		return ErrNoToken
	}
	body := map[string]string{"push_identifier": identifier}
	return c.do(ctx, http.MethodPut, "/users/me/push-identifiers", token, body, nil)
}

// do performs one request/response round trip.
//
// Non-2xx statuses become *StatusError. Transport failures are returned
// wrapped but without a status, so AuthInvalid() reports them transient.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Status:  resp.StatusCode,
			Message: errorMessage(data),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// errorMessage extracts the message field from an error body, if any.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Message
}

// NormaliseBirthdate converts DD-MM-YYYY to YYYY-MM-DD.
//
// Already-ISO input is passed through unchanged; empty input stays empty.
func NormaliseBirthdate(date string) (string, error) {
	if date == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", date); err == nil {
		return date, nil
	}
	parsed, err := time.Parse("02-01-2006", date)
	if err != nil {
		return "", fmt.Errorf("identity: invalid birthdate %q (want DD-MM-YYYY): %w", date, err)
	}
	return parsed.Format("2006-01-02"), nil
}
