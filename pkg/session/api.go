package session

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

// AuthAPI abstracts the identity server's authentication endpoints so the
// Manager can be exercised in tests without a network. HTTPAuthAPI is the
// production implementation.
type AuthAPI interface {
	// ExchangeCredentials trades login credentials for a fresh token pair.
	// Rejected credentials return ErrAuthenticationFailed with the server's
	// detail message wrapped in.
	ExchangeCredentials(ctx context.Context, req LoginRequest) (Credentials, error)

	// RefreshAccessToken mints a new access token from a refresh token.
	// A rejected refresh token returns ErrUnauthorized.
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)

	// FetchProfile retrieves the identity record authorized by accessToken.
	// A rejected token returns ErrUnauthorized.
	FetchProfile(ctx context.Context, accessToken string) (*UserProfile, error)
}

// HTTPAuthAPI speaks the identity server's wire contract:
//
//	POST {base}/auth/token/          {identifier, secret} → {access, refresh}
//	POST {base}/auth/token/refresh/  {refresh}            → {access}
//	GET  {base}/auth/me/             (Bearer)             → profile
type HTTPAuthAPI struct {
	baseURL string
	client  *http.Client
}

// HTTPAuthAPIOption is a functional option for HTTPAuthAPI
type HTTPAuthAPIOption func(*HTTPAuthAPI)

// WithHTTPClient sets a custom HTTP client, e.g. for proxies or testing.
// Nil clients are ignored.
func WithHTTPClient(client *http.Client) HTTPAuthAPIOption {
	return func(a *HTTPAuthAPI) {
		if client != nil {
			a.client = client
		}
	}
}

// NewHTTPAuthAPI creates a client for the identity server at baseURL.
// The default HTTP client uses pooled connections and a 15s per-request
// timeout; auth exchanges are small and should fail fast.
func NewHTTPAuthAPI(baseURL string, opts ...HTTPAuthAPIOption) *HTTPAuthAPI {
	a := &HTTPAuthAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// errorDetail is the error envelope the identity server uses
type errorDetail struct {
	Detail string `json:"detail"`
}

// ExchangeCredentials implements AuthAPI
func (a *HTTPAuthAPI) ExchangeCredentials(ctx context.Context, req LoginRequest) (Credentials, error) {
	var creds Credentials
	resp, body, err := a.postJSON(ctx, "/auth/token/", req)
	if err != nil {
		return creds, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.Unmarshal(body, &creds); err != nil {
			return Credentials{}, fmt.Errorf("%w: decoding token response: %w", ErrUnexpectedStatus, err)
		}
		if creds.AccessToken == "" || creds.RefreshToken == "" {
			return Credentials{}, fmt.Errorf("%w: token response missing credentials", ErrUnexpectedStatus)
		}
		return creds, nil
	case http.StatusBadRequest, http.StatusUnauthorized:
		return Credentials{}, fmt.Errorf("%w: %s", ErrAuthenticationFailed, detailMessage(body, "login failed"))
	default:
		return Credentials{}, fmt.Errorf("%w: %d from /auth/token/", ErrUnexpectedStatus, resp.StatusCode)
	}
}

// RefreshAccessToken implements AuthAPI
func (a *HTTPAuthAPI) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	payload := struct {
		Refresh string `json:"refresh"`
	}{Refresh: refreshToken}

	resp, body, err := a.postJSON(ctx, "/auth/token/refresh/", payload)
	if err != nil {
		return "", err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			Access string `json:"access"`
		}
		if err := json.Unmarshal(body, &out); err != nil || out.Access == "" {
			return "", fmt.Errorf("%w: malformed refresh response", ErrUnexpectedStatus)
		}
		return out.Access, nil
	case http.StatusBadRequest, http.StatusUnauthorized:
		return "", fmt.Errorf("%w: %s", ErrUnauthorized, detailMessage(body, "refresh token rejected"))
	default:
		return "", fmt.Errorf("%w: %d from /auth/token/refresh/", ErrUnexpectedStatus, resp.StatusCode)
	}
}

// FetchProfile implements AuthAPI
func (a *HTTPAuthAPI) FetchProfile(ctx context.Context, accessToken string) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/me/", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		profile := &UserProfile{}
		if err := json.Unmarshal(body, profile); err != nil {
			return nil, fmt.Errorf("%w: decoding profile: %w", ErrUnexpectedStatus, err)
		}
		return profile, nil
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, detailMessage(body, "access token rejected"))
	default:
		return nil, fmt.Errorf("%w: %d from /auth/me/", ErrUnexpectedStatus, resp.StatusCode)
	}
}

// postJSON sends a JSON POST and returns the response with its body fully
// read, so callers can branch on status without worrying about draining.
func (a *HTTPAuthAPI) postJSON(ctx context.Context, path string, payload any) (*http.Response, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: encoding request: %w", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	return resp, body, nil
}

// detailMessage extracts the server's detail field, falling back when the
// body is empty or not the expected envelope
func detailMessage(body []byte, fallback string) string {
	var detail errorDetail
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return detail.Detail
	}
	return fallback
}
