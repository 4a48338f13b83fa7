package session

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// renewalKey is the single-flight key; there is only ever one credential
// pair per client, so all renewals collapse onto one key.
const renewalKey = "renew"

// Transport is an http.RoundTripper that forms the request pipeline around
// a business API client.
//
// Outbound, it attaches the session's current access token as a bearer
// Authorization header; requests issued while logged out go out
// unauthenticated. Inbound, a 401 response triggers exactly one token
// renewal and one replay of the original request with the new token.
//
// The renewal is single-flight: when several requests fail concurrently,
// the first one performs the exchange and the rest wait for its result,
// then all replay with the same new token. A failed renewal has already
// torn the session down by the time it is observed here; the original 401
// is returned so the failure stays visible to the caller.
//
// Network errors are returned as-is and never trigger a renewal: only an
// actual 401 response from the server counts as an authorization failure.
type Transport struct {
	base    http.RoundTripper
	session *Manager
	renew   singleflight.Group
}

// TransportOption is a functional option for Transport
type TransportOption func(*Transport)

// WithBase sets the underlying RoundTripper, default http.DefaultTransport
func WithBase(base http.RoundTripper) TransportOption {
	return func(t *Transport) {
		if base != nil {
			t.base = base
		}
	}
}

// NewTransport creates the request pipeline around the given session
func NewTransport(session *Manager, opts ...TransportOption) *Transport {
	t := &Transport{
		base:    http.DefaultTransport,
		session: session,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	outbound := t.authorize(req, t.session.AccessToken())

	resp, err := t.base.RoundTrip(outbound)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// Bodies without GetBody cannot be rewound, so the request cannot be
	// replayed; the 401 surfaces to the caller.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	// The renewal outlives any single request: another waiter may still
	// need its result after this request's context is cancelled.
	renewCtx := context.WithoutCancel(req.Context())
	token, renewErr, _ := t.renew.Do(renewalKey, func() (any, error) {
		return t.session.RenewAccessToken(renewCtx)
	})
	if renewErr != nil {
		return resp, nil
	}

	// Replay once with the new token. Whatever comes back, including
	// another 401, is the final outcome.
	drain(resp)
	retry := t.authorize(req, token.(string))
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}

	return t.base.RoundTrip(retry)
}

// authorize clones req and sets the auth and correlation headers. The
// original request is never mutated; RoundTrippers must not modify their
// argument.
func (t *Transport) authorize(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	if token != "" {
		clone.Header.Set("Authorization", "Bearer "+token)
	} else {
		clone.Header.Del("Authorization")
	}
	if clone.Header.Get("X-Request-ID") == "" {
		clone.Header.Set("X-Request-ID", uuid.NewString())
	}
	return clone
}

// drain consumes and closes a response body so the underlying connection
// can be reused for the replay
func drain(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		_ = resp.Body.Close()
	}
}
