package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rosterhq/roster-go/pkg/credstore"
)

// Manager owns the client session. There is one Manager per client process
// and it is the sole writer of session state; the transport and any UI or
// routing layer hold a reference and go through its operations.
//
// Manager methods are safe for concurrent use. RenewAccessToken is not
// protected against concurrent renewal exchanges; Transport serializes
// them through a single-flight group.
type Manager struct {
	api         AuthAPI
	store       credstore.Store
	log         *slog.Logger
	events      *eventHub
	eventBuffer int

	mu      sync.RWMutex
	creds   Credentials
	profile *UserProfile
	status  Status
	lastErr string
}

// New creates a session manager backed by api. The manager hydrates its
// credential pair from the configured store, so a process that persisted a
// session earlier starts out authenticated without a fresh login.
func New(api AuthAPI, opts ...Option) *Manager {
	m := &Manager{
		api:         api,
		status:      StatusUnauthenticated,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		eventBuffer: defaultEventBuffer,
	}

	for _, opt := range opts {
		opt(m)
	}
	m.events = newEventHub(m.eventBuffer)

	if m.store == nil {
		m.store = credstore.NewMemoryStore()
	}

	m.hydrate(context.Background())

	return m
}

// hydrate loads a persisted credential pair. Absence of the access token
// means no session; a lone refresh token without an access token is stale
// state and is ignored until the next renewal writes a fresh pair.
func (m *Manager) hydrate(ctx context.Context) {
	access, err := m.store.Get(ctx, credstore.KeyAccessToken)
	if err != nil {
		if !errors.Is(err, credstore.ErrKeyNotFound) {
			m.log.WarnContext(ctx, "failed to read persisted access token", slog.Any("error", err))
		}
		return
	}

	refresh, err := m.store.Get(ctx, credstore.KeyRefreshToken)
	if err != nil && !errors.Is(err, credstore.ErrKeyNotFound) {
		m.log.WarnContext(ctx, "failed to read persisted refresh token", slog.Any("error", err))
	}

	m.mu.Lock()
	m.creds = Credentials{AccessToken: access, RefreshToken: refresh}
	m.status = StatusAuthenticated
	m.mu.Unlock()

	m.log.DebugContext(ctx, "session hydrated from storage")
}

// Login exchanges user credentials for a token pair, persists it and
// fetches the user profile. A rejected exchange returns
// ErrAuthenticationFailed and leaves both the session and storage
// untouched.
func (m *Manager) Login(ctx context.Context, req LoginRequest) (*UserProfile, error) {
	m.setStatus(StatusAuthenticating)

	creds, err := m.api.ExchangeCredentials(ctx, req)
	if err != nil {
		m.mu.Lock()
		m.status = StatusUnauthenticated
		m.lastErr = err.Error()
		m.mu.Unlock()
		m.log.InfoContext(ctx, "login rejected", slog.Any("error", err))
		return nil, err
	}

	if err := m.persist(ctx, creds); err != nil {
		m.mu.Lock()
		m.status = StatusUnauthenticated
		m.lastErr = err.Error()
		m.mu.Unlock()
		return nil, err
	}

	m.mu.Lock()
	m.creds = creds
	m.status = StatusAuthenticated
	m.lastErr = ""
	m.mu.Unlock()

	profile, err := m.api.FetchProfile(ctx, creds.AccessToken)
	if err != nil {
		// A pair that cannot even fetch its own profile is unusable.
		m.logout(ctx, "profile fetch failed after login")
		return nil, err
	}

	m.mu.Lock()
	m.profile = profile
	m.mu.Unlock()

	m.events.publish(Event{Type: EventLoggedIn})
	m.log.InfoContext(ctx, "logged in", slog.String("user_id", profile.ID.String()))

	return profile, nil
}

// Logout clears the session and its persisted credentials and notifies
// subscribers. Calling it while already unauthenticated is a no-op.
func (m *Manager) Logout(ctx context.Context) {
	m.logout(ctx, "logout requested")
}

func (m *Manager) logout(ctx context.Context, reason string) {
	m.mu.Lock()
	hadSession := m.creds.AccessToken != "" || m.creds.RefreshToken != "" || m.profile != nil
	m.creds = Credentials{}
	m.profile = nil
	m.status = StatusUnauthenticated
	m.mu.Unlock()

	if !hadSession {
		return
	}

	if err := m.store.Delete(ctx, credstore.KeyAccessToken); err != nil {
		m.log.WarnContext(ctx, "failed to erase access token", slog.Any("error", err))
	}
	if err := m.store.Delete(ctx, credstore.KeyRefreshToken); err != nil {
		m.log.WarnContext(ctx, "failed to erase refresh token", slog.Any("error", err))
	}

	m.events.publish(Event{Type: EventLoggedOut, Reason: reason})
	m.log.InfoContext(ctx, "logged out", slog.String("reason", reason))
}

// FetchProfile refetches and replaces the user profile. It requires a
// present access token. An authorization failure tears the session down:
// by the time this path is reached the transport has already attempted a
// renewal, so a rejection here is unrecoverable.
func (m *Manager) FetchProfile(ctx context.Context) (*UserProfile, error) {
	token := m.AccessToken()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	profile, err := m.api.FetchProfile(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			m.logout(ctx, "profile fetch unauthorized")
		}
		return nil, err
	}

	m.mu.Lock()
	m.profile = profile
	m.mu.Unlock()

	return profile, nil
}

// RenewAccessToken exchanges the refresh token for a new access token,
// replacing it in memory and in storage. Any failure tears the session
// down and returns ErrRenewalFailed; the caller holds an unusable session
// either way.
//
// Concurrent calls would each perform their own network exchange; callers
// that can race (the transport) must serialize through a single-flight
// mechanism.
func (m *Manager) RenewAccessToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	refresh := m.creds.RefreshToken
	m.mu.RUnlock()

	if refresh == "" {
		m.logout(ctx, "renewal without refresh token")
		return "", fmt.Errorf("%w: %w", ErrRenewalFailed, ErrNoRefreshToken)
	}

	access, err := m.api.RefreshAccessToken(ctx, refresh)
	if err != nil {
		m.logout(ctx, "token renewal failed")
		m.log.InfoContext(ctx, "token renewal failed", slog.Any("error", err))
		return "", fmt.Errorf("%w: %w", ErrRenewalFailed, err)
	}

	if err := m.store.Set(ctx, credstore.KeyAccessToken, access); err != nil {
		m.logout(ctx, "failed to persist renewed token")
		return "", fmt.Errorf("%w: %w", ErrRenewalFailed, err)
	}

	m.mu.Lock()
	m.creds.AccessToken = access
	m.status = StatusAuthenticated
	m.mu.Unlock()

	m.log.DebugContext(ctx, "access token renewed")

	return access, nil
}

// IsAuthenticated returns true if an access token is present
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.AccessToken != ""
}

// AccessToken returns the current access token, empty when logged out
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.AccessToken
}

// DisplayName returns the profile's display name, empty without a profile
func (m *Manager) DisplayName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile.DisplayName()
}

// Status returns the current lifecycle status
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// LastError returns the most recent login failure message, for surfacing
// on a login form
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// TokenExpiry returns the access token's expiry as read from its JWT
// claims, without signature verification. Zero when unknown.
func (m *Manager) TokenExpiry() time.Time {
	return tokenExpiry(m.AccessToken())
}

// Snapshot returns a copy of the current session state
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Session{
		Credentials: m.creds,
		Status:      m.status,
		LastError:   m.lastErr,
	}
	if m.profile != nil {
		profile := *m.profile
		s.Profile = &profile
	}
	return s
}

// Subscribe returns a channel of lifecycle events. The subscription ends
// and the channel closes when ctx is done. Slow subscribers miss events
// rather than block the session.
func (m *Manager) Subscribe(ctx context.Context) <-chan Event {
	return m.events.subscribe(ctx)
}

func (m *Manager) setStatus(status Status) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

// persist writes both halves of the pair; storage and memory must agree
// immediately after every successful mutation
func (m *Manager) persist(ctx context.Context, creds Credentials) error {
	if err := m.store.Set(ctx, credstore.KeyAccessToken, creds.AccessToken); err != nil {
		return err
	}
	return m.store.Set(ctx, credstore.KeyRefreshToken, creds.RefreshToken)
}
