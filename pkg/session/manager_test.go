package session_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterhq/roster-go/pkg/credstore"
	"github.com/rosterhq/roster-go/pkg/session"
)

// fakeAuthAPI implements session.AuthAPI with overridable behavior and
// call counters
type fakeAuthAPI struct {
	exchangeFn func(context.Context, session.LoginRequest) (session.Credentials, error)
	refreshFn  func(context.Context, string) (string, error)
	profileFn  func(context.Context, string) (*session.UserProfile, error)

	refreshCalls atomic.Int64
}

func (f *fakeAuthAPI) ExchangeCredentials(ctx context.Context, req session.LoginRequest) (session.Credentials, error) {
	if f.exchangeFn != nil {
		return f.exchangeFn(ctx, req)
	}
	return session.Credentials{}, session.ErrAuthenticationFailed
}

func (f *fakeAuthAPI) RefreshAccessToken(ctx context.Context, refresh string) (string, error) {
	f.refreshCalls.Add(1)
	if f.refreshFn != nil {
		return f.refreshFn(ctx, refresh)
	}
	return "", session.ErrUnauthorized
}

func (f *fakeAuthAPI) FetchProfile(ctx context.Context, access string) (*session.UserProfile, error) {
	if f.profileFn != nil {
		return f.profileFn(ctx, access)
	}
	return &session.UserProfile{ID: uuid.New(), FirstName: "Jane", LastName: "Doe"}, nil
}

func validLoginAPI() *fakeAuthAPI {
	return &fakeAuthAPI{
		exchangeFn: func(_ context.Context, req session.LoginRequest) (session.Credentials, error) {
			if req.Identifier == "jane@example.com" && req.Secret == "correct" {
				return session.Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"}, nil
			}
			return session.Credentials{}, fmt.Errorf("%w: invalid credentials", session.ErrAuthenticationFailed)
		},
		refreshFn: func(_ context.Context, refresh string) (string, error) {
			if refresh == "refresh-1" {
				return "access-2", nil
			}
			return "", fmt.Errorf("%w: refresh token rejected", session.ErrUnauthorized)
		},
	}
}

func TestManager_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid credentials authenticate and persist", func(t *testing.T) {
		t.Parallel()
		store := credstore.NewMemoryStore()
		manager := session.New(validLoginAPI(), session.WithStore(store))

		profile, err := manager.Login(ctx, session.LoginRequest{
			Identifier: "jane@example.com",
			Secret:     "correct",
		})
		require.NoError(t, err)
		require.NotNil(t, profile)

		assert.True(t, manager.IsAuthenticated())
		assert.Equal(t, session.StatusAuthenticated, manager.Status())
		assert.Equal(t, "Jane Doe", manager.DisplayName())

		access, err := store.Get(ctx, credstore.KeyAccessToken)
		require.NoError(t, err)
		assert.Equal(t, "access-1", access)

		refresh, err := store.Get(ctx, credstore.KeyRefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "refresh-1", refresh)
	})

	t.Run("invalid credentials leave session and storage untouched", func(t *testing.T) {
		t.Parallel()
		store := credstore.NewMemoryStore()
		manager := session.New(validLoginAPI(), session.WithStore(store))

		_, err := manager.Login(ctx, session.LoginRequest{
			Identifier: "jane@example.com",
			Secret:     "wrong",
		})
		assert.ErrorIs(t, err, session.ErrAuthenticationFailed)

		assert.False(t, manager.IsAuthenticated())
		assert.Equal(t, session.StatusUnauthenticated, manager.Status())
		assert.NotEmpty(t, manager.LastError())

		_, err = store.Get(ctx, credstore.KeyAccessToken)
		assert.ErrorIs(t, err, credstore.ErrKeyNotFound)
		_, err = store.Get(ctx, credstore.KeyRefreshToken)
		assert.ErrorIs(t, err, credstore.ErrKeyNotFound)
	})

	t.Run("login emits logged in event", func(t *testing.T) {
		t.Parallel()
		manager := session.New(validLoginAPI())

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		events := manager.Subscribe(subCtx)

		_, err := manager.Login(ctx, session.LoginRequest{
			Identifier: "jane@example.com",
			Secret:     "correct",
		})
		require.NoError(t, err)

		select {
		case ev := <-events:
			assert.Equal(t, session.EventLoggedIn, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("expected a logged in event")
		}
	})

	t.Run("profile fetch failure after login tears the session down", func(t *testing.T) {
		t.Parallel()
		api := validLoginAPI()
		api.profileFn = func(context.Context, string) (*session.UserProfile, error) {
			return nil, fmt.Errorf("%w: access token rejected", session.ErrUnauthorized)
		}
		store := credstore.NewMemoryStore()
		manager := session.New(api, session.WithStore(store))

		_, err := manager.Login(ctx, session.LoginRequest{
			Identifier: "jane@example.com",
			Secret:     "correct",
		})
		assert.ErrorIs(t, err, session.ErrUnauthorized)
		assert.False(t, manager.IsAuthenticated())

		_, err = store.Get(ctx, credstore.KeyAccessToken)
		assert.ErrorIs(t, err, credstore.ErrKeyNotFound)
	})
}

func TestManager_Logout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("clears session and storage", func(t *testing.T) {
		t.Parallel()
		store := credstore.NewMemoryStore()
		manager := session.New(validLoginAPI(), session.WithStore(store))

		_, err := manager.Login(ctx, session.LoginRequest{
			Identifier: "jane@example.com",
			Secret:     "correct",
		})
		require.NoError(t, err)

		manager.Logout(ctx)

		assert.False(t, manager.IsAuthenticated())
		assert.Empty(t, manager.DisplayName())

		_, err = store.Get(ctx, credstore.KeyAccessToken)
		assert.ErrorIs(t, err, credstore.ErrKeyNotFound)
		_, err = store.Get(ctx, credstore.KeyRefreshToken)
		assert.ErrorIs(t, err, credstore.ErrKeyNotFound)
	})

	t.Run("idempotent when already logged out", func(t *testing.T) {
		t.Parallel()
		manager := session.New(validLoginAPI())

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		events := manager.Subscribe(subCtx)

		manager.Logout(ctx)
		manager.Logout(ctx)

		select {
		case ev := <-events:
			t.Fatalf("expected no event, got %v", ev.Type)
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestManager_RenewAccessToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("replaces access token in memory and storage", func(t *testing.T) {
		t.Parallel()
		store := credstore.NewMemoryStore()
		manager := session.New(validLoginAPI(), session.WithStore(store))

		_, err := manager.Login(ctx, session.LoginRequest{
			Identifier: "jane@example.com",
			Secret:     "correct",
		})
		require.NoError(t, err)

		token, err := manager.RenewAccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "access-2", token)
		assert.Equal(t, "access-2", manager.AccessToken())

		stored, err := store.Get(ctx, credstore.KeyAccessToken)
		require.NoError(t, err)
		assert.Equal(t, "access-2", stored)

		// Refresh token is untouched by a renewal
		refresh, err := store.Get(ctx, credstore.KeyRefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "refresh-1", refresh)
	})

	t.Run("rejected refresh token tears the session down", func(t *testing.T) {
		t.Parallel()
		api := validLoginAPI()
		api.refreshFn = func(context.Context, string) (string, error) {
			return "", fmt.Errorf("%w: refresh token rejected", session.ErrUnauthorized)
		}
		store := credstore.NewMemoryStore()
		manager := session.New(api, session.WithStore(store))

		_, err := manager.Login(ctx, session.LoginRequest{
			Identifier: "jane@example.com",
			Secret:     "correct",
		})
		require.NoError(t, err)

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		events := manager.Subscribe(subCtx)

		_, err = manager.RenewAccessToken(ctx)
		assert.ErrorIs(t, err, session.ErrRenewalFailed)

		assert.False(t, manager.IsAuthenticated())
		_, err = store.Get(ctx, credstore.KeyAccessToken)
		assert.ErrorIs(t, err, credstore.ErrKeyNotFound)
		_, err = store.Get(ctx, credstore.KeyRefreshToken)
		assert.ErrorIs(t, err, credstore.ErrKeyNotFound)

		select {
		case ev := <-events:
			assert.Equal(t, session.EventLoggedOut, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("expected a logged out event")
		}
	})

	t.Run("missing refresh token fails renewal", func(t *testing.T) {
		t.Parallel()
		manager := session.New(validLoginAPI())

		_, err := manager.RenewAccessToken(ctx)
		assert.ErrorIs(t, err, session.ErrRenewalFailed)
		assert.ErrorIs(t, err, session.ErrNoRefreshToken)
	})
}

func TestManager_FetchProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("requires an access token", func(t *testing.T) {
		t.Parallel()
		manager := session.New(validLoginAPI())

		_, err := manager.FetchProfile(ctx)
		assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	})

	t.Run("unauthorized fetch forces logout", func(t *testing.T) {
		t.Parallel()
		api := validLoginAPI()
		manager := session.New(api, session.WithStore(credstore.NewMemoryStore()))

		_, err := manager.Login(ctx, session.LoginRequest{
			Identifier: "jane@example.com",
			Secret:     "correct",
		})
		require.NoError(t, err)

		api.profileFn = func(context.Context, string) (*session.UserProfile, error) {
			return nil, fmt.Errorf("%w: access token rejected", session.ErrUnauthorized)
		}

		_, err = manager.FetchProfile(ctx)
		assert.ErrorIs(t, err, session.ErrUnauthorized)
		assert.False(t, manager.IsAuthenticated())
	})

	t.Run("transport failure leaves the session alone", func(t *testing.T) {
		t.Parallel()
		api := validLoginAPI()
		manager := session.New(api)

		_, err := manager.Login(ctx, session.LoginRequest{
			Identifier: "jane@example.com",
			Secret:     "correct",
		})
		require.NoError(t, err)

		api.profileFn = func(context.Context, string) (*session.UserProfile, error) {
			return nil, fmt.Errorf("%w: connection refused", session.ErrTransport)
		}

		_, err = manager.FetchProfile(ctx)
		assert.ErrorIs(t, err, session.ErrTransport)
		assert.True(t, manager.IsAuthenticated())
	})
}

func TestManager_Hydration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("restores a persisted session", func(t *testing.T) {
		t.Parallel()
		store := credstore.NewMemoryStore()
		require.NoError(t, store.Set(ctx, credstore.KeyAccessToken, "persisted-access"))
		require.NoError(t, store.Set(ctx, credstore.KeyRefreshToken, "persisted-refresh"))

		manager := session.New(validLoginAPI(), session.WithStore(store))

		assert.True(t, manager.IsAuthenticated())
		assert.Equal(t, "persisted-access", manager.AccessToken())
		assert.Equal(t, session.StatusAuthenticated, manager.Status())
	})

	t.Run("starts unauthenticated without a persisted access token", func(t *testing.T) {
		t.Parallel()
		store := credstore.NewMemoryStore()
		// A stray refresh token alone does not make a session
		require.NoError(t, store.Set(ctx, credstore.KeyRefreshToken, "orphan"))

		manager := session.New(validLoginAPI(), session.WithStore(store))

		assert.False(t, manager.IsAuthenticated())
		assert.Equal(t, session.StatusUnauthenticated, manager.Status())
	})
}

func TestManager_Snapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	manager := session.New(validLoginAPI())
	_, err := manager.Login(ctx, session.LoginRequest{
		Identifier: "jane@example.com",
		Secret:     "correct",
	})
	require.NoError(t, err)

	snap := manager.Snapshot()
	assert.True(t, snap.IsAuthenticated())
	assert.Equal(t, session.StatusAuthenticated, snap.Status)
	require.NotNil(t, snap.Profile)

	// Mutating the snapshot's profile must not touch the manager
	snap.Profile.FirstName = "Mallory"
	assert.Equal(t, "Jane Doe", manager.DisplayName())
}
