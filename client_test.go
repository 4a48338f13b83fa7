package roster_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	roster "github.com/rosterhq/roster-go"
	"github.com/rosterhq/roster-go/pkg/config"
	"github.com/rosterhq/roster-go/pkg/credstore"
	"github.com/rosterhq/roster-go/pkg/session"
)

// rosterServer fakes the identity endpoints plus one business route that
// accepts whichever token is currently valid
func rosterServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()

	validToken := "access-1"
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		var req session.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Secret != "correct" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"detail":"invalid credentials"}`)
			return
		}
		fmt.Fprint(w, `{"access":"access-1","refresh":"refresh-1"}`)
	})

	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprint(w, `{"access":"access-2"}`)
	})

	mux.HandleFunc("/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprintf(w, `{"id":%q,"email":"jane@example.com","first_name":"Jane","last_name":"Doe"}`,
			uuid.New().String())
	})

	mux.HandleFunc("/roster/shifts/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+validToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"shifts":[]}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &validToken
}

func TestNew_EndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	server, validToken := rosterServer(t)
	credFile := filepath.Join(t.TempDir(), "credentials.yaml")

	cfg := config.Config{
		APIBaseURL:      server.URL,
		CredentialsFile: credFile,
		HTTPTimeout:     10 * time.Second,
	}

	client, err := roster.New(ctx, cfg)
	require.NoError(t, err)
	require.Nil(t, client.Places)

	// Login persists the pair to the credential file.
	profile, err := client.Session.Login(ctx, session.LoginRequest{
		Identifier: "jane@example.com",
		Secret:     "correct",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", profile.DisplayName())

	store, err := credstore.NewFileStore(credFile)
	require.NoError(t, err)
	access, err := store.Get(ctx, credstore.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-1", access)

	// Business call with the current token.
	resp, err := client.HTTP.Get(server.URL + "/roster/shifts/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Server rotates the valid token: the next call 401s, the transport
	// renews and replays, and the caller sees only the success.
	*validToken = "access-2"
	resp, err = client.HTTP.Get(server.URL + "/roster/shifts/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "access-2", client.Session.AccessToken())

	// A fresh kit over the same credential file starts authenticated.
	rehydrated, err := roster.New(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, rehydrated.Session.IsAuthenticated())
	assert.Equal(t, "access-2", rehydrated.Session.AccessToken())
}

func TestNew_MemoryStoreByDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	server, _ := rosterServer(t)
	client, err := roster.New(ctx, config.Config{APIBaseURL: server.URL, HTTPTimeout: time.Second})
	require.NoError(t, err)

	assert.False(t, client.Session.IsAuthenticated())
}

func TestNew_PlacesEnabledByAPIKey(t *testing.T) {
	t.Parallel()

	server, _ := rosterServer(t)
	client, err := roster.New(context.Background(), config.Config{
		APIBaseURL:   server.URL,
		PlacesAPIKey: "places-key",
		HTTPTimeout:  time.Second,
	})
	require.NoError(t, err)
	assert.NotNil(t, client.Places)
}
