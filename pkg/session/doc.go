// Package session manages the client-side authentication session against
// the roster identity server: it exchanges user credentials for a token
// pair, persists the pair through a credstore.Store so the session survives
// a process restart, and renews the short-lived access token on demand.
//
// # Architecture
//
// A Manager owns the session state (profile, credential pair, status) and
// is its single writer: collaborators never mutate the session directly,
// they call Manager operations. An AuthAPI implementation speaks the wire
// contract of the identity server; HTTPAuthAPI is the default. A Transport
// wraps any http.RoundTripper and forms the request pipeline: it attaches
// the current access token to outgoing requests and, on an authorization
// failure, performs a single-flight token renewal and replays the request
// once.
//
//	┌────────┐  RoundTrip   ┌───────────┐   business API
//	│ Caller │ ───────────► │ Transport │ ─────────────────►
//	└────────┘              └───────────┘
//	                              │ renew on 401 (single-flight)
//	                              ▼
//	                        ┌───────────┐   /auth/token/…
//	                        │  Manager  │ ─────────────────►
//	                        └───────────┘
//	                              │
//	                              ▼
//	                        credstore.Store
//
// # Usage
//
//	api := session.NewHTTPAuthAPI("https://api.example.com")
//	manager := session.New(api, session.WithStore(store))
//
//	profile, err := manager.Login(ctx, session.LoginRequest{
//	    Identifier: "worker@example.com",
//	    Secret:     "hunter2",
//	})
//
//	client := &http.Client{Transport: session.NewTransport(manager)}
//	resp, err := client.Get("https://api.example.com/roster/shifts/")
//
// # Events
//
// Instead of reaching into a global navigation environment, the Manager
// broadcasts lifecycle events (EventLoggedIn, EventLoggedOut). A router or
// UI layer subscribes and decides what to present:
//
//	events := manager.Subscribe(ctx)
//	for ev := range events {
//	    if ev.Type == session.EventLoggedOut {
//	        // present the login surface
//	    }
//	}
//
// # Error Handling
//
// Common error values returned by the package:
//
//   - ErrAuthenticationFailed – login credentials rejected
//   - ErrUnauthorized         – access token rejected mid-session
//   - ErrRenewalFailed        – refresh token rejected; session torn down
//   - ErrNotAuthenticated     – operation requires an access token
//   - ErrTransport            – network-level failure, session untouched
package session
