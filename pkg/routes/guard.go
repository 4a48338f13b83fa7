package routes

import (
	"context"
	"net/url"

	"github.com/rosterhq/roster-go/pkg/session"
)

// RedirectParam carries the originally intended destination through the
// login redirect, so the application can resume it after authentication
const RedirectParam = "redirect"

// Route is one entry of the navigation table
type Route struct {
	Name         string
	Path         string
	RequiresAuth bool
}

// Decision is the outcome of a navigation check
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// allow is the zero-redirect decision
var allow = Decision{Allowed: true}

// Authenticator is the read-only view of the session the guard needs
type Authenticator interface {
	IsAuthenticated() bool
}

// Guard checks navigation attempts against the session state
type Guard struct {
	auth      Authenticator
	loginPath string
	homePath  string
}

// NewGuard creates a guard over auth with the given login and home paths
func NewGuard(auth Authenticator, loginPath, homePath string) *Guard {
	return &Guard{
		auth:      auth,
		loginPath: loginPath,
		homePath:  homePath,
	}
}

// Check decides whether navigation to target is allowed. Protected routes
// redirect to login while unauthenticated; the login route redirects home
// once authenticated.
func (g *Guard) Check(target Route) Decision {
	authenticated := g.auth.IsAuthenticated()

	if target.RequiresAuth && !authenticated {
		redirect := g.loginPath
		if target.Path != "" && target.Path != g.loginPath {
			redirect += "?" + RedirectParam + "=" + url.QueryEscape(target.Path)
		}
		return Decision{RedirectTo: redirect}
	}

	if target.Path == g.loginPath && authenticated {
		return Decision{RedirectTo: g.homePath}
	}

	return allow
}

// Watch converts session teardown events into forced login redirects. The
// returned channel closes when ctx is done. Events other than a logout are
// ignored; a logout always redirects, regardless of the current route.
func (g *Guard) Watch(ctx context.Context, events <-chan session.Event) <-chan Decision {
	out := make(chan Decision, 1)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Type != session.EventLoggedOut {
					continue
				}
				select {
				case out <- Decision{RedirectTo: g.loginPath}:
				default:
				}
			}
		}
	}()

	return out
}
