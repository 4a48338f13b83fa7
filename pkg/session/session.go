package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Status represents the session lifecycle state
type Status string

const (
	// StatusUnauthenticated means no access token is held
	StatusUnauthenticated Status = "unauthenticated"
	// StatusAuthenticating means a login exchange is in progress
	StatusAuthenticating Status = "authenticating"
	// StatusAuthenticated means an access token is held
	StatusAuthenticated Status = "authenticated"
)

// Credentials is the token pair issued by the identity server. The access
// token authorizes individual API calls; the refresh token is sent only to
// the renewal endpoint, never to business routes.
type Credentials struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// LoginRequest carries user-supplied login credentials
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// UserProfile is the identity record returned by the profile endpoint. It
// is replaced wholesale on every fetch and cleared on logout.
type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role,omitempty"`
	BranchID  string    `json:"branch_id,omitempty"`
}

// DisplayName returns "First Last", trimmed when either part is missing
func (p *UserProfile) DisplayName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Session is a read-only snapshot of the manager's state
type Session struct {
	Profile     *UserProfile
	Credentials Credentials
	Status      Status
	LastError   string
}

// IsAuthenticated returns true if an access token is present
func (s Session) IsAuthenticated() bool {
	return s.Credentials.AccessToken != ""
}

// tokenExpiry reads the exp claim from a JWT access token without
// verifying the signature. Verification is the server's job; the client
// only wants a hint for proactive renewal. Returns the zero time when the
// token is not a parseable JWT or carries no expiry.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
