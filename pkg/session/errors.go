package session

import "errors"

var (
	// ErrAuthenticationFailed indicates the login credentials were rejected
	ErrAuthenticationFailed = errors.New("session.authentication_failed")

	// ErrUnauthorized indicates the access token was rejected by the server
	ErrUnauthorized = errors.New("session.unauthorized")

	// ErrRenewalFailed indicates the refresh token was rejected or absent;
	// the session has been torn down as a side effect
	ErrRenewalFailed = errors.New("session.renewal_failed")

	// ErrNoRefreshToken indicates no refresh token is available for renewal
	ErrNoRefreshToken = errors.New("session.no_refresh_token")

	// ErrNotAuthenticated indicates the operation requires an access token
	ErrNotAuthenticated = errors.New("session.not_authenticated")

	// ErrTransport indicates a network-level failure; the session is untouched
	ErrTransport = errors.New("session.transport_error")

	// ErrUnexpectedStatus indicates the server replied outside the wire contract
	ErrUnexpectedStatus = errors.New("session.unexpected_status")
)
