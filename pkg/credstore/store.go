package credstore

import "context"

// Well-known keys used by the session layer. The names mirror the wire
// contract of the identity server and must not change between releases,
// otherwise existing persisted sessions would be silently dropped.
const (
	KeyAccessToken  = "token"
	KeyRefreshToken = "refreshToken"
)

// Store defines the interface for durable credential persistence
type Store interface {
	// Get retrieves the value stored under key, or ErrKeyNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes the value stored under key; missing keys are a no-op
	Delete(ctx context.Context, key string) error
}
