package credstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis server, for clients that share one
// session across several processes (e.g. a fleet of kiosk terminals logged
// in as the same branch account).
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption is a functional option for RedisStore
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces all stored keys, default "roster:credentials:"
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

// WithTTL bounds the lifetime of stored values. Zero (the default) means
// values live until deleted; the refresh token's own server-side expiry is
// then the only bound.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisStore) {
		r.ttl = ttl
	}
}

// NewRedisStore creates a Redis-backed credential store from a connection
// URL in the format "redis://:password@localhost:6379/0". The connection is
// verified with a ping before the store is returned.
func NewRedisStore(ctx context.Context, connectionURL string, opts ...RedisOption) (*RedisStore, error) {
	opt, err := redis.ParseURL(connectionURL)
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrStorageFailed, err)
	}

	return NewRedisStoreWithClient(client, opts...), nil
}

// NewRedisStoreWithClient creates a store on an existing client. The caller
// keeps ownership of the client's lifecycle.
func NewRedisStoreWithClient(client *redis.Client, opts ...RedisOption) *RedisStore {
	r := &RedisStore{
		client: client,
		prefix: "roster:credentials:",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Get retrieves a stored value by key
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", errors.Join(ErrStorageFailed, err)
	}
	return value, nil
}

// Set stores a value under key
func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}

	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

// Delete removes a value by key
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}
