package roster

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rosterhq/roster-go/pkg/config"
	"github.com/rosterhq/roster-go/pkg/credstore"
	"github.com/rosterhq/roster-go/pkg/places"
	"github.com/rosterhq/roster-go/pkg/session"
)

// Client is the wired client kit. Session owns authentication state; HTTP
// sends business requests through the renewing transport; Places is nil
// unless an API key is configured.
type Client struct {
	Session *session.Manager
	HTTP    *http.Client
	Places  *places.Client
}

// Option is a functional option for New
type Option func(*settings)

type settings struct {
	log   *slog.Logger
	store credstore.Store
	api   session.AuthAPI
	base  http.RoundTripper
}

// WithLogger sets the logger used by the session manager
func WithLogger(log *slog.Logger) Option {
	return func(s *settings) { s.log = log }
}

// WithStore overrides the credential store selected from config
func WithStore(store credstore.Store) Option {
	return func(s *settings) { s.store = store }
}

// WithAuthAPI overrides the identity server client, e.g. for tests
func WithAuthAPI(api session.AuthAPI) Option {
	return func(s *settings) { s.api = api }
}

// WithBaseTransport sets the RoundTripper under the session transport
func WithBaseTransport(base http.RoundTripper) Option {
	return func(s *settings) { s.base = base }
}

// New wires the kit from config: credential store (redis, file or memory),
// session manager hydrated from it, and an HTTP client whose transport
// attaches and renews credentials transparently.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	store := s.store
	if store == nil {
		var err error
		store, err = storeFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	api := s.api
	if api == nil {
		api = session.NewHTTPAuthAPI(cfg.APIBaseURL)
	}

	sessionOpts := []session.Option{session.WithStore(store)}
	if s.log != nil {
		sessionOpts = append(sessionOpts, session.WithLogger(s.log))
	}
	manager := session.New(api, sessionOpts...)

	transportOpts := []session.TransportOption{}
	if s.base != nil {
		transportOpts = append(transportOpts, session.WithBase(s.base))
	}

	client := &Client{
		Session: manager,
		HTTP: &http.Client{
			Transport: session.NewTransport(manager, transportOpts...),
			Timeout:   cfg.HTTPTimeout,
		},
	}

	if cfg.PlacesAPIKey != "" {
		client.Places = places.NewClient(cfg.PlacesAPIKey)
	}

	return client, nil
}

// storeFromConfig picks the credential store backend: redis when a URL is
// set, otherwise the credential file, otherwise memory
func storeFromConfig(ctx context.Context, cfg config.Config) (credstore.Store, error) {
	switch {
	case cfg.RedisURL != "":
		return credstore.NewRedisStore(ctx, cfg.RedisURL)
	case cfg.CredentialsFile != "":
		var opts []credstore.FileOption
		if cfg.CredentialsKey != "" {
			opts = append(opts, credstore.WithEncryptionKey([]byte(cfg.CredentialsKey)))
		}
		return credstore.NewFileStore(cfg.CredentialsFile, opts...)
	default:
		return credstore.NewMemoryStore(), nil
	}
}
