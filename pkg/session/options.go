package session

import (
	"log/slog"

	"github.com/rosterhq/roster-go/pkg/credstore"
)

// defaultEventBuffer is the per-subscriber event channel capacity
const defaultEventBuffer = 8

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithStore sets the durable credential store. Defaults to an in-memory
// store that does not survive a restart.
func WithStore(store credstore.Store) Option {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithLogger sets the logger. The manager is silent by default.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithEventBuffer sets the per-subscriber event channel capacity
func WithEventBuffer(size int) Option {
	return func(m *Manager) {
		m.eventBuffer = size
	}
}
