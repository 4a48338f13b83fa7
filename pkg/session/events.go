package session

import (
	"context"
	"sync"
)

// EventType identifies a session lifecycle event
type EventType string

const (
	// EventLoggedIn fires after a successful login
	EventLoggedIn EventType = "logged_in"
	// EventLoggedOut fires after the session is torn down, whether by an
	// explicit logout or a failed renewal
	EventLoggedOut EventType = "logged_out"
)

// Event is broadcast to subscribers on session lifecycle changes. The
// navigation layer uses EventLoggedOut as its signal to present the login
// surface instead of the session mutating any global location state.
type Event struct {
	Type   EventType
	Reason string
}

// eventHub fans out events to subscribers without blocking the session's
// hot path: a subscriber with a full buffer misses the event rather than
// stalling a logout.
type eventHub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	bufferSize  int
}

func newEventHub(bufferSize int) *eventHub {
	return &eventHub{
		subscribers: make(map[chan Event]struct{}),
		bufferSize:  max(bufferSize, 1),
	}
}

// subscribe registers a channel that receives events until ctx is done
func (h *eventHub) subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, h.bufferSize)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subscribers, ch)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}

// publish delivers ev to all subscribers, dropping for full buffers
func (h *eventHub) publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
