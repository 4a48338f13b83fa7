package places

import (
	"context"
	"errors"
	"sync"
)

// Searcher serializes autocomplete lookups so that only the most recent
// query's result is ever applied: issuing a new search cancels the one
// still in flight, and a cancelled search reports no suggestions and no
// error. Safe for concurrent use.
type Searcher struct {
	client *Client

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSearcher creates a Searcher over client
func NewSearcher(client *Client) *Searcher {
	return &Searcher{client: client}
}

// Search runs an autocomplete lookup, cancelling any previous one still in
// flight. A search superseded by a newer one returns (nil, nil).
func (s *Searcher) Search(ctx context.Context, query string) ([]Suggestion, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	suggestions, err := s.client.Autocomplete(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, err
	}
	return suggestions, nil
}

// Stop cancels any in-flight search
func (s *Searcher) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
