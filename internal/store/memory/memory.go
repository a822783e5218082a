package memory

import (
	"context"
	"sync"

	"seekmark/internal/domain"
)

// Store is an in-memory record store keyed by video ID.
// It backs tests and the degraded mode where Redis is unreachable:
// bookmarks then survive the browsing session but not the process.
type Store struct {
	mu    sync.RWMutex
	lists map[string]domain.List
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		lists: make(map[string]domain.List),
	}
}

// Load returns a copy of the list for a video, empty when absent.
func (s *Store) Load(_ context.Context, videoID string) (domain.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.lists[videoID]
	if !ok {
		return domain.List{}, nil
	}
	out := list.Clone()
	out.Normalize()
	return out, nil
}

// Save replaces the list for a video.
func (s *Store) Save(_ context.Context, videoID string, list domain.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists[videoID] = list.Clone()
	return nil
}

// Count returns the number of videos with a stored list
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.lists)
}
