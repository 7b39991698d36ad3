// Package watchlist persists each user's saved-titles set.
package watchlist

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Item is one saved title. Presentation metadata is carried through from
// the catalog, never derived here.
type Item struct {
	TitleID      string    `json:"title_id"`
	DisplayTitle string    `json:"display_title"`
	PosterURL    string    `json:"poster_url,omitempty"`
	AddedAt      time.Time `json:"added_at"`
}

// Store defines persistence operations for watchlists. Add and Remove are
// idempotent: re-adding refreshes metadata, removing an absent title is a
// no-op.
type Store interface {
	Add(ctx context.Context, userID string, item Item) error
	Remove(ctx context.Context, userID, titleID string) error
	// List returns the user's items ordered by added_at DESC.
	List(ctx context.Context, userID string, limit int) ([]Item, error)
}

// InMemoryStore is a development-only in-memory implementation.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[string]map[string]Item // userID -> titleID -> item
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[string]map[string]Item)}
}

func (s *InMemoryStore) Add(_ context.Context, userID string, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items[userID] == nil {
		s.items[userID] = make(map[string]Item)
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}
	s.items[userID][item.TitleID] = item
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, userID, titleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items[userID], titleID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, userID string, limit int) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, 0, len(s.items[userID]))
	for _, it := range s.items[userID] {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.After(out[j].AddedAt)
		}
		return out[i].TitleID > out[j].TitleID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
