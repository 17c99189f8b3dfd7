package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps archives in process memory. Used by tests and by the
// server when no MongoDB URL is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	archives map[string]*Archive
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{archives: make(map[string]*Archive)}
}

// Put stores an archive, replacing any existing one with the same ID.
func (s *MemoryStore) Put(ctx context.Context, a *Archive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *a
	s.archives[a.ID] = &copied
	return nil
}

// Get retrieves an archive by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Archive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.archives[id]
	if !ok {
		return nil, notFound(id)
	}
	copied := *a
	return &copied, nil
}

// List returns all archives, newest first. Ties break by ID so the order
// is stable.
func (s *MemoryStore) List(ctx context.Context) ([]*Archive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Archive, 0, len(s.archives))
	for _, a := range s.archives {
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CapturedAt.Equal(out[j].CapturedAt) {
			return out[i].CapturedAt.After(out[j].CapturedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes an archive.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.archives[id]; !ok {
		return notFound(id)
	}
	delete(s.archives, id)
	return nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
