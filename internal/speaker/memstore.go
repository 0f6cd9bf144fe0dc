package speaker

import (
	"context"
	"sort"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// It is suitable for testing and single-process throwaway deployments.
// The zero value is ready to use.
type MemStore struct {
	mu       sync.RWMutex
	speakers map[string]Speaker
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{speakers: make(map[string]Speaker)}
}

// List implements [Store.List].
func (s *MemStore) List(ctx context.Context) ([]Speaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Speaker, 0, len(s.speakers))
	for _, sp := range s.speakers {
		result = append(result, sp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Find implements [Store.Find].
func (s *MemStore) Find(ctx context.Context, name string) (Speaker, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.speakers[name]
	return sp, ok, nil
}

// Upsert implements [Store.Upsert].
func (s *MemStore) Upsert(ctx context.Context, sp Speaker) error {
	if sp.Name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.speakers == nil {
		s.speakers = make(map[string]Speaker)
	}
	s.speakers[sp.Name] = sp
	return nil
}
