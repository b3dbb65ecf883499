package session

import (
	"context"
	"sync"
	"time"

	"vismooc/pkg/platform/sentinel"
)

// MemoryStore keeps sessions in process memory. It favors clarity over
// performance and exists for tests and single-node development setups.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	values    map[string]any
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, sid string) (map[string]any, error) {
	s.mu.RLock()
	entry, ok := s.entries[sid]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, sid)
		s.mu.Unlock()
		return nil, sentinel.ErrExpired
	}
	return entry.values, nil
}

func (s *MemoryStore) Set(_ context.Context, sid string, values map[string]any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sid] = memoryEntry{values: values, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sid)
	return nil
}
