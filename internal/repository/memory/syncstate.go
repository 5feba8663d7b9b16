package memory

import (
	"context"
	"sync"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
)

// SyncStateStore is an in-memory repository.SyncStateStore for tests and
// single-process development setups.
type SyncStateStore struct {
	mu     sync.RWMutex
	states map[string]domain.SyncState
}

// NewSyncStateStore creates an empty in-memory sync state store.
func NewSyncStateStore() *SyncStateStore {
	return &SyncStateStore{states: make(map[string]domain.SyncState)}
}

// Get returns the stored state for the key, or a zero-value idle state if
// the key was never written.
func (s *SyncStateStore) Get(_ context.Context, key string) (domain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[key]
	if !ok {
		return domain.SyncState{Status: domain.SyncStatusIdle}, nil
	}
	return state, nil
}

// Set overwrites the stored state for the key.
func (s *SyncStateStore) Set(_ context.Context, key string, state domain.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state
	return nil
}
