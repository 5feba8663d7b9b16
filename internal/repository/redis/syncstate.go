package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
)

const keyPrefix = "syncstate:"

// SyncStateStore implements repository.SyncStateStore using Redis. State
// survives process restarts, which matters for the staleness check: a
// sync that died mid-run must still be visible as a stale "running" row
// to the next reader.
type SyncStateStore struct {
	client *redis.Client
}

// NewSyncStateStore creates a new Redis-backed sync state store.
func NewSyncStateStore(client *redis.Client) *SyncStateStore {
	return &SyncStateStore{client: client}
}

// Get retrieves the stored state for the key. A key never written returns
// a zero-value idle state.
func (s *SyncStateStore) Get(ctx context.Context, key string) (domain.SyncState, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.SyncState{Status: domain.SyncStatusIdle}, nil
		}
		return domain.SyncState{}, fmt.Errorf("redis get sync state: %w", err)
	}

	var state domain.SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.SyncState{}, fmt.Errorf("unmarshal sync state: %w", err)
	}
	return state, nil
}

// Set overwrites the stored state for the key. No TTL: staleness is
// handled by readers, not by expiry.
func (s *SyncStateStore) Set(ctx context.Context, key string, state domain.SyncState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal sync state: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set sync state: %w", err)
	}
	return nil
}
