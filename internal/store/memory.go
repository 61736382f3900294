package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vocalcoach/platform/internal/syncx"
	"github.com/vocalcoach/platform/internal/trace"
)

// MemoryStore is an in-memory KeyValueStore for tests and ephemeral runs.
type MemoryStore struct {
	slots *syncx.RWGuard[map[string]string]
}

func NewMemory() *MemoryStore {
	return &MemoryStore{slots: syncx.NewGuard(map[string]string{})}
}

func (m *MemoryStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok := m.slots.Read(func(slots map[string]string) any {
		v, found := slots[key]
		if !found {
			return nil
		}
		return v
	}).(string)
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		trace.Logger(ctx).Warn("discarding corrupt slot value", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal slot %s: %w", key, err)
	}
	m.slots.Write(func(slots *map[string]string) {
		(*slots)[key] = string(raw)
	})
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, keys ...string) error {
	m.slots.Write(func(slots *map[string]string) {
		for _, key := range keys {
			delete(*slots, key)
		}
	})
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Corrupt overwrites a slot with unparseable data. Test hook.
func (m *MemoryStore) Corrupt(key string) {
	m.slots.Write(func(slots *map[string]string) {
		(*slots)[key] = "{not json"
	})
}
