package storage

import (
	"context"
	"sync"
)

// Keys used by the extension.
const (
	KeyAuthToken = "authToken"
	KeyUser      = "user"
)

// Store is a small key/value store shaped like extension local storage.
// Values are opaque encoded bytes; Set writes all items in one commit.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, items map[string][]byte) error
	Remove(ctx context.Context, keys ...string) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, keys ...string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pick(m.data, keys), nil
}

func (m *MemoryStore) Set(_ context.Context, items map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range items {
		m.data[k] = clone(v)
	}
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func pick(data map[string][]byte, keys []string) map[string][]byte {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		for k, v := range data {
			out[k] = clone(v)
		}
		return out
	}
	for _, k := range keys {
		if v, ok := data[k]; ok {
			out[k] = clone(v)
		}
	}
	return out
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
