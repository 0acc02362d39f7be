package draft

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStore keeps drafts in process memory. It counts clears so tests
// can assert clear-once behavior.
type MemoryStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	saves  int
	clears int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = bytes.Clone(blob)
	m.saves++
	return nil
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(blob), nil
}

func (m *MemoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	m.clears++
	return nil
}

// Saves returns how many saves reached the store.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Clears returns how many clears reached the store.
func (m *MemoryStore) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}
