package store

import (
	"context"
	"sync"
)

// MemKV is an in-memory KV, used in tests and as a throwaway backend when no
// database path is configured.
type MemKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemKV returns an empty in-memory store.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set overwrites the value stored under key.
func (m *MemKV) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Ping always succeeds.
func (m *MemKV) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (m *MemKV) Close() error { return nil }
