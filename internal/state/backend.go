package state

import (
	"context"
	"sync"
)

// Backend is a durable key-value store.
type Backend interface {
	// Read returns the value for key; ok is false if the key does not exist.
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	// Write stores every entry in values.
	Write(ctx context.Context, values map[string]string) error
	// Close releases any held resources.
	Close() error
}

// MemoryBackend keeps values in a map. It is used for ephemeral boards and in
// tests, where FailReads/FailWrites simulate unavailable storage.
type MemoryBackend struct {
	mu         sync.Mutex
	values     map[string]string
	writes     int
	FailReads  error
	FailWrites error
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Read(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return "", false, m.FailReads
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Write(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	for k, v := range values {
		m.values[k] = v
	}
	m.writes++
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

// Set stores a raw value, bypassing the codec.
func (m *MemoryBackend) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Get returns a raw value.
func (m *MemoryBackend) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Writes returns how many successful writes have happened.
func (m *MemoryBackend) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// SetFailWrites makes subsequent writes fail with err (nil to recover).
func (m *MemoryBackend) SetFailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailWrites = err
}
