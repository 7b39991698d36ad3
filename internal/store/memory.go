package store

import (
	"context"
	"sync"
)

// MemoryBackend is a development-only in-memory Backend.
// WARNING: not suitable for production — state is lost on restart.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string]Document)}
}

func (m *MemoryBackend) Save(_ context.Context, userID string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[userID] = doc
	return nil
}

func (m *MemoryBackend) Load(_ context.Context, userID string) (Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[userID]
	return doc, ok, nil
}
