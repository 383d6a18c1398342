package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-memory Store keyed by href. It is safe for concurrent
// use and handy for tests and for staging a tree before publishing it.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

// Get returns the document stored at href, or [ErrNotFound].
func (m *Memory) Get(_ context.Context, href string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[href]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", href, ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores data at href, overwriting any previous document.
func (m *Memory) Put(_ context.Context, href string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.docs[href] = stored
	return nil
}

// Delete removes the document at href. Missing documents surface as
// [ErrNotFound].
func (m *Memory) Delete(_ context.Context, href string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[href]; !ok {
		return fmt.Errorf("delete %s: %w", href, ErrNotFound)
	}
	delete(m.docs, href)
	return nil
}

// Hrefs returns the stored hrefs in sorted order.
func (m *Memory) Hrefs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.docs))
	for h := range m.docs {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
