// Package storage archives generated documents in object storage.
package storage

import (
	"context"
	"sync"
)

// DocumentStore keeps generated documents under a key such as quotes/QR-000001.pdf
type DocumentStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// NullStore discards documents. Used when no object storage is configured.
type NullStore struct{}

func (NullStore) Put(context.Context, string, []byte, string) error { return nil }

func (NullStore) Get(context.Context, string) ([]byte, error) { return nil, ErrNotFound }

func (NullStore) Exists(context.Context, string) (bool, error) { return false, nil }

// MemoryStore keeps documents in memory. Used by the CLI and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[key]
	return ok, nil
}
