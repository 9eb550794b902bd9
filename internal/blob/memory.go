// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package blob

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and dev mode.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

// Put stores a copy of data under key.
func (m *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: cp, ContentType: contentType, Size: int64(len(cp))}
	return nil
}

// Get returns the object stored under key, or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, key string) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(obj.Data))
	copy(cp, obj.Data)
	return &Object{Data: cp, ContentType: obj.ContentType, Size: obj.Size}, nil
}
