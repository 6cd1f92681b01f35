// Package handles maps byte blobs to short-lived, revocable string handles.
//
// A handle plays the role of an object URL: it lets a thumbnail renderer or a
// save routine refer to bytes without copying them. Each handle belongs to
// exactly one owner and is revoked once; revoking twice is a no-op.
package handles

import (
	"sync"

	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/google/uuid"
)

const scheme = "blob:"

type Registry struct {
	mu      sync.RWMutex
	entries map[string]*models.Blob
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*models.Blob)}
}

// Create registers b under a fresh handle.
func (r *Registry) Create(b *models.Blob) string {
	h := scheme + uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[h] = b
	return h
}

// Resolve returns the blob behind a live handle.
func (r *Registry) Resolve(h string) (*models.Blob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.entries[h]
	return b, ok
}

// Revoke invalidates h. It reports whether the handle was live.
func (r *Registry) Revoke(h string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[h]; !ok {
		return false
	}
	delete(r.entries, h)
	return true
}

// Len is the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
