// Package models holds the data types shared by the upload queue, the
// converter, the conversion manager and the download service.
package models

import (
	"sync"
	"time"
)

// File is a user-selected input file held in memory.
type File struct {
	Name    string
	Type    string // declared MIME type, may be empty
	Data    []byte
	ModTime time.Time
}

// Size returns the byte size of the file, zero for nil.
func (f *File) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.Data))
}

// Blob is an owned byte payload with a MIME type.
//
// Release drops the payload; it takes effect exactly once and further calls
// are no-ops.
type Blob struct {
	Data []byte
	Type string

	mu       sync.Mutex
	released bool
}

// NewBlob wraps data.
func NewBlob(data []byte, mimeType string) *Blob {
	return &Blob{Data: data, Type: mimeType}
}

// Size returns the payload length, zero for nil or released blobs.
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.Data))
}

// Bytes returns the payload, nil once released.
func (b *Blob) Bytes() []byte {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Data
}

// Release drops the payload. It reports whether this call released it.
func (b *Blob) Release() bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return false
	}
	b.released = true
	b.Data = nil
	return true
}

// Released reports whether Release has been called.
func (b *Blob) Released() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}
