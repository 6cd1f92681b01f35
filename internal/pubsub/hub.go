// Package pubsub implements an ordered listener set with isolated dispatch:
// a listener that panics is logged and skipped, the remaining listeners still
// receive the event and the publisher never sees the failure.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/logging"
)

// Listener receives published values.
type Listener[T any] func(T)

type entry[T any] struct {
	id uint64
	fn Listener[T]
}

// Hub fans values out to subscribers in subscription order.
type Hub[T any] struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners []entry[T]
	logger    logging.Logger
}

func New[T any](logger logging.Logger) *Hub[T] {
	return &Hub[T]{logger: logging.OrNop(logger)}
}

// Subscribe adds fn and returns a function that removes it. The returned
// function is safe to call more than once.
func (h *Hub[T]) Subscribe(fn Listener[T]) (func(), error) {
	if fn == nil {
		return nil, common.ErrListenerNotFunction
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, entry[T]{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}, nil
}

func (h *Hub[T]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, e := range h.listeners {
		if e.id == id {
			h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
			return
		}
	}
}

// Publish delivers v to a snapshot of the current listeners.
func (h *Hub[T]) Publish(ctx context.Context, v T) {
	h.mu.RLock()
	snapshot := make([]entry[T], len(h.listeners))
	copy(snapshot, h.listeners)
	h.mu.RUnlock()

	for _, e := range snapshot {
		h.dispatch(ctx, e.fn, v)
	}
}

func (h *Hub[T]) dispatch(ctx context.Context, fn Listener[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error(ctx, "listener failed", "panic", fmt.Sprint(r))
		}
	}()
	fn(v)
}

// Clear removes every listener.
func (h *Hub[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = nil
}

// Len is the number of subscribed listeners.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
