// Package queue owns the ordered upload queue: it accepts AVIF files, gives
// each one a stable id and a display handle, and announces changes to
// subscribers. It knows nothing about conversion.
package queue

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/avifconv/internal/converter"
	"github.com/dmitrijs2005/avifconv/internal/handles"
	"github.com/dmitrijs2005/avifconv/internal/logging"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/dmitrijs2005/avifconv/internal/pubsub"
	"github.com/google/uuid"
)

type EventName string

const (
	EventItemsAdded  EventName = "itemsAdded"
	EventItemRemoved EventName = "itemRemoved"
	EventAllCleared  EventName = "allCleared"
)

// Event is delivered to subscribers. Items is set for itemsAdded, ID and
// Index for itemRemoved.
type Event struct {
	Name  EventName
	Items []models.QueueItem
	ID    string
	Index int
}

type Manager struct {
	mu      sync.Mutex
	items   []models.QueueItem
	handles *handles.Registry
	hub     *pubsub.Hub[Event]
	logger  logging.Logger

	newID func() string
	// later runs cleanup off the caller's path.
	later func(func())
}

func NewManager(h *handles.Registry, l logging.Logger) *Manager {
	if h == nil {
		h = handles.NewRegistry()
	}
	l = logging.OrNop(l).With("module", "queue")
	return &Manager{
		handles: h,
		hub:     pubsub.New[Event](l),
		logger:  l,
		newID:   uuid.NewString,
		later:   func(f func()) { go f() },
	}
}

// AddFiles appends every AVIF file in files and silently drops the rest.
// One itemsAdded event carries the accepted batch; nothing is published when
// no file was accepted. The accepted items are returned.
func (m *Manager) AddFiles(ctx context.Context, files []*models.File) []models.QueueItem {
	added := make([]models.QueueItem, 0, len(files))

	m.mu.Lock()
	for _, f := range files {
		if !converter.IsAvifFile(f) {
			continue
		}
		item := models.QueueItem{
			ID:            m.newID(),
			File:          f,
			Name:          f.Name,
			Size:          f.Size(),
			DisplayHandle: m.handles.Create(models.NewBlob(f.Data, f.Type)),
		}
		m.items = append(m.items, item)
		added = append(added, item)
	}
	m.mu.Unlock()

	if len(added) == 0 {
		return nil
	}

	m.logger.Debug(ctx, "files queued", "accepted", len(added), "offered", len(files))
	m.hub.Publish(ctx, Event{Name: EventItemsAdded, Items: cloneItems(added)})
	return added
}

// RemoveItem drops one item and revokes its display handle. Unknown ids are
// ignored.
func (m *Manager) RemoveItem(ctx context.Context, id string) {
	m.mu.Lock()
	index := -1
	for i, it := range m.items {
		if it.ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		m.mu.Unlock()
		return
	}
	item := m.items[index]
	m.items = append(m.items[:index:index], m.items[index+1:]...)
	m.mu.Unlock()

	m.handles.Revoke(item.DisplayHandle)
	m.hub.Publish(ctx, Event{Name: EventItemRemoved, ID: id, Index: index})
}

// ClearAll empties the queue and publishes allCleared right away. Display
// handles are revoked afterwards so the caller is not held up by cleanup.
func (m *Manager) ClearAll(ctx context.Context) {
	m.mu.Lock()
	old := m.items
	m.items = nil
	m.mu.Unlock()

	m.hub.Publish(ctx, Event{Name: EventAllCleared, Items: []models.QueueItem{}})

	if len(old) == 0 {
		return
	}
	m.later(func() {
		for _, it := range old {
			m.handles.Revoke(it.DisplayHandle)
		}
		m.logger.Debug(ctx, "display handles released", "count", len(old))
	})
}

// Items returns a snapshot of the queue in insertion order.
func (m *Manager) Items() []models.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneItems(m.items)
}

// Get looks an item up by id.
func (m *Manager) Get(id string) (models.QueueItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.QueueItem{}, false
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Subscribe registers fn for queue events.
func (m *Manager) Subscribe(fn func(Event)) (func(), error) {
	return m.hub.Subscribe(fn)
}

// Destroy clears the queue and drops every listener.
func (m *Manager) Destroy(ctx context.Context) {
	m.ClearAll(ctx)
	m.hub.Clear()
}

func cloneItems(items []models.QueueItem) []models.QueueItem {
	out := make([]models.QueueItem, len(items))
	copy(out, items)
	return out
}
