// Package appstate holds the two session-wide UI flags: the output mode and
// the current view. A State is constructed explicitly and handed to whoever
// needs it; there is no package-level instance.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrijs2005/avifconv/internal/logging"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/dmitrijs2005/avifconv/internal/pubsub"
)

type Key string

const (
	KeyMode        Key = "mode"
	KeyCurrentView Key = "currentView"
)

const (
	ModeJPG = "jpg"
	ModePNG = "png"

	ViewUpload   = "upload"
	ViewDownload = "download"
)

var (
	ErrUnknownKey   = errors.New("unknown state key")
	ErrInvalidValue = errors.New("invalid state value")
)

// keys fixes notification order for multi-key updates.
var keys = []Key{KeyMode, KeyCurrentView}

var allowed = map[Key][]string{
	KeyMode:        {ModeJPG, ModePNG},
	KeyCurrentView: {ViewUpload, ViewDownload},
}

func defaults() map[Key]string {
	return map[Key]string{KeyMode: ModeJPG, KeyCurrentView: ViewUpload}
}

// Change is delivered to subscribers of Key.
type Change struct {
	Key   Key
	Value string
	Old   string
}

type State struct {
	mu     sync.Mutex
	values map[Key]string
	hubs   map[Key]*pubsub.Hub[Change]
	logger logging.Logger
}

// New returns a State holding the defaults overridden by initial.
func New(l logging.Logger, initial map[Key]string) (*State, error) {
	if err := validate(initial); err != nil {
		return nil, err
	}
	l = logging.OrNop(l).With("module", "appstate")

	s := &State{
		values: defaults(),
		hubs:   make(map[Key]*pubsub.Hub[Change], len(keys)),
		logger: l,
	}
	maps.Copy(s.values, initial)
	for _, k := range keys {
		s.hubs[k] = pubsub.New[Change](l)
	}
	return s, nil
}

func validate(updates map[Key]string) error {
	for k, v := range updates {
		vals, ok := allowed[k]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownKey, k)
		}
		if !slices.Contains(vals, v) {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, k, v)
		}
	}
	return nil
}

func (s *State) Get(k Key) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[k]
}

// Format maps the current mode to an output format.
func (s *State) Format() models.Format {
	f, ok := models.ParseFormat(s.Get(KeyMode))
	if !ok {
		return models.FormatJPEG
	}
	return f
}

// All returns a copy of every value.
func (s *State) All() map[Key]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values)
}

// Set changes one value. Subscribers of k are notified only when the value
// actually changes.
func (s *State) Set(ctx context.Context, k Key, v string) error {
	return s.SetMany(ctx, map[Key]string{k: v})
}

// SetMany applies every update, then notifies each changed key. Nothing is
// applied when any update is invalid.
func (s *State) SetMany(ctx context.Context, updates map[Key]string) error {
	if err := validate(updates); err != nil {
		return err
	}

	s.mu.Lock()
	var changes []Change
	for _, k := range keys {
		v, ok := updates[k]
		if !ok || s.values[k] == v {
			continue
		}
		changes = append(changes, Change{Key: k, Value: v, Old: s.values[k]})
		s.values[k] = v
	}
	s.mu.Unlock()

	s.notify(ctx, changes)
	return nil
}

// Reset restores the defaults overridden by overrides and notifies every key
// whose value moved.
func (s *State) Reset(ctx context.Context, overrides map[Key]string) error {
	if err := validate(overrides); err != nil {
		return err
	}
	next := defaults()
	maps.Copy(next, overrides)

	s.mu.Lock()
	var changes []Change
	for _, k := range keys {
		if s.values[k] != next[k] {
			changes = append(changes, Change{Key: k, Value: next[k], Old: s.values[k]})
		}
	}
	s.values = next
	s.mu.Unlock()

	s.notify(ctx, changes)
	return nil
}

func (s *State) notify(ctx context.Context, changes []Change) {
	for _, c := range changes {
		s.logger.Debug(ctx, "state changed", "key", c.Key, "value", c.Value, "old", c.Old)
		s.hubs[c.Key].Publish(ctx, c)
	}
}

// Subscribe registers fn for changes of k.
func (s *State) Subscribe(k Key, fn func(Change)) (func(), error) {
	h, ok := s.hubs[k]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, k)
	}
	return h.Subscribe(fn)
}

// SubscribeAll registers fn for changes of every key.
func (s *State) SubscribeAll(fn func(Change)) (func(), error) {
	unsubs := make([]func(), 0, len(keys))
	for _, k := range keys {
		u, err := s.Subscribe(k, fn)
		if err != nil {
			for _, prev := range unsubs {
				prev()
			}
			return nil, err
		}
		unsubs = append(unsubs, u)
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}, nil
}

// Destroy drops every listener and every value.
func (s *State) Destroy() {
	for _, h := range s.hubs {
		h.Clear()
	}
	s.mu.Lock()
	s.values = map[Key]string{}
	s.mu.Unlock()
}
