// Package fields keeps the last known value of every field and notifies
// per-key observers when a value changes.
package fields

import (
	"maps"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/autopeer-io/carbridge/internal/bridge/payload"
	"github.com/autopeer-io/carbridge/internal/pkg/broadcast"
)

// Update is one changed field.
type Update struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Store is a last-known-value store. A nil value or an absent key never
// overwrites a known value.
type Store struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	values    map[string]any
	observers map[string]*broadcast.Broadcaster[any]
	all       *broadcast.Broadcaster[Update]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		values:    map[string]any{},
		observers: map[string]*broadcast.Broadcaster[any]{},
		all:       broadcast.New[Update](),
	}
}

// Apply merges the non-nil values of rec and returns the keys whose value
// changed, in lexical order.
func (s *Store) Apply(rec payload.Record) []string {
	s.mu.Lock()

	var changed []Update
	for _, key := range rec.Keys() {
		if s.setLocked(key, rec[key]) {
			changed = append(changed, Update{Key: key, Value: rec[key]})
		}
	}

	s.notify(changed)

	keys := make([]string, len(changed))
	for i, u := range changed {
		keys[i] = u.Key
	}
	return keys
}

// Set stores a single value and reports whether it changed.
func (s *Store) Set(key string, value any) bool {
	s.mu.Lock()

	var changed []Update
	if s.setLocked(key, value) {
		changed = append(changed, Update{Key: key, Value: value})
	}

	s.notify(changed)
	return len(changed) > 0
}

func (s *Store) setLocked(key string, value any) bool {
	if value == nil {
		return false
	}
	if old, ok := s.values[key]; ok && equal(old, value) {
		return false
	}
	s.values[key] = value
	return true
}

// notify releases s.mu and delivers changed to observers in order.
func (s *Store) notify(changed []Update) {
	if len(changed) == 0 {
		s.mu.Unlock()
		return
	}

	targets := make([]*broadcast.Broadcaster[any], len(changed))
	for i, u := range changed {
		targets[i] = s.observers[u.Key]
	}

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for i, u := range changed {
		if targets[i] != nil {
			targets[i].Publish(u.Value)
		}
		s.all.Publish(u)
	}
}

// Get returns the last known value of key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Observe registers fn for changes of key. fn is not called for the current
// value.
func (s *Store) Observe(key string, fn func(value any)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.observers[key]
	if !ok {
		b = broadcast.New[any]()
		s.observers[key] = b
	}
	return b.Register(fn)
}

// Subscribe returns a buffered channel of every change.
func (s *Store) Subscribe(buffer int) (<-chan Update, func()) {
	return s.all.Subscribe(buffer)
}

// Snapshot returns a copy of every known value.
func (s *Store) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values)
}

// Keys returns the known keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.values))
}

func equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}
