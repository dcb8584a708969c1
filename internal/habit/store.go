package habit

import (
	"sync"
	"time"
)

// Completions is a sparse resolution-scoped completion record: keys are
// composite completion keys, and only true entries are stored.
type Completions map[string]bool

// Snapshot is a full copy of all three resolution maps, the unit the sync
// writer pushes to the remote store.
type Snapshot struct {
	Daily   Completions `json:"dailyHabits"`
	Weekly  Completions `json:"weeklyHabits"`
	Monthly Completions `json:"monthlyHabits"`
}

// Store is the session-authoritative in-memory completion state. It is the
// only writer of completion records; sync and aggregation read from it.
// Toggles accept unknown habit names without validation.
type Store struct {
	mu          sync.RWMutex
	byRes       map[Resolution]Completions
	subscribers []func()
}

func NewStore() *Store {
	return &Store{
		byRes: map[Resolution]Completions{
			Daily:   {},
			Weekly:  {},
			Monthly: {},
		},
	}
}

// Subscribe registers a callback invoked after every mutation. Callbacks
// run outside the store lock, on the mutating goroutine.
func (s *Store) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Get returns a copy of one resolution's completion map.
func (s *Store) Get(resolution Resolution) Completions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCompletions(s.byRes[resolution])
}

// SnapshotAll copies all three resolution maps at once.
func (s *Store) SnapshotAll() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Daily:   copyCompletions(s.byRes[Daily]),
		Weekly:  copyCompletions(s.byRes[Weekly]),
		Monthly: copyCompletions(s.byRes[Monthly]),
	}
}

// Toggle flips membership of the derived key: present keys are removed,
// absent keys inserted. Double-toggle is the identity.
func (s *Store) Toggle(habitName string, resolution Resolution, anchor time.Time, period int) {
	key := Encode(habitName, resolution, anchor, period)
	s.mu.Lock()
	m := s.byRes[resolution]
	if m == nil {
		m = Completions{}
		s.byRes[resolution] = m
	}
	if m[key] {
		delete(m, key)
	} else {
		m[key] = true
	}
	subs := s.snapshotSubscribers()
	s.mu.Unlock()
	notify(subs)
}

// ReplaceAll bulk-overwrites one resolution's map. Used only by the sync
// engine's hydration step.
func (s *Store) ReplaceAll(resolution Resolution, m Completions) {
	s.mu.Lock()
	s.byRes[resolution] = copyCompletions(m)
	subs := s.snapshotSubscribers()
	s.mu.Unlock()
	notify(subs)
}

func (s *Store) snapshotSubscribers() []func() {
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	return subs
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}

func copyCompletions(m Completions) Completions {
	out := make(Completions, len(m))
	for key, done := range m {
		if done {
			out[key] = true
		}
	}
	return out
}
