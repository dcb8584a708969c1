// Package habitstore is the server side of habit synchronization: per-user
// habit completion snapshots with pluggable durable backends. Clients always
// push their full snapshot, and the newest push wins.
package habitstore

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/pulseboard/pulseboard/internal/habit"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotImplemented = errors.New("not implemented")
)

// persistedState is the full durable snapshot handed to a StateBackend.
type persistedState struct {
	Users     map[string]habit.Snapshot `json:"users"`
	UpdatedAt map[string]time.Time      `json:"updatedAt,omitempty"`
}

// StateBackend persists the store across restarts. Load returns nil state
// when nothing has been saved yet.
type StateBackend interface {
	Load() (*persistedState, error)
	Save(state *persistedState) error
}

type stateBackendCloser interface {
	Close() error
}

type Logger interface {
	Printf(format string, args ...any)
}

type StoreOptions struct {
	StateFile    string
	StateBackend StateBackend
	Logger       Logger
}

// Store holds every user's habit snapshot in memory and mirrors each write
// through the state backend.
type Store struct {
	mu           sync.RWMutex
	users        map[string]habit.Snapshot
	updatedAt    map[string]time.Time
	stateBackend StateBackend
	logger       Logger
	now          func() time.Time
	closeOnce    sync.Once
}

func NewStore() *Store {
	return NewStoreWithOptions(StoreOptions{})
}

func NewStoreWithOptions(opts StoreOptions) *Store {
	stateBackend := opts.StateBackend
	if stateBackend == nil && strings.TrimSpace(opts.StateFile) != "" {
		stateBackend = NewJSONFileStateBackend(opts.StateFile)
	}
	s := &Store{
		users:        map[string]habit.Snapshot{},
		updatedAt:    map[string]time.Time{},
		stateBackend: stateBackend,
		logger:       opts.Logger,
		now:          time.Now,
	}
	if err := s.loadFromBackend(); err != nil {
		s.logf("state load failed, starting empty: %v", err)
	}
	return s
}

func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if closer, ok := s.stateBackend.(stateBackendCloser); ok && closer != nil {
			_ = closer.Close()
		}
	})
}

// Get returns the user's snapshot. Unknown users get an empty snapshot so a
// fresh installation hydrates cleanly instead of erroring.
func (s *Store) Get(userID string) (habit.Snapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return habit.Snapshot{}, ErrInvalidInput
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.users[userID]
	if !ok {
		return emptySnapshot(), nil
	}
	return cloneSnapshot(snapshot), nil
}

// Replace swaps the user's entire snapshot for the pushed one. There is no
// merge step: concurrent writers race and the last full push wins.
func (s *Store) Replace(userID string, snapshot habit.Snapshot) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[userID] = cloneSnapshot(snapshot)
	s.updatedAt[userID] = s.now().UTC()
	return s.saveLocked()
}

// UserCount reports how many users have ever pushed a snapshot.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// UpdatedAt returns when the user last pushed, or the zero time for users
// that never have.
func (s *Store) UpdatedAt(userID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt[userID]
}

func (s *Store) loadFromBackend() error {
	if s.stateBackend == nil {
		return nil
	}
	state, err := s.stateBackend.Load()
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	for userID, snapshot := range state.Users {
		if strings.TrimSpace(userID) == "" {
			continue
		}
		s.users[userID] = cloneSnapshot(snapshot)
	}
	for userID, at := range state.UpdatedAt {
		if _, ok := s.users[userID]; ok {
			s.updatedAt[userID] = at
		}
	}
	return nil
}

func (s *Store) saveLocked() error {
	if s.stateBackend == nil {
		return nil
	}
	state := &persistedState{
		Users:     make(map[string]habit.Snapshot, len(s.users)),
		UpdatedAt: make(map[string]time.Time, len(s.updatedAt)),
	}
	for userID, snapshot := range s.users {
		state.Users[userID] = cloneSnapshot(snapshot)
	}
	for userID, at := range s.updatedAt {
		state.UpdatedAt[userID] = at
	}
	if err := s.stateBackend.Save(state); err != nil {
		s.logf("state save failed: %v", err)
		return err
	}
	return nil
}

func (s *Store) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}

func emptySnapshot() habit.Snapshot {
	return habit.Snapshot{
		Daily:   habit.Completions{},
		Weekly:  habit.Completions{},
		Monthly: habit.Completions{},
	}
}

// cloneSnapshot deep-copies a snapshot, dropping false entries so toggled-off
// keys never accumulate in storage.
func cloneSnapshot(snapshot habit.Snapshot) habit.Snapshot {
	return habit.Snapshot{
		Daily:   cloneCompletions(snapshot.Daily),
		Weekly:  cloneCompletions(snapshot.Weekly),
		Monthly: cloneCompletions(snapshot.Monthly),
	}
}

func cloneCompletions(completions habit.Completions) habit.Completions {
	out := habit.Completions{}
	for key, done := range completions {
		if !done {
			continue
		}
		out[key] = true
	}
	return out
}
