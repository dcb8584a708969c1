package habitsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pulseboard/pulseboard/internal/habit"
)

var (
	// ErrClosed is returned for toggles that arrive after teardown.
	ErrClosed = errors.New("sync engine closed")

	// ErrPersist wraps a failed snapshot push.
	ErrPersist = errors.New("habit snapshot push failed")
)

type Phase string

const (
	PhaseLoading  Phase = "loading"
	PhaseHydrated Phase = "hydrated"
)

const (
	DefaultDebounce          = time.Second
	DefaultRehydrateInterval = 5 * time.Minute
	DefaultHydrateRetryDelay = 15 * time.Second
	defaultPushTimeout       = 10 * time.Second
)

type Logger interface {
	Printf(format string, args ...any)
}

type EngineOptions struct {
	UserID            string
	Debounce          time.Duration
	RehydrateInterval time.Duration
	HydrateRetryDelay time.Duration
	PushTimeout       time.Duration
	Scheduler         Scheduler
	Logger            Logger
}

// Engine owns the store's remote lifecycle. It starts in PhaseLoading,
// moves to PhaseHydrated after the first successful fetch, and from then on
// every local mutation schedules a trailing debounced push of the full
// snapshot. Pushes carry no revision: the remote keeps whichever full
// snapshot arrives last.
type Engine struct {
	client         RemoteClient
	store          *habit.Store
	userID         string
	logger         Logger
	debounce       time.Duration
	rehydrateEvery time.Duration
	retryDelay     time.Duration
	pushTimeout    time.Duration
	scheduler      Scheduler

	mu          sync.Mutex
	phase       Phase
	timer       Timer
	pendingPush bool
	hydrating   bool
	closed      bool
	lastPushErr error

	closeOnce sync.Once
}

func NewEngine(client RemoteClient, store *habit.Store, opts EngineOptions) (*Engine, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	userID := strings.TrimSpace(opts.UserID)
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	rehydrateEvery := opts.RehydrateInterval
	if rehydrateEvery <= 0 {
		rehydrateEvery = DefaultRehydrateInterval
	}
	retryDelay := opts.HydrateRetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultHydrateRetryDelay
	}
	pushTimeout := opts.PushTimeout
	if pushTimeout <= 0 {
		pushTimeout = defaultPushTimeout
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = NewScheduler()
	}
	e := &Engine{
		client:         client,
		store:          store,
		userID:         userID,
		logger:         opts.Logger,
		debounce:       debounce,
		rehydrateEvery: rehydrateEvery,
		retryDelay:     retryDelay,
		pushTimeout:    pushTimeout,
		scheduler:      scheduler,
		phase:          PhaseLoading,
	}
	store.Subscribe(e.onStoreChange)
	return e, nil
}

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine) Ready() bool {
	return e.Phase() == PhaseHydrated
}

// LastPushError reports the outcome of the most recent push attempt.
func (e *Engine) LastPushError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPushErr
}

// Toggle applies a local toggle. Toggles are accepted even while the first
// fetch is in flight: the debounced write stays suppressed until hydration,
// so early clicks mutate local state only and the hydration overwrite wins.
func (e *Engine) Toggle(habitName string, resolution habit.Resolution, anchor time.Time, period int) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}
	e.store.Toggle(habitName, resolution, anchor, period)
	return nil
}

// Hydrate fetches the remote snapshot and makes it the local state. The
// store notifications fired by the overwrite are suppressed so hydration
// never schedules a push of data the remote just sent.
func (e *Engine) Hydrate(ctx context.Context) error {
	snapshot, err := e.client.FetchHabits(ctx, e.userID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.hydrating = true
	e.mu.Unlock()

	e.store.ReplaceAll(habit.Daily, snapshot.Daily)
	e.store.ReplaceAll(habit.Weekly, snapshot.Weekly)
	e.store.ReplaceAll(habit.Monthly, snapshot.Monthly)

	e.mu.Lock()
	e.hydrating = false
	e.phase = PhaseHydrated
	e.mu.Unlock()
	return nil
}

// Run hydrates, retrying until the store answers, then keeps the local
// state fresh on the rehydration cadence. Later responses win with no
// sequencing: a refetch may overwrite toggles that have not been pushed
// yet.
func (e *Engine) Run(ctx context.Context) {
	for {
		err := e.Hydrate(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		e.logf("hydration failed, retrying in %s: %v", e.retryDelay, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(e.retryDelay):
		}
	}

	ticker := time.NewTicker(e.rehydrateEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			closed := e.closed
			e.mu.Unlock()
			if closed {
				return
			}
			if err := e.Hydrate(ctx); err != nil {
				e.logf("rehydration failed: %v", err)
			}
		}
	}
}

// Close cancels the debounce timer; a pending push is dropped with it. The
// next mutation's debounce cycle is the only write path, so teardown never
// writes.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.pendingPush = false
		if e.timer != nil {
			e.timer.Stop()
		}
		e.mu.Unlock()
	})
}

// onStoreChange arms or re-arms the trailing debounce timer. A burst of
// toggles collapses into one push sent a quiet interval after the last one.
func (e *Engine) onStoreChange() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.hydrating || e.phase != PhaseHydrated {
		return
	}
	e.pendingPush = true
	if e.timer == nil {
		e.timer = e.scheduler.AfterFunc(e.debounce, e.flush)
	} else {
		e.timer.Reset(e.debounce)
	}
}

func (e *Engine) flush() {
	e.mu.Lock()
	if e.closed || !e.pendingPush {
		e.mu.Unlock()
		return
	}
	e.pendingPush = false
	e.mu.Unlock()
	e.push()
}

func (e *Engine) push() {
	snapshot := e.store.SnapshotAll()
	ctx, cancel := context.WithTimeout(context.Background(), e.pushTimeout)
	defer cancel()
	err := e.client.PushHabits(ctx, e.userID, snapshot)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrPersist, err)
	}
	e.mu.Lock()
	e.lastPushErr = err
	e.mu.Unlock()
	if err != nil {
		e.logf("push failed, next change will retry: %v", err)
	}
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Printf(format, args...)
}
