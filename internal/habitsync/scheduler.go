package habitsync

import "time"

// Timer is the subset of time.Timer the engine needs.
type Timer interface {
	Reset(d time.Duration) bool
	Stop() bool
}

// Scheduler abstracts timer creation so tests can drive the debounce clock
// by hand instead of sleeping.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// NewScheduler returns the wall-clock scheduler.
func NewScheduler() Scheduler {
	return realScheduler{}
}
