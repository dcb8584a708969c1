package board

import (
	"context"
	"sync"
	"time"

	"github.com/pulseboard/pulseboard/internal/feed"
)

const (
	// Contribution graphs change at most a few times an hour; typing stats
	// far less often. The cadences keep the upstreams polite.
	DefaultContributionInterval = 10 * time.Minute
	DefaultTypingInterval       = 30 * time.Minute
)

// FeedState holds the latest snapshot per feed source.
type FeedState struct {
	mu        sync.RWMutex
	snapshots map[string]feed.Snapshot
}

func NewFeedState() *FeedState {
	return &FeedState{snapshots: map[string]feed.Snapshot{}}
}

func (f *FeedState) Set(snapshot feed.Snapshot) {
	if snapshot.Source == "" {
		return
	}
	f.mu.Lock()
	f.snapshots[snapshot.Source] = snapshot
	f.mu.Unlock()
}

func (f *FeedState) Get(source string) (feed.Snapshot, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	snapshot, ok := f.snapshots[source]
	return snapshot, ok
}

func (f *FeedState) All() []feed.Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]feed.Snapshot, 0, len(f.snapshots))
	for _, snapshot := range f.snapshots {
		out = append(out, snapshot)
	}
	return out
}

// Poller refreshes one feed source on a fixed cadence. Fetch itself never
// fails (sources degrade internally), so every cycle yields a snapshot.
type Poller struct {
	source   feed.Source
	interval time.Duration
	onUpdate func(feed.Snapshot)
}

func NewPoller(source feed.Source, interval time.Duration, onUpdate func(feed.Snapshot)) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval(source)
	}
	return &Poller{source: source, interval: interval, onUpdate: onUpdate}
}

func defaultPollInterval(source feed.Source) time.Duration {
	if source != nil && source.Name() == feed.TypingSourceName {
		return DefaultTypingInterval
	}
	return DefaultContributionInterval
}

// Run fetches once immediately, then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.refresh(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	snapshot := p.source.Fetch(ctx)
	if p.onUpdate != nil {
		p.onUpdate(snapshot)
	}
}
