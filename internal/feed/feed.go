package feed

import (
	"context"
	"errors"
	"time"

	"github.com/pulseboard/pulseboard/internal/heatmap"
)

var (
	// ErrFetch covers network failures and non-2xx responses.
	ErrFetch = errors.New("feed fetch failed")
	// ErrParse covers malformed JSON or HTML payloads.
	ErrParse = errors.New("feed parse failed")
	// ErrShapeChanged means the extraction pattern matched nothing: the
	// upstream document changed its embedding convention.
	ErrShapeChanged = errors.New("feed upstream shape changed")
)

// Snapshot is the normalized output of one feed source: ascending daily
// activity plus the source's headline numbers. Synthetic snapshots carry
// placeholder data produced after an upstream failure.
type Snapshot struct {
	Source    string                `json:"source"`
	Days      []heatmap.ActivityDay `json:"days"`
	Total     int                   `json:"total"`
	Today     int                   `json:"today"`
	Synthetic bool                  `json:"synthetic"`
	FetchedAt time.Time             `json:"fetchedAt"`
}

// Source is one external activity feed. Fetch never fails: upstream errors
// degrade to the cached snapshot when one exists, else to a synthetic grid,
// so the heatmap is never empty.
type Source interface {
	Name() string
	Fetch(ctx context.Context) Snapshot
}

// Cache stores the last good snapshot per source. The agent backs it with
// sqlite; a nil cache disables the cached-degradation step.
type Cache interface {
	LoadSnapshot(source string) (*Snapshot, error)
	SaveSnapshot(snapshot Snapshot) error
}

type Logger interface {
	Printf(format string, args ...any)
}

// degrade applies the shared failure policy: cached snapshot first, then
// the supplied synthetic fallback.
func degrade(cache Cache, logger Logger, source string, cause error, fallback func() Snapshot) Snapshot {
	logf(logger, "%s feed degraded: %v", source, cause)
	if cache != nil {
		cached, err := cache.LoadSnapshot(source)
		if err != nil {
			logf(logger, "%s feed cache read failed: %v", source, err)
		} else if cached != nil {
			return *cached
		}
	}
	return fallback()
}

func saveToCache(cache Cache, logger Logger, snapshot Snapshot) {
	if cache == nil || snapshot.Synthetic {
		return
	}
	if err := cache.SaveSnapshot(snapshot); err != nil {
		logf(logger, "%s feed cache write failed: %v", snapshot.Source, err)
	}
}

func logf(logger Logger, format string, args ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, args...)
}
