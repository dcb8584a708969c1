package profile

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pulseboard/pulseboard/internal/feed"
	"github.com/pulseboard/pulseboard/internal/heatmap"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestUserIDStableAcrossReopen(t *testing.T) {
	store, path := openTestStore(t)

	first, err := store.UserID()
	if err != nil {
		t.Fatalf("mint user id: %v", err)
	}
	if !strings.HasPrefix(first, "user_") {
		t.Fatalf("expected user_ prefix, got %q", first)
	}

	again, err := store.UserID()
	if err != nil {
		t.Fatalf("reread user id: %v", err)
	}
	if again != first {
		t.Fatalf("user id changed within one session: %q vs %q", again, first)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	persisted, err := reopened.UserID()
	if err != nil {
		t.Fatalf("read persisted id: %v", err)
	}
	if persisted != first {
		t.Fatalf("user id changed across reopen: %q vs %q", persisted, first)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)

	if cached, err := store.LoadSnapshot("contributions"); err != nil || cached != nil {
		t.Fatalf("expected empty cache, got %+v err=%v", cached, err)
	}

	snapshot := feed.Snapshot{
		Source: "contributions",
		Days: []heatmap.ActivityDay{
			{Date: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), Count: 3, Level: 2},
		},
		Total:     41,
		Today:     3,
		FetchedAt: time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.SaveSnapshot(snapshot); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	cached, err := store.LoadSnapshot("contributions")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if cached == nil {
		t.Fatalf("expected cached snapshot")
	}
	if cached.Total != 41 || cached.Today != 3 || len(cached.Days) != 1 {
		t.Fatalf("snapshot mutated in cache: %+v", cached)
	}
	if cached.Days[0].Count != 3 || cached.Days[0].Level != 2 {
		t.Fatalf("day mutated in cache: %+v", cached.Days[0])
	}
}

func TestSaveSnapshotUpserts(t *testing.T) {
	store, _ := openTestStore(t)

	first := feed.Snapshot{Source: "typing", Total: 10}
	second := feed.Snapshot{Source: "typing", Total: 25}
	if err := store.SaveSnapshot(first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.SaveSnapshot(second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	cached, err := store.LoadSnapshot("typing")
	if err != nil || cached == nil {
		t.Fatalf("load snapshot: %+v err=%v", cached, err)
	}
	if cached.Total != 25 {
		t.Fatalf("expected newest snapshot to win, got total %d", cached.Total)
	}
}

func TestSaveSnapshotRejectsMissingSource(t *testing.T) {
	store, _ := openTestStore(t)
	if err := store.SaveSnapshot(feed.Snapshot{}); err == nil {
		t.Fatalf("expected error for snapshot without source")
	}
}
