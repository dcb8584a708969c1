package habit

import (
	"testing"
	"time"
)

func TestToggleInsertsAndRemoves(t *testing.T) {
	store := NewStore()
	anchor := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)

	store.Toggle("Drink Water", Daily, anchor, 5)
	key := EncodeDaily("Drink Water", anchor, 5)
	if !store.Get(Daily)[key] {
		t.Fatalf("expected %q present after first toggle", key)
	}

	store.Toggle("Drink Water", Daily, anchor, 5)
	if store.Get(Daily)[key] {
		t.Fatalf("expected %q absent after second toggle", key)
	}
	if got := len(store.Get(Daily)); got != 0 {
		t.Fatalf("expected empty map after double toggle, got %d entries", got)
	}
}

func TestToggleAcceptsUnknownHabits(t *testing.T) {
	store := NewStore()
	anchor := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	store.Toggle("Not In Any Catalog", Weekly, anchor, 1)
	if !store.Get(Weekly)[EncodeWeekly("Not In Any Catalog", anchor, 1)] {
		t.Fatalf("expected unrecognized habit to be recorded")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore()
	anchor := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	store.Toggle("Laundry", Weekly, anchor, 0)

	got := store.Get(Weekly)
	for key := range got {
		delete(got, key)
	}
	if len(store.Get(Weekly)) != 1 {
		t.Fatalf("mutating the returned map leaked into the store")
	}
}

func TestReplaceAllOverwrites(t *testing.T) {
	store := NewStore()
	anchor := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	store.Toggle("Old Entry", Daily, anchor, 1)

	hydrated := Completions{
		EncodeDaily("Code 1 Hour", anchor, 2): true,
		"stale_key_should_be_kept_verbatim":   true,
	}
	store.ReplaceAll(Daily, hydrated)

	got := store.Get(Daily)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries after hydration, got %d", len(got))
	}
	if got[EncodeDaily("Old Entry", anchor, 1)] {
		t.Fatalf("expected pre-hydration entry to be overwritten")
	}
}

func TestReplaceAllDropsFalseEntries(t *testing.T) {
	store := NewStore()
	store.ReplaceAll(Monthly, Completions{"present": true, "tombstone": false})
	got := store.Get(Monthly)
	if len(got) != 1 || !got["present"] {
		t.Fatalf("expected sparse true-only map, got %v", got)
	}
}

func TestSubscribersNotifiedOnMutation(t *testing.T) {
	store := NewStore()
	anchor := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	fired := 0
	store.Subscribe(func() { fired++ })

	store.Toggle("Drink Water", Daily, anchor, 1)
	store.ReplaceAll(Weekly, Completions{})
	if fired != 2 {
		t.Fatalf("expected 2 notifications, got %d", fired)
	}
}
