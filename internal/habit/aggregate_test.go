package habit

import (
	"testing"
	"time"
)

func TestPercentage(t *testing.T) {
	cases := []struct {
		completed, possible, want int
	}{
		{3, 5, 60},
		{0, 0, 0},
		{5, 5, 100},
		{1, 3, 33},
		{2, 3, 67},
		{3, 60, 5},
	}
	for _, tc := range cases {
		if got := Percentage(tc.completed, tc.possible); got != tc.want {
			t.Fatalf("Percentage(%d, %d) = %d, expected %d", tc.completed, tc.possible, tc.want, got)
		}
	}
}

func TestTotalCompletedScopedToMonth(t *testing.T) {
	store := NewStore()
	catalog := Catalog{Daily: []string{"A", "B"}}
	agg := NewAggregator(store, catalog)

	// April 2025 has 30 days.
	anchor := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)
	store.Toggle("A", Daily, anchor, 1)
	store.Toggle("A", Daily, anchor, 2)
	store.Toggle("B", Daily, anchor, 1)

	// Entries from another month must not count.
	prior := anchor.AddDate(0, -1, 0)
	store.Toggle("A", Daily, prior, 1)
	store.Toggle("B", Daily, prior, 9)

	if got := agg.TotalCompleted(Daily, anchor); got != 3 {
		t.Fatalf("expected 3 completed this month, got %d", got)
	}
	if got := agg.MonthlyProgressPercent(anchor); got != 5 {
		t.Fatalf("expected 5%% monthly progress (3/60), got %d", got)
	}
}

func TestTotalCompletedBoundsWeeklySlots(t *testing.T) {
	store := NewStore()
	catalog := Catalog{Weekly: []string{"Laundry"}}
	agg := NewAggregator(store, catalog)
	anchor := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)

	// Hydrated state may carry slots outside W0..W3; they must not count.
	store.ReplaceAll(Weekly, Completions{
		"Laundry_2025_3_W0": true,
		"Laundry_2025_3_W3": true,
		"Laundry_2025_3_W4": true,
		"Laundry_2025_3_W9": true,
	})

	if got := agg.TotalCompleted(Weekly, anchor); got != 2 {
		t.Fatalf("expected 2 in-slot completions, got %d", got)
	}
	if got := agg.WeeklyProgressPercent(anchor); got != 50 {
		t.Fatalf("expected 50%% weekly progress (2/4), got %d", got)
	}
}

func TestTotalCompletedIgnoresUndecodableKeys(t *testing.T) {
	store := NewStore()
	store.ReplaceAll(Daily, Completions{"garbage": true})
	agg := NewAggregator(store, DefaultCatalog())
	anchor := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)
	if got := agg.TotalCompleted(Daily, anchor); got != 0 {
		t.Fatalf("expected undecodable keys ignored, got %d", got)
	}
}

func TestDailySeries(t *testing.T) {
	store := NewStore()
	catalog := Catalog{Daily: []string{"A", "B"}}
	agg := NewAggregator(store, catalog)
	anchor := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)

	store.Toggle("A", Daily, anchor, 1)
	store.Toggle("B", Daily, anchor, 1)
	store.Toggle("A", Daily, anchor, 17)

	series := agg.DailySeries(anchor)
	if len(series) != 30 {
		t.Fatalf("expected 30 series points for April, got %d", len(series))
	}
	if series[0].Day != 1 || series[0].Completed != 2 {
		t.Fatalf("expected day 1 completed=2, got %+v", series[0])
	}
	if series[16].Day != 17 || series[16].Completed != 1 {
		t.Fatalf("expected day 17 completed=1, got %+v", series[16])
	}
	if series[29].Completed != 0 {
		t.Fatalf("expected day 30 completed=0, got %+v", series[29])
	}
}

func TestWeeklyAndMonthlyPercents(t *testing.T) {
	store := NewStore()
	catalog := Catalog{
		Weekly:  []string{"Laundry", "Plan the Week"},
		Monthly: []string{"Pay Bills", "Review Goals", "Deep Clean", "Backup Files"},
	}
	agg := NewAggregator(store, catalog)
	anchor := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)

	store.Toggle("Laundry", Weekly, anchor, 0)
	store.Toggle("Laundry", Weekly, anchor, 1)
	// 2 of 2x4 slots.
	if got := agg.WeeklyProgressPercent(anchor); got != 25 {
		t.Fatalf("expected 25%% weekly, got %d", got)
	}

	store.Toggle("Pay Bills", Monthly, anchor, 0)
	if got := agg.MonthlyChecklistPercent(anchor); got != 25 {
		t.Fatalf("expected 25%% monthly checklist, got %d", got)
	}
}

func TestHabitRowTotals(t *testing.T) {
	store := NewStore()
	catalog := Catalog{Daily: []string{"A", "B"}}
	agg := NewAggregator(store, catalog)
	anchor := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)

	store.Toggle("A", Daily, anchor, 1)
	store.Toggle("A", Daily, anchor, 2)
	store.Toggle("A", Daily, anchor, 3)

	totals := agg.HabitRowTotals(anchor)
	if totals["A"] != 3 || totals["B"] != 0 {
		t.Fatalf("unexpected totals %v", totals)
	}
}

func TestWeekdayPercentages(t *testing.T) {
	store := NewStore()
	catalog := Catalog{Daily: []string{"A", "B"}}
	agg := NewAggregator(store, catalog)
	anchor := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)

	store.Toggle("A", Daily, anchor, 10)
	store.Toggle("B", Daily, anchor, 10)
	store.Toggle("A", Daily, anchor, 9)

	points := agg.WeekdayPercentages(anchor)
	if len(points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(points))
	}
	if points[6].Percent != 100 {
		t.Fatalf("expected 100%% on the anchor day, got %d", points[6].Percent)
	}
	if points[5].Percent != 50 {
		t.Fatalf("expected 50%% the day before, got %d", points[5].Percent)
	}
	if points[0].Percent != 0 {
		t.Fatalf("expected 0%% six days back, got %d", points[0].Percent)
	}
}

func TestLoadCatalogPartialFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/catalog.json"
	if err := writeFile(path, `{"daily": ["Only One"]}`); err != nil {
		t.Fatalf("write config: %v", err)
	}
	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(catalog.Daily) != 1 || catalog.Daily[0] != "Only One" {
		t.Fatalf("unexpected daily list %v", catalog.Daily)
	}
	if len(catalog.Weekly) == 0 || len(catalog.Monthly) == 0 {
		t.Fatalf("expected weekly/monthly defaults to fill in")
	}
}

func TestLoadCatalogRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/catalog.json"
	if err := writeFile(path, `{not json`); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatalf("expected malformed catalog to error")
	}
}
