package habit

import (
	"math"
	"time"
)

// Aggregator derives presentation series from a Store. It is read-only
// over the completion state.
type Aggregator struct {
	store   *Store
	catalog Catalog
}

func NewAggregator(store *Store, catalog Catalog) *Aggregator {
	return &Aggregator{store: store, catalog: catalog}
}

// TotalCompleted counts completed keys for the anchor's year and month.
// Keys left over from prior periods stay in the store but never count here,
// and weekly keys outside the W0..W3 slot set are ignored so hydrated state
// with stray slots cannot push percentages past 100.
func (a *Aggregator) TotalCompleted(resolution Resolution, anchor time.Time) int {
	total := 0
	for raw := range a.store.Get(resolution) {
		key, err := DecodeKey(raw, resolution)
		if err != nil {
			continue
		}
		if !key.InMonth(anchor) {
			continue
		}
		if resolution == Weekly && key.Period >= WeeksPerMonth {
			continue
		}
		total++
	}
	return total
}

// Percentage is round(completed/possible*100), 0 when possible is 0.
func Percentage(completed, possible int) int {
	if possible == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(possible) * 100))
}

// MonthlyProgressPercent is the daily-resolution month goal: completed
// daily keys over habits x daysInMonth.
func (a *Aggregator) MonthlyProgressPercent(anchor time.Time) int {
	possible := len(a.catalog.Daily) * daysInMonth(anchor)
	return Percentage(a.TotalCompleted(Daily, anchor), possible)
}

// WeeklyProgressPercent covers the four week slots of the anchor month.
func (a *Aggregator) WeeklyProgressPercent(anchor time.Time) int {
	possible := len(a.catalog.Weekly) * WeeksPerMonth
	return Percentage(a.TotalCompleted(Weekly, anchor), possible)
}

// MonthlyChecklistPercent covers the once-a-month habits.
func (a *Aggregator) MonthlyChecklistPercent(anchor time.Time) int {
	return Percentage(a.TotalCompleted(Monthly, anchor), len(a.catalog.Monthly))
}

// DaySeriesPoint is one bar of the daily progress chart.
type DaySeriesPoint struct {
	Day       int `json:"day"`
	Completed int `json:"completed"`
}

// DailySeries returns, for every day of the anchor month, how many catalog
// habits were completed that day.
func (a *Aggregator) DailySeries(anchor time.Time) []DaySeriesPoint {
	completions := a.store.Get(Daily)
	days := daysInMonth(anchor)
	series := make([]DaySeriesPoint, 0, days)
	for day := 1; day <= days; day++ {
		count := 0
		for _, habitName := range a.catalog.Daily {
			if completions[EncodeDaily(habitName, anchor, day)] {
				count++
			}
		}
		series = append(series, DaySeriesPoint{Day: day, Completed: count})
	}
	return series
}

// HabitRowTotals returns each daily habit's completed-day count for the
// anchor month, in catalog order.
func (a *Aggregator) HabitRowTotals(anchor time.Time) map[string]int {
	completions := a.store.Get(Daily)
	days := daysInMonth(anchor)
	totals := make(map[string]int, len(a.catalog.Daily))
	for _, habitName := range a.catalog.Daily {
		count := 0
		for day := 1; day <= days; day++ {
			if completions[EncodeDaily(habitName, anchor, day)] {
				count++
			}
		}
		totals[habitName] = count
	}
	return totals
}

// WeekdayPoint is one bar of the trailing-week habit graph.
type WeekdayPoint struct {
	Day     string `json:"day"`
	Percent int    `json:"value"`
}

// WeekdayPercentages maps the trailing seven days ending at anchor onto
// per-day completion percentages of the daily catalog.
func (a *Aggregator) WeekdayPercentages(anchor time.Time) []WeekdayPoint {
	completions := a.store.Get(Daily)
	points := make([]WeekdayPoint, 0, 7)
	for offset := 6; offset >= 0; offset-- {
		date := anchor.AddDate(0, 0, -offset)
		completed := 0
		for _, habitName := range a.catalog.Daily {
			if completions[EncodeDaily(habitName, date, date.Day())] {
				completed++
			}
		}
		points = append(points, WeekdayPoint{
			Day:     date.Format("Mon"),
			Percent: Percentage(completed, len(a.catalog.Daily)),
		})
	}
	return points
}

func daysInMonth(anchor time.Time) int {
	firstOfMonth := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
