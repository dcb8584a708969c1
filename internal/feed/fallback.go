package feed

import (
	"math/rand"
	"time"

	"github.com/pulseboard/pulseboard/internal/heatmap"
)

// fallbackContributionLevels is the static placeholder grid shown when the
// contribution feed is unreachable and no cached snapshot exists: ten weeks
// of plausible-looking levels, oldest week first.
var fallbackContributionLevels = [][7]int{
	{0, 1, 2, 0, 1, 3, 2},
	{1, 2, 3, 1, 0, 2, 1},
	{2, 0, 1, 2, 3, 1, 0},
	{0, 1, 0, 2, 1, 2, 3},
	{3, 2, 1, 0, 1, 0, 2},
	{1, 0, 2, 1, 2, 3, 1},
	{2, 1, 0, 3, 0, 1, 2},
	{0, 2, 1, 1, 2, 0, 1},
	{1, 3, 2, 0, 1, 2, 0},
	{2, 1, 0, 2, 3, 1, 1},
}

// FallbackContributions builds the synthetic contribution snapshot: the
// static level grid laid out as the trailing 70 days ending today.
func FallbackContributions(today time.Time) Snapshot {
	total := len(fallbackContributionLevels) * heatmap.WeekLength
	start := today.AddDate(0, 0, -(total - 1))
	days := make([]heatmap.ActivityDay, 0, total)
	sum := 0
	for i := 0; i < total; i++ {
		level := fallbackContributionLevels[i/heatmap.WeekLength][i%heatmap.WeekLength]
		date := start.AddDate(0, 0, i)
		days = append(days, heatmap.ActivityDay{
			Date:  time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			Count: level,
			Level: level,
		})
		sum += level
	}
	return Snapshot{
		Source:    ContributionSourceName,
		Days:      days,
		Total:     sum,
		Today:     days[len(days)-1].Count,
		Synthetic: true,
		FetchedAt: today.UTC(),
	}
}

// FallbackTyping builds the synthetic typing snapshot: a randomized
// placeholder window seeded by the calendar date, so repeated degradations
// within one day render the same grid.
func FallbackTyping(today time.Time) Snapshot {
	seed := int64(today.Year())*10000 + int64(today.Month())*100 + int64(today.Day())
	rng := rand.New(rand.NewSource(seed))
	start := today.AddDate(0, 0, -(TypingWindowDays - 1))
	days := make([]heatmap.ActivityDay, 0, TypingWindowDays)
	for i := 0; i < TypingWindowDays; i++ {
		count := 0
		if rng.Intn(3) > 0 {
			count = rng.Intn(10)
		}
		date := start.AddDate(0, 0, i)
		days = append(days, heatmap.ActivityDay{
			Date:  time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			Count: count,
			Level: heatmap.LevelForCount(count),
		})
	}
	return Snapshot{
		Source:    TypingSourceName,
		Days:      days,
		Today:     days[len(days)-1].Count,
		Synthetic: true,
		FetchedAt: today.UTC(),
	}
}
