package heatmap

// WeekLength is the fixed width of every emitted week row.
const WeekLength = 7

// DefaultWindowWeeks is the display window applied when a caller passes a
// non-positive window to Bucketize.
const DefaultWindowWeeks = 18

// WeekRow is a Sunday-indexed run of exactly seven days.
type WeekRow []ActivityDay

// Bucketize folds an ascending-date-ordered sequence of real (non-sentinel)
// activity days into Sunday-aligned week rows. The first row is left-padded
// with sentinels so the first day lands in its weekday column, the last row
// is right-padded to a full seven, and only the trailing windowWeeks rows
// are returned. Empty input yields no rows.
func Bucketize(days []ActivityDay, windowWeeks int) []WeekRow {
	if len(days) == 0 {
		return nil
	}
	if windowWeeks <= 0 {
		windowWeeks = DefaultWindowWeeks
	}

	rows := make([]WeekRow, 0, len(days)/WeekLength+2)
	current := make(WeekRow, 0, WeekLength)
	for i := 0; i < int(days[0].Date.Weekday()); i++ {
		current = append(current, sentinelDay())
	}
	for _, day := range days {
		current = append(current, day)
		if len(current) == WeekLength {
			rows = append(rows, current)
			current = make(WeekRow, 0, WeekLength)
		}
	}
	if len(current) > 0 {
		for len(current) < WeekLength {
			current = append(current, sentinelDay())
		}
		rows = append(rows, current)
	}

	if len(rows) > windowWeeks {
		rows = rows[len(rows)-windowWeeks:]
	}
	return rows
}
