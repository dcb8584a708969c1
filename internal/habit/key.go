package habit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Completion keys are the persisted composite identifiers for one
// (habit, period) instance. They embed the calendar year and 0-based month
// so the same habit and day/week index never collide across months:
//
//	daily    {habit}_{year}_{month0}_{day}
//	weekly   {habit}_{year}_{month0}_W{week}
//	monthly  {habit}_{year}_{month0}
//
// The 0-based month is a persisted wire convention; changing it would
// orphan every stored key.

// EncodeDaily derives the key for one habit on a day of the anchor month.
// Day is 1-based (1..daysInMonth).
func EncodeDaily(habitName string, anchor time.Time, day int) string {
	return fmt.Sprintf("%s_%d_%d_%d", habitName, anchor.Year(), int(anchor.Month())-1, day)
}

// EncodeWeekly derives the key for one habit in a week slot (0..3) of the
// anchor month.
func EncodeWeekly(habitName string, anchor time.Time, week int) string {
	return fmt.Sprintf("%s_%d_%d_W%d", habitName, anchor.Year(), int(anchor.Month())-1, week)
}

// EncodeMonthly derives the key for one habit in the anchor month.
func EncodeMonthly(habitName string, anchor time.Time) string {
	return fmt.Sprintf("%s_%d_%d", habitName, anchor.Year(), int(anchor.Month())-1)
}

// Encode dispatches on resolution. Period is the 1-based day for Daily,
// the 0-based week slot for Weekly, and ignored for Monthly.
func Encode(habitName string, resolution Resolution, anchor time.Time, period int) string {
	switch resolution {
	case Daily:
		return EncodeDaily(habitName, anchor, period)
	case Weekly:
		return EncodeWeekly(habitName, anchor, period)
	default:
		return EncodeMonthly(habitName, anchor)
	}
}

// Key is the decoded form of a completion key.
type Key struct {
	Habit      string
	Resolution Resolution
	Year       int
	Month0     int
	Period     int // day (1-based) for Daily, week slot for Weekly, 0 for Monthly
}

// DecodeKey parses a completion key. Habit names may themselves contain
// underscores, so the period discriminator is parsed from the tail.
func DecodeKey(raw string, resolution Resolution) (Key, error) {
	parts := strings.Split(raw, "_")
	want := 3
	if resolution == Daily || resolution == Weekly {
		want = 4
	}
	if len(parts) < want {
		return Key{}, fmt.Errorf("%w: malformed %s key %q", ErrInvalidInput, resolution, raw)
	}

	tail := parts[len(parts)-(want-1):]
	habitName := strings.Join(parts[:len(parts)-(want-1)], "_")
	if habitName == "" {
		return Key{}, fmt.Errorf("%w: empty habit in key %q", ErrInvalidInput, raw)
	}
	year, err := strconv.Atoi(tail[0])
	if err != nil {
		return Key{}, fmt.Errorf("%w: bad year in key %q", ErrInvalidInput, raw)
	}
	month0, err := strconv.Atoi(tail[1])
	if err != nil || month0 < 0 || month0 > 11 {
		return Key{}, fmt.Errorf("%w: bad month in key %q", ErrInvalidInput, raw)
	}

	key := Key{Habit: habitName, Resolution: resolution, Year: year, Month0: month0}
	switch resolution {
	case Daily:
		day, err := strconv.Atoi(tail[2])
		if err != nil || day < 1 || day > 31 {
			return Key{}, fmt.Errorf("%w: bad day in key %q", ErrInvalidInput, raw)
		}
		key.Period = day
	case Weekly:
		if !strings.HasPrefix(tail[2], "W") {
			return Key{}, fmt.Errorf("%w: bad week slot in key %q", ErrInvalidInput, raw)
		}
		week, err := strconv.Atoi(strings.TrimPrefix(tail[2], "W"))
		if err != nil || week < 0 {
			return Key{}, fmt.Errorf("%w: bad week slot in key %q", ErrInvalidInput, raw)
		}
		key.Period = week
	}
	return key, nil
}

// InMonth reports whether the key belongs to the anchor's year and month.
func (k Key) InMonth(anchor time.Time) bool {
	return k.Year == anchor.Year() && k.Month0 == int(anchor.Month())-1
}
