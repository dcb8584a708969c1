package heatmap

import "time"

// SentinelLevel marks a padding cell in a week row: a slot before the first
// real day or after the last one. Sentinels render empty and are excluded
// from every aggregate.
const SentinelLevel = -1

const (
	MinLevel = 0
	MaxLevel = 4
)

// ActivityDay is one calendar day of feed activity. A sentinel day has
// Level == SentinelLevel and a zero Date.
type ActivityDay struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
	Level int       `json:"level"`
}

func (d ActivityDay) Sentinel() bool {
	return d.Level == SentinelLevel
}

func sentinelDay() ActivityDay {
	return ActivityDay{Level: SentinelLevel}
}

// LevelForCount maps a raw per-day count onto the 0..4 intensity scale used
// by sources that do not supply pre-leveled data.
func LevelForCount(count int) int {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return 1
	case count <= 3:
		return 2
	case count <= 6:
		return 3
	default:
		return 4
	}
}

// ClampLevel bounds an upstream-supplied level to the renderable scale.
// Pre-leveled sources bypass LevelForCount and go through here instead.
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
