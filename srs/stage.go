package srs

import (
	"fmt"
	"time"
)

// Stage is where an item sits in the review lifecycle.
type Stage int

const (
	New      Stage = iota // Never reviewed.
	Learning              // One or two passes since the last lapse.
	Mature                // Three or more consecutive passes.
	Lapsed                // Reviewed before, last review failed.
)

var stageNames = [...]string{New: "New", Learning: "Learning", Mature: "Mature", Lapsed: "Lapsed"}

func (s Stage) String() string {
	if s >= New && s <= Lapsed {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler so stages key JSON maps by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StageOf classifies an item.
func StageOf(it ReviewItem) Stage {
	switch {
	case it.LastReview == nil:
		return New
	case it.Repetitions == 0:
		return Lapsed
	case it.Repetitions < 3:
		return Learning
	default:
		return Mature
	}
}

// Summary counts items per stage and how many are due.
type Summary struct {
	Total   int           `json:"total"`
	Due     int           `json:"due"`
	ByStage map[Stage]int `json:"byStage"`
}

// Summarize builds a Summary of items as of now.
func Summarize(items []ReviewItem, now time.Time) Summary {
	s := Summary{
		Total:   len(items),
		ByStage: map[Stage]int{New: 0, Learning: 0, Mature: 0, Lapsed: 0},
	}
	for _, it := range items {
		s.ByStage[StageOf(it)]++
		if it.IsDue(now) {
			s.Due++
		}
	}
	return s
}
