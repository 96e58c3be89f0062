package srs

import (
	"fmt"
	"math"
	"time"
)

const (
	// InitialEaseFactor is the ease factor of a freshly enrolled item.
	InitialEaseFactor = 2.5
	// MinEaseFactor is the floor applied after every review.
	MinEaseFactor = 1.3
	// MaxInterval caps the scheduled gap, in days, so NextReview stays a
	// representable, JSON-encodable instant.
	MaxInterval = 36500
)

// ReviewItem is the scheduling state of one learnable unit.
type ReviewItem struct {
	ID          string     `json:"id"`
	EaseFactor  float64    `json:"easeFactor"`
	Interval    int        `json:"interval"`    // days
	Repetitions int        `json:"repetitions"` // consecutive passes since the last lapse
	NextReview  time.Time  `json:"nextReview"`
	LastReview  *time.Time `json:"lastReview,omitempty"` // nil before the first review.
}

// InitialReviewItem returns a never-reviewed item that is due at now.
func InitialReviewItem(id string, now time.Time) ReviewItem {
	return ReviewItem{
		ID:         id,
		EaseFactor: InitialEaseFactor,
		NextReview: now,
	}
}

// Validate reports an ErrInvalidArgument when the item breaks the
// scheduling invariants a caller must uphold.
func (it ReviewItem) Validate() error {
	if math.IsNaN(it.EaseFactor) || math.IsInf(it.EaseFactor, 0) {
		return fmt.Errorf("%w: ease factor %v is not finite", ErrInvalidArgument, it.EaseFactor)
	}
	if it.EaseFactor < MinEaseFactor {
		return fmt.Errorf("%w: ease factor %v below %v", ErrInvalidArgument, it.EaseFactor, MinEaseFactor)
	}
	if it.Interval < 0 {
		return fmt.Errorf("%w: negative interval %d", ErrInvalidArgument, it.Interval)
	}
	if it.Repetitions < 0 {
		return fmt.Errorf("%w: negative repetitions %d", ErrInvalidArgument, it.Repetitions)
	}
	return nil
}

// IsDue reports whether the item is due at now.
func (it ReviewItem) IsDue(now time.Time) bool {
	return !it.NextReview.After(now)
}

// clone returns a copy that shares no pointers with it.
func (it ReviewItem) clone() ReviewItem {
	out := it
	if it.LastReview != nil {
		v := *it.LastReview
		out.LastReview = &v
	}
	return out
}
