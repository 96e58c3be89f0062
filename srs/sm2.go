package srs

import (
	"fmt"
	"math"
	"time"
)

// CalculateNextReview applies one review with the given response at now and
// returns the new state. The input item is not modified; fields other than
// the scheduling ones are carried through. Intervals never exceed
// MaxInterval days.
//
// Invalid quality values and items that break the invariants are rejected
// with ErrInvalidArgument rather than clamped.
func CalculateNextReview(item ReviewItem, resp Response, now time.Time) (ReviewItem, error) {
	q := resp.Quality
	if !q.IsValid() {
		return ReviewItem{}, fmt.Errorf("%w: quality %d out of range [0, 5]", ErrInvalidArgument, int(q))
	}
	if err := item.Validate(); err != nil {
		return ReviewItem{}, fmt.Errorf("item %q: %w", item.ID, err)
	}

	next := item.clone()
	next.EaseFactor = nextEaseFactor(item.EaseFactor, q)

	if q.Passed() {
		next.Repetitions = item.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.Interval = 1
		case 2:
			next.Interval = 6
		default:
			// Previous interval times the updated ease factor.
			next.Interval = int(math.Min(math.Round(float64(item.Interval)*next.EaseFactor), MaxInterval))
		}
	} else {
		next.Repetitions = 0
		next.Interval = 1
	}

	reviewed := now
	next.LastReview = &reviewed
	next.NextReview = now.AddDate(0, 0, next.Interval)
	return next, nil
}

func nextEaseFactor(ef float64, q Quality) float64 {
	d := float64(5 - q)
	return math.Max(MinEaseFactor, ef+(0.1-d*(0.08+d*0.02)))
}

// DueItems returns the items whose NextReview is at or before now, in input
// order. The result is never nil and the input slice is not modified.
func DueItems(items []ReviewItem, now time.Time) []ReviewItem {
	due := make([]ReviewItem, 0, len(items))
	for _, it := range items {
		if it.IsDue(now) {
			due = append(due, it)
		}
	}
	return due
}

// Preview returns the state the item would reach for each valid quality.
func Preview(item ReviewItem, now time.Time) (map[Quality]ReviewItem, error) {
	out := make(map[Quality]ReviewItem, len(Qualities))
	for _, q := range Qualities {
		next, err := CalculateNextReview(item, Response{Quality: q}, now)
		if err != nil {
			return nil, err
		}
		out[q] = next
	}
	return out, nil
}
