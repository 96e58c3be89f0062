package srs

import (
	"fmt"
	"time"
)

// ReviewLog records a single review event for an item.
type ReviewLog struct {
	ItemID     string    `json:"itemId"`
	Quality    Quality   `json:"quality"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

// Replay re-applies logs in order to rebuild the item's scheduling state.
// Returns ErrItemMismatch if any log's ItemID does not match the item.
func Replay(item ReviewItem, logs []ReviewLog) (ReviewItem, error) {
	cur := item.clone()
	for i, l := range logs {
		if l.ItemID != cur.ID {
			return ReviewItem{}, fmt.Errorf("%w: item %q, log %d targets %q", ErrItemMismatch, cur.ID, i, l.ItemID)
		}
		next, err := CalculateNextReview(cur, Response{Quality: l.Quality}, l.ReviewedAt)
		if err != nil {
			return ReviewItem{}, fmt.Errorf("replay log %d: %w", i, err)
		}
		cur = next
	}
	return cur, nil
}
