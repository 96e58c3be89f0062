package srs

import "time"

// Scheduler binds the pure scheduling functions to a Clock.
type Scheduler struct {
	clock Clock
}

// NewScheduler returns a Scheduler reading time from clock.
// A nil clock means the wall clock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{clock: clock}
}

// Now returns the scheduler's current instant.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// NewItem returns an initial item due now.
func (s *Scheduler) NewItem(id string) ReviewItem {
	return InitialReviewItem(id, s.clock.Now())
}

// Review applies resp to item at the current instant.
func (s *Scheduler) Review(item ReviewItem, resp Response) (ReviewItem, error) {
	return CalculateNextReview(item, resp, s.clock.Now())
}

// Due filters items due at the current instant.
func (s *Scheduler) Due(items []ReviewItem) []ReviewItem {
	return DueItems(items, s.clock.Now())
}
