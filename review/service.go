// Package review ties the SM-2 scheduler to persisted review state.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pathfinderai/pathfinder-api/logger"
	"github.com/pathfinderai/pathfinder-api/srs"
	"github.com/pathfinderai/pathfinder-api/store"
)

// Store is the persistence the service needs.
type Store interface {
	store.ReviewStore
	Enroll(ctx context.Context, owner store.Owner, initial srs.ReviewItem) (srs.ReviewItem, error)
	EnrollAll(ctx context.Context, owners []store.Owner, newItem func(id string) srs.ReviewItem) error
	Update(ctx context.Context, id string, m store.Mutation) (srs.ReviewItem, error)
	List(ctx context.Context, f store.ListFilter) ([]store.Entry, error)
	History(ctx context.Context, id string) ([]srs.ReviewLog, error)
}

type Service struct {
	store     Store
	scheduler *srs.Scheduler
	log       *logger.Logger
}

func NewService(st Store, scheduler *srs.Scheduler, log *logger.Logger) *Service {
	return &Service{store: st, scheduler: scheduler, log: log.With("component", "review")}
}

// Now is the scheduler's current instant.
func (s *Service) Now() time.Time {
	return s.scheduler.Now()
}

// Enroll puts flashcards under review for their owners. Cards that are
// already enrolled keep their state.
func (s *Service) Enroll(ctx context.Context, owners ...store.Owner) error {
	return s.store.EnrollAll(ctx, owners, s.scheduler.NewItem)
}

// Submit records one review of the owner's flashcard and returns the new
// state. The card is enrolled first if needed.
func (s *Service) Submit(ctx context.Context, owner store.Owner, q srs.Quality) (srs.ReviewItem, error) {
	if !q.IsValid() {
		return srs.ReviewItem{}, fmt.Errorf("%w: quality %d out of range [0, 5]", srs.ErrInvalidArgument, int(q))
	}
	id := owner.ItemID()
	if _, err := s.store.Enroll(ctx, owner, s.scheduler.NewItem(id)); err != nil {
		return srs.ReviewItem{}, err
	}

	next, err := s.store.Update(ctx, id, func(cur srs.ReviewItem) (srs.ReviewItem, *srs.ReviewLog, error) {
		now := s.scheduler.Now()
		next, err := srs.CalculateNextReview(cur, srs.Response{Quality: q}, now)
		if err != nil {
			return srs.ReviewItem{}, nil, err
		}
		return next, &srs.ReviewLog{ItemID: id, Quality: q, ReviewedAt: now}, nil
	})
	if err != nil {
		return srs.ReviewItem{}, err
	}

	s.log.Debug("review recorded",
		"item_id", id,
		"quality", q.String(),
		"interval", next.Interval,
		"repetitions", next.Repetitions,
	)
	return next, nil
}

// Due lists the user's enrolled cards due at now, optionally within one set.
func (s *Service) Due(ctx context.Context, userID uint, setID *uint, now time.Time) ([]store.Entry, error) {
	entries, err := s.store.List(ctx, store.ListFilter{UserID: userID, SetID: setID})
	if err != nil {
		return nil, err
	}
	items := make([]srs.ReviewItem, len(entries))
	byID := make(map[string]store.Entry, len(entries))
	for i, e := range entries {
		items[i] = e.Item
		byID[e.Item.ID] = e
	}

	due := srs.DueItems(items, now)
	out := make([]store.Entry, 0, len(due))
	for _, it := range due {
		out = append(out, byID[it.ID])
	}
	return out, nil
}

// Preview returns the outcome of every quality for the owner's card at now.
// Cards that are not enrolled preview from their initial state.
func (s *Service) Preview(ctx context.Context, owner store.Owner, now time.Time) (map[srs.Quality]srs.ReviewItem, error) {
	item, err := s.store.Get(ctx, owner.ItemID())
	if errors.Is(err, store.ErrNotFound) {
		item = srs.InitialReviewItem(owner.ItemID(), now)
	} else if err != nil {
		return nil, err
	}
	return srs.Preview(item, now)
}

// History returns the owner's review events for a card, oldest first.
func (s *Service) History(ctx context.Context, owner store.Owner) ([]srs.ReviewLog, error) {
	return s.store.History(ctx, owner.ItemID())
}

// Stats summarizes the user's enrolled cards at now.
func (s *Service) Stats(ctx context.Context, userID uint, setID *uint, now time.Time) (srs.Summary, error) {
	entries, err := s.store.List(ctx, store.ListFilter{UserID: userID, SetID: setID})
	if err != nil {
		return srs.Summary{}, err
	}
	items := make([]srs.ReviewItem, len(entries))
	for i, e := range entries {
		items[i] = e.Item
	}
	return srs.Summarize(items, now), nil
}
