// Package store persists spaced-repetition state with gorm.
package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pathfinderai/pathfinder-api/models"
	"github.com/pathfinderai/pathfinder-api/srs"
)

var ErrNotFound = errors.New("store: review item not found")

// ReviewStore is the get/put contract the scheduler's callers rely on.
type ReviewStore interface {
	Get(ctx context.Context, id string) (srs.ReviewItem, error)
	Put(ctx context.Context, item srs.ReviewItem) error
}

// Owner identifies the user and flashcard a review item belongs to.
type Owner struct {
	UserID            uint
	SetID             uint
	FlashcardID       uint
	FlashcardPublicID string
}

// ItemID is the scheduler item ID for o.
func (o Owner) ItemID() string {
	return models.ReviewItemID(o.UserID, o.FlashcardPublicID)
}

// ListFilter narrows List to one user and optionally one set.
type ListFilter struct {
	UserID uint
	SetID  *uint
}

// Entry pairs a review item with the flashcard it schedules.
type Entry struct {
	Item      srs.ReviewItem   `json:"item"`
	Flashcard models.Flashcard `json:"flashcard"`
}

// Mutation computes the replacement for cur. A non-nil event is appended to
// the item's review history in the same transaction.
type Mutation func(cur srs.ReviewItem) (next srs.ReviewItem, event *srs.ReviewLog, err error)

type GormReviewStore struct {
	db    *gorm.DB
	locks *KeyedMutex
}

var _ ReviewStore = (*GormReviewStore)(nil)

func NewGormReviewStore(db *gorm.DB) *GormReviewStore {
	return &GormReviewStore{db: db, locks: NewKeyedMutex()}
}

func (s *GormReviewStore) Get(ctx context.Context, id string) (srs.ReviewItem, error) {
	var row models.ReviewState
	if err := s.db.WithContext(ctx).Where("item_id = ?", id).First(&row).Error; err != nil {
		return srs.ReviewItem{}, notFound(err, id)
	}
	return toItem(row), nil
}

// Put replaces the scheduling fields of an existing item.
func (s *GormReviewStore) Put(ctx context.Context, item srs.ReviewItem) error {
	unlock := s.locks.Lock(item.ID)
	defer unlock()
	return put(s.db.WithContext(ctx), item)
}

// Enroll stores initial for owner unless the owner already has an item, and
// returns whichever item is stored.
func (s *GormReviewStore) Enroll(ctx context.Context, owner Owner, initial srs.ReviewItem) (srs.ReviewItem, error) {
	if initial.ID != owner.ItemID() {
		return srs.ReviewItem{}, errors.Errorf("store: item %q does not belong to owner %q", initial.ID, owner.ItemID())
	}
	if err := s.EnrollAll(ctx, []Owner{owner}, func(string) srs.ReviewItem { return initial }); err != nil {
		return srs.ReviewItem{}, err
	}
	return s.Get(ctx, initial.ID)
}

// EnrollAll creates items for the owners that have none. newItem builds the
// initial state for an item ID.
func (s *GormReviewStore) EnrollAll(ctx context.Context, owners []Owner, newItem func(id string) srs.ReviewItem) error {
	if len(owners) == 0 {
		return nil
	}
	rows := make([]models.ReviewState, 0, len(owners))
	for _, o := range owners {
		row := toRow(newItem(o.ItemID()))
		row.UserID = o.UserID
		row.SetID = o.SetID
		row.FlashcardID = o.FlashcardID
		rows = append(rows, row)
	}
	err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, 100).Error
	return errors.Wrap(err, "store: enroll review items")
}

// Update applies m to the stored item. Updates of one item are serialized in
// process and, where the database supports it, by a row lock.
func (s *GormReviewStore) Update(ctx context.Context, id string, m Mutation) (srs.ReviewItem, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var out srs.ReviewItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.ReviewState
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("item_id = ?", id).First(&row).Error; err != nil {
			return notFound(err, id)
		}

		next, event, err := m(toItem(row))
		if err != nil {
			return err
		}
		if next.ID != id {
			return errors.Errorf("store: mutation changed item ID %q to %q", id, next.ID)
		}
		if err := put(tx, next); err != nil {
			return err
		}
		if event != nil {
			entry := models.ReviewLog{
				ReviewStateID: row.ID,
				ItemID:        id,
				Quality:       int(event.Quality),
				EaseFactor:    next.EaseFactor,
				Interval:      next.Interval,
				ReviewedAt:    event.ReviewedAt,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return errors.Wrapf(err, "store: append review log for %q", id)
			}
		}
		out = next
		return nil
	})
	if err != nil {
		return srs.ReviewItem{}, err
	}
	return out, nil
}

// List returns the items matching f whose flashcards still exist and whose
// set the user can still read: the user's own sets and public ones.
func (s *GormReviewStore) List(ctx context.Context, f ListFilter) ([]Entry, error) {
	q := s.db.WithContext(ctx).
		Model(&models.ReviewState{}).
		Select("review_states.*").
		Joins("JOIN flashcards ON flashcards.id = review_states.flashcard_id AND flashcards.deleted_at IS NULL").
		Joins("JOIN flashcard_sets ON flashcard_sets.id = flashcards.set_id AND flashcard_sets.deleted_at IS NULL").
		Where("review_states.user_id = ?", f.UserID).
		Where("(flashcard_sets.is_public = ? OR flashcard_sets.user_id = review_states.user_id)", true)
	if f.SetID != nil {
		q = q.Where("review_states.set_id = ?", *f.SetID)
	}

	var rows []models.ReviewState
	if err := q.Preload("Flashcard").Order("review_states.id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "store: list review items")
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, Entry{Item: toItem(r), Flashcard: r.Flashcard})
	}
	return entries, nil
}

// History returns the review events of an item, oldest first.
func (s *GormReviewStore) History(ctx context.Context, id string) ([]srs.ReviewLog, error) {
	var rows []models.ReviewLog
	if err := s.db.WithContext(ctx).
		Where("item_id = ?", id).
		Order("reviewed_at, id").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "store: review history for %q", id)
	}
	logs := make([]srs.ReviewLog, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, srs.ReviewLog{ItemID: r.ItemID, Quality: srs.Quality(r.Quality), ReviewedAt: r.ReviewedAt})
	}
	return logs, nil
}

func put(db *gorm.DB, item srs.ReviewItem) error {
	res := db.Model(&models.ReviewState{}).
		Where("item_id = ?", item.ID).
		Updates(map[string]interface{}{
			"ease_factor":   item.EaseFactor,
			"interval_days": item.Interval,
			"repetitions":   item.Repetitions,
			"next_review":   item.NextReview,
			"last_review":   item.LastReview,
		})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "store: put %q", item.ID)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "put %q", item.ID)
	}
	return nil
}

func notFound(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, "get %q", id)
	}
	return errors.Wrapf(err, "store: get %q", id)
}

func toItem(r models.ReviewState) srs.ReviewItem {
	return srs.ReviewItem{
		ID:          r.ItemID,
		EaseFactor:  r.EaseFactor,
		Interval:    r.Interval,
		Repetitions: r.Repetitions,
		NextReview:  r.NextReview,
		LastReview:  r.LastReview,
	}
}

func toRow(it srs.ReviewItem) models.ReviewState {
	return models.ReviewState{
		ItemID:      it.ID,
		EaseFactor:  it.EaseFactor,
		Interval:    it.Interval,
		Repetitions: it.Repetitions,
		NextReview:  it.NextReview,
		LastReview:  it.LastReview,
	}
}
