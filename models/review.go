package models

import (
	"fmt"
	"time"
)

// ReviewState is the persisted spaced-repetition state of one flashcard for
// one user. ItemID is the scheduler's item identifier.
type ReviewState struct {
	ID          uint       `gorm:"primaryKey"`
	ItemID      string     `gorm:"not null;size:191;uniqueIndex"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_review_user_card"`
	User        User       `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	FlashcardID uint       `gorm:"not null;uniqueIndex:idx_review_user_card"`
	Flashcard   Flashcard  `gorm:"foreignKey:FlashcardID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	SetID       uint       `gorm:"not null;index"`
	EaseFactor  float64    `gorm:"not null"`
	Interval    int        `gorm:"column:interval_days;not null"`
	Repetitions int        `gorm:"not null"`
	NextReview  time.Time  `gorm:"not null;index"`
	LastReview  *time.Time `gorm:"default:null"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

// ReviewLog is one recorded review event.
type ReviewLog struct {
	ID            uint      `gorm:"primaryKey"`
	ReviewStateID uint      `gorm:"not null;index"`
	ItemID        string    `gorm:"not null;size:191;index"`
	Quality       int       `gorm:"not null"`
	EaseFactor    float64   `gorm:"not null"`
	Interval      int       `gorm:"column:interval_days;not null"`
	ReviewedAt    time.Time `gorm:"not null"`
}

// ReviewItemID derives the scheduler item ID for a user's flashcard.
func ReviewItemID(userID uint, flashcardPublicID string) string {
	return fmt.Sprintf("%d:%s", userID, flashcardPublicID)
}
