package models

import (
	"time"

	"gorm.io/gorm"
)

// FlashcardSet represents a collection of flashcards
type FlashcardSet struct {
	gorm.Model
	Title    string `gorm:"not null;size:100"`
	UserID   uint   `gorm:"not null;index"`
	PublicID string `gorm:"size:100;uniqueIndex"`
	User     User   `gorm:"foreignKey:UserID" json:"-"`

	Flashcards []Flashcard `gorm:"foreignKey:SetID"`

	IsPublic    bool       `gorm:"default:false"`
	LastStudied *time.Time `gorm:"default:null"`
}
