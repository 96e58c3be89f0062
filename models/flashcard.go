package models

import (
	"gorm.io/gorm"
)

// Flashcard represents an individual flashcard
type Flashcard struct {
	gorm.Model
	PublicID string `gorm:"size:100;uniqueIndex"`
	Term     string `gorm:"not null;size:200"`
	Solution string `gorm:"not null;size:1000"`
	Concept  string `gorm:"size:100"`

	SetID        uint         `gorm:"not null;index"`
	FlashcardSet FlashcardSet `gorm:"foreignKey:SetID" json:"-"`
}
