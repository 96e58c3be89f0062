package models

import "gorm.io/gorm"

// User represents a user in the system
type User struct {
	gorm.Model
	Auth0ID       string         `gorm:"uniqueIndex;not null;size:191"`
	Nickname      string         `gorm:"not null;size:100"`
	FlashcardSets []FlashcardSet `gorm:"foreignKey:UserID" json:",omitempty"`
}
