// Package testutil provides databases and fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/pathfinderai/pathfinder-api/config"
	"github.com/pathfinderai/pathfinder-api/models"
)

// DB opens a migrated sqlite database in a temp dir owned by tb.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func User(tb testing.TB, db *gorm.DB, auth0ID, nickname string) models.User {
	tb.Helper()
	u := models.User{Auth0ID: auth0ID, Nickname: nickname}
	if err := db.Create(&u).Error; err != nil {
		tb.Fatalf("create user: %v", err)
	}
	return u
}

func Set(tb testing.TB, db *gorm.DB, owner models.User, title string, public bool) models.FlashcardSet {
	tb.Helper()
	s := models.FlashcardSet{Title: title, UserID: owner.ID, IsPublic: public, PublicID: gonanoid.Must()}
	if err := db.Create(&s).Error; err != nil {
		tb.Fatalf("create set: %v", err)
	}
	return s
}

func Card(tb testing.TB, db *gorm.DB, set models.FlashcardSet, term, solution string) models.Flashcard {
	tb.Helper()
	c := models.Flashcard{Term: term, Solution: solution, SetID: set.ID, PublicID: gonanoid.Must()}
	if err := db.Create(&c).Error; err != nil {
		tb.Fatalf("create flashcard: %v", err)
	}
	return c
}
