package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/pathfinderai/pathfinder-api/models"
)

// Connect opens the database named by env and migrates the schema.
func Connect(env Environment) (*gorm.DB, error) {
	if env.DBURL == "" {
		return nil, fmt.Errorf("config: DB_URL is not set")
	}

	var dialector gorm.Dialector
	switch env.DBDriver {
	case "postgres", "postgresql":
		dialector = postgres.Open(env.DBURL)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(env.DBURL)
	default:
		return nil, fmt.Errorf("config: unsupported DB_DRIVER %q", env.DBDriver)
	}

	level := gormLogger.Warn
	if !env.IsDevelopment {
		level = gormLogger.Error
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("config: connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.FlashcardSet{},
		&models.Flashcard{},
		&models.ReviewState{},
		&models.ReviewLog{},
	)
	if err != nil {
		return fmt.Errorf("config: auto migrate: %w", err)
	}
	return nil
}
