package database

import (
	"github.com/lshigami/mocktest/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Test{},
		&model.Question{},
		&model.PercentileMapping{},
		&model.TestAttempt{},
		&model.Answer{},
	)
}
