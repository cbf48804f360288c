package service

import (
	"errors"
	"fmt"

	"github.com/lshigami/mocktest/internal/ranking"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrTestLocked         = errors.New("test is locked: attempts already exist")
	ErrTestNotPublished   = errors.New("test is not published")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidQuestion    = errors.New("invalid question")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExplainerDisabled  = errors.New("AI explanations are not configured")

	ErrInvalidMapping = ranking.ErrInvalidMapping
)

// notFound turns gorm's missing-row error into ErrNotFound, naming what was looked up.
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("load %s %d: %w", what, id, err)
}
