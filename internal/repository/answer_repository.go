package repository

import (
	"context"

	"github.com/lshigami/mocktest/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	FindByAttemptAndPosition(ctx context.Context, attemptID uint, position int) (*model.Answer, error)
	// SaveExplanation stores an AI explanation unless one was stored first, and returns the
	// explanation that ends up on the row.
	SaveExplanation(ctx context.Context, answerID uint, text string) (string, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) FindByAttemptAndPosition(ctx context.Context, attemptID uint, position int) (*model.Answer, error) {
	var answer model.Answer
	err := r.db.WithContext(ctx).
		Preload("Question").
		Where("test_attempt_id = ? AND position = ?", attemptID, position).
		First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepository) SaveExplanation(ctx context.Context, answerID uint, text string) (string, error) {
	db := r.db.WithContext(ctx)
	err := db.Model(&model.Answer{}).
		Where("id = ? AND ai_explanation IS NULL", answerID).
		Update("ai_explanation", text).Error
	if err != nil {
		return "", err
	}
	var answer model.Answer
	if err := db.Select("id", "ai_explanation").First(&answer, answerID).Error; err != nil {
		return "", err
	}
	if answer.AIExplanation == nil {
		return text, nil
	}
	return *answer.AIExplanation, nil
}
