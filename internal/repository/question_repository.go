package repository

import (
	"context"

	"github.com/lshigami/mocktest/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	Create(ctx context.Context, question *model.Question) error
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	FindByTestID(ctx context.Context, testID uint) ([]model.Question, error)
	CountByTestID(ctx context.Context, testID uint) (int64, error)
	MaxNumber(ctx context.Context, testID uint) (int, error)
	Update(ctx context.Context, question *model.Question) error
	Delete(ctx context.Context, id uint) error
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *model.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// FindByTestID returns the questions in attempt order: by question number, then insertion.
func (r *questionRepository) FindByTestID(ctx context.Context, testID uint) ([]model.Question, error) {
	var questions []model.Question
	if err := r.db.WithContext(ctx).Where("test_id = ?", testID).Order("question_number ASC, id ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) CountByTestID(ctx context.Context, testID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Question{}).Where("test_id = ?", testID).Count(&n).Error
	return n, err
}

func (r *questionRepository) MaxNumber(ctx context.Context, testID uint) (int, error) {
	var highest *int
	err := r.db.WithContext(ctx).Model(&model.Question{}).
		Where("test_id = ?", testID).
		Select("MAX(question_number)").
		Scan(&highest).Error
	if err != nil || highest == nil {
		return 0, err
	}
	return *highest, nil
}

func (r *questionRepository) Update(ctx context.Context, question *model.Question) error {
	return r.db.WithContext(ctx).Save(question).Error
}

func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Question{}, id).Error
}
