package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/model"
	"gorm.io/gorm"
)

type TestAttemptRepository interface {
	Create(ctx context.Context, attempt *model.TestAttempt) error
	FindByID(ctx context.Context, id uint) (*model.TestAttempt, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*model.TestAttempt, error)
	FindInProgress(ctx context.Context, testID, userID uint) (*model.TestAttempt, error)
	// SaveProgress writes the in-progress columns of an attempt that has not been finalized.
	// It returns exam.ErrAlreadySubmitted when the row was finalized in the meantime.
	SaveProgress(ctx context.Context, attempt *model.TestAttempt) error
	FindExpired(ctx context.Context, now time.Time, limit int) ([]model.TestAttempt, error)
	FindFinalizedByUser(ctx context.Context, userID uint) ([]model.TestAttempt, error)
	FindFinalizedByTest(ctx context.Context, testID uint) ([]model.TestAttempt, error)
	FindTopFinalized(ctx context.Context, testID uint, limit int) ([]model.TestAttempt, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.TestAttempt, error)
	CountByTest(ctx context.Context, testID uint) (int64, error)
	CountFinalizedByTest(ctx context.Context, testID uint) (int64, error)
	UpdateStanding(ctx context.Context, id uint, rank *int, percentile *float64) error
}

type testAttemptRepository struct {
	db *gorm.DB
}

func NewTestAttemptRepository(db *gorm.DB) TestAttemptRepository {
	return &testAttemptRepository{db: db}
}

func (r *testAttemptRepository) Create(ctx context.Context, attempt *model.TestAttempt) error {
	return r.db.WithContext(ctx).Omit("Test", "Answers").Create(attempt).Error
}

func (r *testAttemptRepository) FindByID(ctx context.Context, id uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	if err := r.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *testAttemptRepository) FindByIDWithDetails(ctx context.Context, id uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.db.WithContext(ctx).
		Preload("Test").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.position ASC")
		}).
		Preload("Answers.Question").
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *testAttemptRepository) FindInProgress(ctx context.Context, testID, userID uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND user_id = ? AND submitted_at IS NULL", testID, userID).
		Order("id DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *testAttemptRepository) SaveProgress(ctx context.Context, attempt *model.TestAttempt) error {
	res := r.db.WithContext(ctx).Model(&model.TestAttempt{}).
		Where("id = ? AND submitted_at IS NULL", attempt.ID).
		Updates(progressColumns(attempt))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: attempt %d", exam.ErrAlreadySubmitted, attempt.ID)
	}
	return nil
}

func progressColumns(attempt *model.TestAttempt) map[string]any {
	return map[string]any{
		"status":            attempt.Status,
		"current_position":  attempt.CurrentPosition,
		"remaining_seconds": attempt.RemainingSeconds,
		"last_tick_at":      attempt.LastTickAt,
		"deadline_at":       attempt.DeadlineAt,
		"responses":         attempt.Responses,
		"review":            attempt.Review,
		"time_spent":        attempt.TimeSpent,
	}
}

func (r *testAttemptRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.WithContext(ctx).
		Where("submitted_at IS NULL AND deadline_at <= ?", now).
		Order("deadline_at ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) FindFinalizedByUser(ctx context.Context, userID uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.WithContext(ctx).
		Preload("Test").
		Where("user_id = ? AND submitted_at IS NOT NULL", userID).
		Order("submitted_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) FindFinalizedByTest(ctx context.Context, testID uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND submitted_at IS NOT NULL", testID).
		Order("id ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) FindTopFinalized(ctx context.Context, testID uint, limit int) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND submitted_at IS NOT NULL", testID).
		Order("total_marks DESC, submitted_at ASC, id ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	if len(ids) == 0 {
		return attempts, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) CountByTest(ctx context.Context, testID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.TestAttempt{}).Where("test_id = ?", testID).Count(&n).Error
	return n, err
}

func (r *testAttemptRepository) CountFinalizedByTest(ctx context.Context, testID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.TestAttempt{}).
		Where("test_id = ? AND submitted_at IS NOT NULL", testID).
		Count(&n).Error
	return n, err
}

func (r *testAttemptRepository) UpdateStanding(ctx context.Context, id uint, rank *int, percentile *float64) error {
	return r.db.WithContext(ctx).Model(&model.TestAttempt{}).
		Where("id = ? AND submitted_at IS NOT NULL", id).
		Updates(map[string]any{"rank": rank, "percentile": percentile}).Error
}
