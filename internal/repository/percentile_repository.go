package repository

import (
	"context"

	"github.com/lshigami/mocktest/internal/model"
	"gorm.io/gorm"
)

type PercentileRepository interface {
	FindByTestID(ctx context.Context, testID uint) ([]model.PercentileMapping, error)
	// ReplaceForTest swaps the whole mapping of a test in one transaction.
	ReplaceForTest(ctx context.Context, testID uint, rows []model.PercentileMapping) error
}

type percentileRepository struct {
	db *gorm.DB
}

func NewPercentileRepository(db *gorm.DB) PercentileRepository {
	return &percentileRepository{db: db}
}

func (r *percentileRepository) FindByTestID(ctx context.Context, testID uint) ([]model.PercentileMapping, error) {
	var rows []model.PercentileMapping
	err := r.db.WithContext(ctx).Where("test_id = ?", testID).Order("min_marks ASC").Find(&rows).Error
	return rows, err
}

func (r *percentileRepository) ReplaceForTest(ctx context.Context, testID uint, rows []model.PercentileMapping) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_id = ?", testID).Delete(&model.PercentileMapping{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].ID = 0
			rows[i].TestID = testID
		}
		return tx.Create(&rows).Error
	})
}
