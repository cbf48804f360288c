package repository

import (
	"context"

	"github.com/lshigami/mocktest/internal/model"
	"gorm.io/gorm"
)

// TestWithCount is a test row plus the number of its live questions.
type TestWithCount struct {
	model.Test
	QuestionCount int
}

type TestRepository interface {
	Create(ctx context.Context, test *model.Test) error
	Update(ctx context.Context, test *model.Test) error
	FindByID(ctx context.Context, id uint) (*model.Test, error)
	FindByIDWithQuestions(ctx context.Context, id uint) (*model.Test, error)
	FindAllByCreator(ctx context.Context, creatorID uint) ([]TestWithCount, error)
	FindAllPublished(ctx context.Context) ([]TestWithCount, error)
	// SectionCounts returns question counts per section for each of testIDs.
	SectionCounts(ctx context.Context, testIDs []uint) (map[uint]map[string]int, error)
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) Create(ctx context.Context, test *model.Test) error {
	// Inline questions are created through the has-many association.
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *testRepository) Update(ctx context.Context, test *model.Test) error {
	return r.db.WithContext(ctx).Omit("Questions", "PercentileMappings").Save(test).Error
}

func (r *testRepository) FindByID(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	if err := r.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindByIDWithQuestions(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	err := r.db.WithContext(ctx).Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.question_number ASC, questions.id ASC")
	}).First(&test, id).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindAllByCreator(ctx context.Context, creatorID uint) ([]TestWithCount, error) {
	return r.withCounts(ctx, "tests.creator_id = ?", creatorID)
}

func (r *testRepository) FindAllPublished(ctx context.Context) ([]TestWithCount, error) {
	return r.withCounts(ctx, "tests.is_published = ?", true)
}

func (r *testRepository) withCounts(ctx context.Context, cond string, arg any) ([]TestWithCount, error) {
	var results []TestWithCount
	err := r.db.WithContext(ctx).Model(&model.Test{}).
		Select("tests.*, (SELECT COUNT(*) FROM questions WHERE questions.test_id = tests.id AND questions.deleted_at IS NULL) as question_count").
		Where(cond, arg).
		Order("tests.created_at DESC").
		Scan(&results).Error
	return results, err
}

func (r *testRepository) SectionCounts(ctx context.Context, testIDs []uint) (map[uint]map[string]int, error) {
	out := make(map[uint]map[string]int, len(testIDs))
	if len(testIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TestID  uint
		Section string
		Count   int
	}
	err := r.db.WithContext(ctx).Model(&model.Question{}).
		Select("test_id, section, COUNT(*) as count").
		Where("test_id IN ?", testIDs).
		Group("test_id, section").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if out[row.TestID] == nil {
			out[row.TestID] = make(map[string]int)
		}
		out[row.TestID][row.Section] = row.Count
	}
	return out, nil
}
