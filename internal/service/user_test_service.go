package service

import (
	"context"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/repository"
	"github.com/rs/zerolog/log"
)

// UserTestService is the student catalogue of published tests.
type UserTestService interface {
	GetAllTests(ctx context.Context) ([]dto.TestSummaryDTO, error)
	GetTestDetails(ctx context.Context, testID uint) (*dto.TestResponseDTO, error)
}

type userTestService struct {
	testRepo repository.TestRepository
}

func NewUserTestService(testRepo repository.TestRepository) UserTestService {
	return &userTestService{testRepo: testRepo}
}

func (s *userTestService) GetAllTests(ctx context.Context) ([]dto.TestSummaryDTO, error) {
	testsWithCount, err := s.testRepo.FindAllPublished(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get published tests from repository")
		return nil, fmt.Errorf("error fetching tests: %w", err)
	}
	ids := make([]uint, len(testsWithCount))
	for i, twc := range testsWithCount {
		ids[i] = twc.ID
	}
	sections, err := s.testRepo.SectionCounts(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count questions per section")
		return nil, fmt.Errorf("error fetching tests: %w", err)
	}

	dtos := make([]dto.TestSummaryDTO, 0, len(testsWithCount))
	for _, twc := range testsWithCount {
		counts := sections[twc.ID]
		if counts == nil {
			counts = map[string]int{}
		}
		dtos = append(dtos, dto.TestSummaryDTO{
			ID:              twc.Test.ID,
			Title:           twc.Test.Title,
			Description:     twc.Test.Description,
			DurationMinutes: twc.Test.DurationMinutes,
			TotalMarks:      twc.Test.TotalMarks,
			QuestionCount:   twc.QuestionCount,
			SectionCounts:   counts,
			CreatedAt:       twc.Test.CreatedAt,
		})
	}
	return dtos, nil
}

// GetTestDetails returns a published test without answer keys or solutions.
func (s *userTestService) GetTestDetails(ctx context.Context, testID uint) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		return nil, notFound(err, "test", testID)
	}
	if !test.IsPublished {
		return nil, fmt.Errorf("test %d: %w", testID, ErrNotFound)
	}

	resp := &dto.TestResponseDTO{
		ID:              test.ID,
		Title:           test.Title,
		Description:     test.Description,
		DurationMinutes: test.DurationMinutes,
		TotalMarks:      test.TotalMarks,
		CreatedAt:       test.CreatedAt,
	}
	for i, q := range test.Questions {
		var qDto dto.QuestionResponseDTO
		if err := copier.Copy(&qDto, &q); err != nil {
			log.Error().Err(err).Msg("Failed to copy Question model to QuestionResponseDTO")
			return nil, fmt.Errorf("error preparing test details response: %w", err)
		}
		qDto.Position = i
		resp.Questions = append(resp.Questions, qDto)
	}
	return resp, nil
}
