package service

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/model"
	"github.com/lshigami/mocktest/internal/ranking"
	"github.com/lshigami/mocktest/internal/repository"
	"github.com/lshigami/mocktest/internal/scoring"
	"github.com/rs/zerolog/log"
)

// AdminTestService is the creator side of tests: authoring, publishing and percentile mappings.
type AdminTestService interface {
	CreateTest(ctx context.Context, creatorID uint, req dto.TestCreateDTO) (*dto.AdminTestDTO, error)
	UpdateTest(ctx context.Context, creatorID, testID uint, req dto.TestUpdateDTO) (*dto.AdminTestDTO, error)
	PublishTest(ctx context.Context, creatorID, testID uint) (*dto.AdminTestDTO, error)
	GetTest(ctx context.Context, creatorID, testID uint) (*dto.AdminTestDTO, error)
	ListTests(ctx context.Context, creatorID uint) ([]dto.AdminTestDTO, error)
	SetPercentileMapping(ctx context.Context, creatorID, testID uint, req dto.PercentileMappingDTO) (*dto.AdminTestDTO, error)
}

type adminTestService struct {
	testRepo       repository.TestRepository
	questionRepo   repository.QuestionRepository
	percentileRepo repository.PercentileRepository
	ranking        RankingService
	now            func() time.Time
}

func NewAdminTestService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	percentileRepo repository.PercentileRepository,
	ranking RankingService,
) AdminTestService {
	return &adminTestService{
		testRepo:       testRepo,
		questionRepo:   questionRepo,
		percentileRepo: percentileRepo,
		ranking:        ranking,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// ownedTest loads a test and checks that creatorID owns it.
func ownedTest(ctx context.Context, repo repository.TestRepository, creatorID, testID uint) (*model.Test, error) {
	test, err := repo.FindByID(ctx, testID)
	if err != nil {
		return nil, notFound(err, "test", testID)
	}
	if test.CreatorID != creatorID {
		return nil, fmt.Errorf("test %d: %w", testID, ErrForbidden)
	}
	return test, nil
}

// buildQuestion validates a question payload and normalizes its answer key and penalty.
func buildQuestion(req dto.QuestionCreateDTO) (model.Question, error) {
	var q model.Question
	if err := copier.Copy(&q, &req); err != nil {
		return q, fmt.Errorf("error preparing question: %w", err)
	}
	if req.Marks < 0 {
		return q, fmt.Errorf("%w: marks must not be negative", ErrInvalidQuestion)
	}
	// A positive penalty is read as a magnitude.
	q.NegativeMarks = -math.Abs(req.NegativeMarks)

	key := strings.TrimSpace(req.CorrectAnswer)
	qt := exam.QuestionType(req.QuestionType)
	options := q.OptionKeys()
	if (qt == exam.SingleChoice || qt == exam.MultiSelect) && len(options) < 2 {
		return q, fmt.Errorf("%w: choice question needs at least two options", ErrInvalidQuestion)
	}
	switch qt {
	case exam.SingleChoice:
		key = strings.ToUpper(key)
		if !slices.Contains(options, key) {
			return q, fmt.Errorf("%w: single choice answer %q is not one of %s", ErrInvalidQuestion, req.CorrectAnswer, strings.Join(options, ","))
		}
	case exam.MultiSelect:
		canonical, err := exam.Canonicalize(exam.Question{Type: exam.MultiSelect, Options: options}, strings.ToUpper(key))
		if err != nil {
			return q, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
		}
		key = canonical
	case exam.Numeric:
		q.OptionA, q.OptionB, q.OptionC, q.OptionD = nil, nil, nil, nil
	default:
		return q, fmt.Errorf("%w: unknown question type %q", ErrInvalidQuestion, req.QuestionType)
	}
	if key == "" {
		return q, fmt.Errorf("%w: correct answer is required", ErrInvalidQuestion)
	}
	q.CorrectAnswer = key
	return q, nil
}

func totalMarks(questions []model.Question) float64 {
	var sum int64
	for _, q := range questions {
		sum += scoring.Hundredths(q.Marks)
	}
	return scoring.FromHundredths(sum)
}

func (s *adminTestService) CreateTest(ctx context.Context, creatorID uint, req dto.TestCreateDTO) (*dto.AdminTestDTO, error) {
	test := model.Test{
		CreatorID:       creatorID,
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
	}
	for i, qDto := range req.Questions {
		q, err := buildQuestion(qDto)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if q.QuestionNumber == 0 {
			q.QuestionNumber = i + 1
		}
		test.Questions = append(test.Questions, q)
	}
	test.TotalMarks = totalMarks(test.Questions)

	if err := s.testRepo.Create(ctx, &test); err != nil {
		log.Error().Err(err).Msg("Failed to create test in database")
		return nil, fmt.Errorf("database error creating test: %w", err)
	}
	log.Info().Uint("testID", test.ID).Int("questions", len(test.Questions)).Msg("Test created")
	return s.GetTest(ctx, creatorID, test.ID)
}

func (s *adminTestService) UpdateTest(ctx context.Context, creatorID, testID uint, req dto.TestUpdateDTO) (*dto.AdminTestDTO, error) {
	test, err := ownedTest(ctx, s.testRepo, creatorID, testID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		test.Title = *req.Title
	}
	if req.Description != nil {
		test.Description = *req.Description
	}
	// Running attempts keep the duration they started with.
	if req.DurationMinutes != nil {
		test.DurationMinutes = *req.DurationMinutes
	}
	if err := s.testRepo.Update(ctx, test); err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to update test")
		return nil, fmt.Errorf("database error updating test: %w", err)
	}
	return s.GetTest(ctx, creatorID, testID)
}

func (s *adminTestService) PublishTest(ctx context.Context, creatorID, testID uint) (*dto.AdminTestDTO, error) {
	test, err := ownedTest(ctx, s.testRepo, creatorID, testID)
	if err != nil {
		return nil, err
	}
	if !test.IsPublished {
		n, err := s.questionRepo.CountByTestID(ctx, testID)
		if err != nil {
			return nil, fmt.Errorf("count questions of test %d: %w", testID, err)
		}
		if n == 0 || test.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: test %d needs at least one question and a positive duration", exam.ErrInvalidTestState, testID)
		}
		now := s.now()
		test.IsPublished = true
		test.PublishedAt = &now
		if err := s.testRepo.Update(ctx, test); err != nil {
			return nil, fmt.Errorf("database error publishing test: %w", err)
		}
		log.Info().Uint("testID", testID).Msg("Test published")
	}
	return s.GetTest(ctx, creatorID, testID)
}

func (s *adminTestService) GetTest(ctx context.Context, creatorID, testID uint) (*dto.AdminTestDTO, error) {
	if _, err := ownedTest(ctx, s.testRepo, creatorID, testID); err != nil {
		return nil, err
	}
	test, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		return nil, notFound(err, "test", testID)
	}
	mapping, err := s.percentileRepo.FindByTestID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load percentile mapping of test %d: %w", testID, err)
	}

	var resp dto.AdminTestDTO
	if err := copier.Copy(&resp, test); err != nil {
		log.Error().Err(err).Msg("Failed to copy Test model to AdminTestDTO")
		return nil, fmt.Errorf("error preparing response data: %w", err)
	}
	resp.QuestionCount = len(test.Questions)
	resp.PercentileMappings = nil
	for _, m := range mapping {
		resp.PercentileMappings = append(resp.PercentileMappings, dto.PercentileThresholdDTO{MinMarks: m.MinMarks, Percentile: m.Percentile})
	}
	return &resp, nil
}

func (s *adminTestService) ListTests(ctx context.Context, creatorID uint) ([]dto.AdminTestDTO, error) {
	tests, err := s.testRepo.FindAllByCreator(ctx, creatorID)
	if err != nil {
		log.Error().Err(err).Uint("creatorID", creatorID).Msg("Failed to list tests")
		return nil, fmt.Errorf("error fetching tests: %w", err)
	}
	out := make([]dto.AdminTestDTO, 0, len(tests))
	for _, t := range tests {
		out = append(out, dto.AdminTestDTO{
			ID:              t.ID,
			Title:           t.Title,
			Description:     t.Description,
			DurationMinutes: t.DurationMinutes,
			TotalMarks:      t.TotalMarks,
			IsPublished:     t.IsPublished,
			PublishedAt:     t.PublishedAt,
			QuestionCount:   t.QuestionCount,
			CreatedAt:       t.CreatedAt,
		})
	}
	return out, nil
}

func (s *adminTestService) SetPercentileMapping(ctx context.Context, creatorID, testID uint, req dto.PercentileMappingDTO) (*dto.AdminTestDTO, error) {
	if _, err := ownedTest(ctx, s.testRepo, creatorID, testID); err != nil {
		return nil, err
	}
	thresholds := make([]ranking.Threshold, len(req.Thresholds))
	rows := make([]model.PercentileMapping, len(req.Thresholds))
	for i, t := range req.Thresholds {
		thresholds[i] = ranking.Threshold{MinMarks: t.MinMarks, Percentile: t.Percentile}
		rows[i] = model.PercentileMapping{MinMarks: t.MinMarks, Percentile: t.Percentile}
	}
	if err := ranking.ValidateMapping(thresholds); err != nil {
		return nil, err
	}
	if err := s.percentileRepo.ReplaceForTest(ctx, testID, rows); err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to replace percentile mapping")
		return nil, fmt.Errorf("database error saving percentile mapping: %w", err)
	}

	attached, err := s.ranking.AttachMissingPercentiles(ctx, testID)
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to attach percentiles")
		return nil, err
	}
	log.Info().Uint("testID", testID).Int("thresholds", len(rows)).Int("attached", attached).Msg("Percentile mapping saved")
	return s.GetTest(ctx, creatorID, testID)
}
