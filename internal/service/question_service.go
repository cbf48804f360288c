package service

import (
	"context"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/model"
	"github.com/lshigami/mocktest/internal/repository"
	"github.com/rs/zerolog/log"
)

// QuestionService authors the questions of a test. Questions are frozen once any attempt on
// their test exists.
type QuestionService interface {
	CreateQuestion(ctx context.Context, creatorID, testID uint, req dto.QuestionCreateDTO) (*dto.AdminQuestionDTO, error)
	ListQuestions(ctx context.Context, creatorID, testID uint) ([]dto.AdminQuestionDTO, error)
	UpdateQuestion(ctx context.Context, creatorID, questionID uint, req dto.QuestionCreateDTO) (*dto.AdminQuestionDTO, error)
	DeleteQuestion(ctx context.Context, creatorID, questionID uint) error
}

type questionService struct {
	repo        repository.QuestionRepository
	testRepo    repository.TestRepository
	attemptRepo repository.TestAttemptRepository
}

func NewQuestionService(repo repository.QuestionRepository, testRepo repository.TestRepository, attemptRepo repository.TestAttemptRepository) QuestionService {
	return &questionService{repo: repo, testRepo: testRepo, attemptRepo: attemptRepo}
}

// editable loads an owned test and refuses it once attempts exist.
func (s *questionService) editable(ctx context.Context, creatorID, testID uint) (*model.Test, error) {
	test, err := ownedTest(ctx, s.testRepo, creatorID, testID)
	if err != nil {
		return nil, err
	}
	n, err := s.attemptRepo.CountByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("count attempts of test %d: %w", testID, err)
	}
	if n > 0 {
		return nil, fmt.Errorf("test %d has %d attempts: %w", testID, n, ErrTestLocked)
	}
	return test, nil
}

// refreshTotal keeps the test's total marks equal to the sum over its questions.
func (s *questionService) refreshTotal(ctx context.Context, test *model.Test) error {
	questions, err := s.repo.FindByTestID(ctx, test.ID)
	if err != nil {
		return err
	}
	test.TotalMarks = totalMarks(questions)
	return s.testRepo.Update(ctx, test)
}

func (s *questionService) CreateQuestion(ctx context.Context, creatorID, testID uint, req dto.QuestionCreateDTO) (*dto.AdminQuestionDTO, error) {
	test, err := s.editable(ctx, creatorID, testID)
	if err != nil {
		return nil, err
	}
	question, err := buildQuestion(req)
	if err != nil {
		return nil, err
	}
	question.TestID = testID
	if question.QuestionNumber == 0 {
		last, err := s.repo.MaxNumber(ctx, testID)
		if err != nil {
			return nil, fmt.Errorf("number question: %w", err)
		}
		question.QuestionNumber = last + 1
	}

	if err := s.repo.Create(ctx, &question); err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to create question in service")
		return nil, fmt.Errorf("database error creating question: %w", err)
	}
	if err := s.refreshTotal(ctx, test); err != nil {
		log.Warn().Err(err).Uint("testID", testID).Msg("Failed to refresh test total marks")
	}
	return adminQuestionDTO(&question)
}

func (s *questionService) ListQuestions(ctx context.Context, creatorID, testID uint) ([]dto.AdminQuestionDTO, error) {
	if _, err := ownedTest(ctx, s.testRepo, creatorID, testID); err != nil {
		return nil, err
	}
	questions, err := s.repo.FindByTestID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("error fetching questions: %w", err)
	}
	resp := make([]dto.AdminQuestionDTO, 0, len(questions))
	if err := copier.Copy(&resp, &questions); err != nil {
		return nil, fmt.Errorf("error preparing response data: %w", err)
	}
	return resp, nil
}

func (s *questionService) UpdateQuestion(ctx context.Context, creatorID, questionID uint, req dto.QuestionCreateDTO) (*dto.AdminQuestionDTO, error) {
	existing, err := s.repo.FindByID(ctx, questionID)
	if err != nil {
		return nil, notFound(err, "question", questionID)
	}
	test, err := s.editable(ctx, creatorID, existing.TestID)
	if err != nil {
		return nil, err
	}
	question, err := buildQuestion(req)
	if err != nil {
		return nil, err
	}
	question.ID = existing.ID
	question.TestID = existing.TestID
	question.CreatedAt = existing.CreatedAt
	if question.QuestionNumber == 0 {
		question.QuestionNumber = existing.QuestionNumber
	}

	if err := s.repo.Update(ctx, &question); err != nil {
		log.Error().Err(err).Uint("questionID", questionID).Msg("Failed to update question")
		return nil, fmt.Errorf("database error updating question: %w", err)
	}
	if err := s.refreshTotal(ctx, test); err != nil {
		log.Warn().Err(err).Uint("testID", test.ID).Msg("Failed to refresh test total marks")
	}
	return adminQuestionDTO(&question)
}

func (s *questionService) DeleteQuestion(ctx context.Context, creatorID, questionID uint) error {
	existing, err := s.repo.FindByID(ctx, questionID)
	if err != nil {
		return notFound(err, "question", questionID)
	}
	test, err := s.editable(ctx, creatorID, existing.TestID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, questionID); err != nil {
		return fmt.Errorf("database error deleting question: %w", err)
	}
	if err := s.refreshTotal(ctx, test); err != nil {
		log.Warn().Err(err).Uint("testID", test.ID).Msg("Failed to refresh test total marks")
	}
	return nil
}

func adminQuestionDTO(q *model.Question) (*dto.AdminQuestionDTO, error) {
	var resp dto.AdminQuestionDTO
	if err := copier.Copy(&resp, q); err != nil {
		return nil, fmt.Errorf("error preparing response data: %w", err)
	}
	return &resp, nil
}
