package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/mocktest/internal/analysis"
	"github.com/lshigami/mocktest/internal/attempt"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/model"
	"github.com/lshigami/mocktest/internal/repository"
	"github.com/lshigami/mocktest/internal/scoring"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttemptService runs student attempts. Every call rehydrates the attempt from its row, charges
// the wall time since the last tick to the countdown (which may auto-submit and finalize it),
// applies the operation and saves the new state. Calls on one attempt are serialized.
type AttemptService interface {
	Start(ctx context.Context, userID, testID uint) (*dto.AttemptStateDTO, error)
	Get(ctx context.Context, userID, attemptID uint) (*dto.AttemptStateDTO, error)
	SelectAnswer(ctx context.Context, userID, attemptID uint, position int, value string) (*dto.AttemptStateDTO, error)
	ClearAnswer(ctx context.Context, userID, attemptID uint, position int) (*dto.AttemptStateDTO, error)
	ToggleReview(ctx context.Context, userID, attemptID uint, position int) (*dto.ReviewToggleDTO, error)
	Navigate(ctx context.Context, userID, attemptID uint, position int) (*dto.AttemptStateDTO, error)
	Submit(ctx context.Context, userID, attemptID uint) (*dto.SubmissionSummaryDTO, error)
	Result(ctx context.Context, userID, attemptID uint) (*dto.AttemptResultDTO, error)
	Analysis(ctx context.Context, userID, attemptID uint, status, section string) (*dto.AnalysisDTO, error)
	Explain(ctx context.Context, userID, attemptID uint, position int) (*dto.ExplanationDTO, error)
	ListMine(ctx context.Context, userID uint) ([]dto.SubmissionSummaryDTO, error)
	// ExpireDue finalizes in-progress attempts whose deadline has passed and reports how many
	// it finalized.
	ExpireDue(ctx context.Context, limit int) (int, error)
}

// anyUser skips the ownership check; the expiry sweeper acts on every attempt.
const anyUser uint = 0

type attemptService struct {
	testRepo     repository.TestRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.TestAttemptRepository
	answerRepo   repository.AnswerRepository
	store        attempt.Store
	explainer    SolutionExplainer
	locks        *keyedMutex
	startLocks   *keyedMutex
	now          func() time.Time
}

func NewAttemptService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.TestAttemptRepository,
	answerRepo repository.AnswerRepository,
	store attempt.Store,
	explainer SolutionExplainer,
) AttemptService {
	return newAttemptService(testRepo, questionRepo, attemptRepo, answerRepo, store, explainer, func() time.Time { return time.Now().UTC() })
}

func newAttemptService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.TestAttemptRepository,
	answerRepo repository.AnswerRepository,
	store attempt.Store,
	explainer SolutionExplainer,
	now func() time.Time,
) *attemptService {
	return &attemptService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
		store:        store,
		explainer:    explainer,
		locks:        newKeyedMutex(),
		startLocks:   newKeyedMutex(),
		now:          now,
	}
}

// session is a rehydrated attempt together with what it was loaded from.
type session struct {
	attempt   *attempt.Attempt
	row       *model.TestAttempt
	questions []model.Question
	tickAt    time.Time
	summary   *attempt.Summary
}

// withAttempt loads attemptID for userID, brings its countdown up to date and runs fn on it.
// In-progress state is saved after fn succeeds; a submit inside fn is finalized.
func (s *attemptService) withAttempt(ctx context.Context, userID, attemptID uint, fn func(*session) error) (*session, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	row, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		return nil, notFound(err, "attempt", attemptID)
	}
	if userID != anyUser && row.UserID != userID {
		return nil, fmt.Errorf("attempt %d: %w", attemptID, ErrForbidden)
	}
	questions, err := s.questionRepo.FindByTestID(ctx, row.TestID)
	if err != nil {
		return nil, fmt.Errorf("load questions of test %d: %w", row.TestID, err)
	}

	test := exam.Test{ID: row.TestID, Questions: model.ToExam(questions)}
	a, err := attempt.Restore(test, repository.SnapshotOf(row, len(questions)), attempt.WithClock(s.now))
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Failed to restore attempt")
		return nil, fmt.Errorf("restore attempt %d: %w", attemptID, err)
	}
	sess := &session{attempt: a, row: row, questions: questions, tickAt: row.LastTickAt}

	if a.State() == attempt.InProgress {
		elapsed := int(s.now().Sub(row.LastTickAt) / time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
		// Only whole seconds are charged; the remainder carries to the next call.
		sess.tickAt = row.LastTickAt.Add(time.Duration(elapsed) * time.Second)
		expired, err := a.Tick(elapsed)
		if err != nil {
			return nil, err
		}
		if expired {
			log.Info().Uint("attemptID", attemptID).Msg("Attempt time expired, auto-submitting")
			if err := s.finalize(ctx, sess); err != nil {
				return nil, err
			}
		}
	}

	if fn != nil {
		if err := fn(sess); err != nil {
			return sess, err
		}
	}

	switch {
	case a.State() == attempt.InProgress:
		repository.ApplySnapshot(row, a.Snapshot(), sess.tickAt)
		if err := s.attemptRepo.SaveProgress(ctx, row); err != nil {
			return nil, err
		}
	case !row.IsFinalized() && sess.summary == nil:
		if err := s.finalize(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (s *attemptService) finalize(ctx context.Context, sess *session) error {
	summary, err := sess.attempt.Finalize(ctx, s.store)
	if err != nil {
		if errors.Is(err, exam.ErrAlreadySubmitted) {
			// Another process finalized it first; its result stands.
			log.Debug().Uint("attemptID", sess.row.ID).Msg("Attempt was finalized elsewhere")
			sess.row.SubmittedAt = sess.attempt.Snapshot().SubmittedAt
			return nil
		}
		log.Error().Err(err).Uint("attemptID", sess.row.ID).Msg("Failed to finalize attempt")
		return fmt.Errorf("finalize attempt %d: %w", sess.row.ID, err)
	}
	sess.summary = summary
	log.Info().
		Uint("attemptID", summary.AttemptID).
		Float64("totalMarks", summary.TotalMarks).
		Bool("autoSubmitted", summary.AutoSubmitted).
		Msg("Attempt finalized")
	return nil
}

func (s *attemptService) Start(ctx context.Context, userID, testID uint) (*dto.AttemptStateDTO, error) {
	unlock := s.startLocks.Lock(userID)
	defer unlock()

	test, err := s.testRepo.FindByID(ctx, testID)
	if err != nil {
		return nil, notFound(err, "test", testID)
	}
	if !test.IsPublished {
		return nil, fmt.Errorf("test %d: %w", testID, ErrTestNotPublished)
	}

	existing, err := s.attemptRepo.FindInProgress(ctx, testID, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		log.Error().Err(err).Uint("testID", testID).Uint("userID", userID).Msg("Failed to look up in-progress attempt")
		return nil, fmt.Errorf("look up in-progress attempt: %w", err)
	default:
		state, err := s.Get(ctx, userID, existing.ID)
		if err != nil {
			return nil, err
		}
		if state.State == string(attempt.InProgress) {
			log.Info().Uint("attemptID", existing.ID).Msg("Resuming in-progress attempt")
			return state, nil
		}
	}

	now := s.now()
	a, err := attempt.Begin(ctx, s.store, 0, userID, testID, test.DurationSeconds(), attempt.WithClock(s.now))
	if err != nil {
		return nil, err
	}
	row := &model.TestAttempt{}
	repository.ApplySnapshot(row, a.Snapshot(), now)
	if err := s.attemptRepo.Create(ctx, row); err != nil {
		log.Error().Err(err).Uint("testID", testID).Uint("userID", userID).Msg("Failed to create attempt")
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	a.SetID(row.ID)
	log.Info().Uint("attemptID", row.ID).Uint("testID", testID).Uint("userID", userID).Msg("Attempt started")

	questions, err := s.questionRepo.FindByTestID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load questions of test %d: %w", testID, err)
	}
	return stateDTO(a.Snapshot(), questions), nil
}

func (s *attemptService) Get(ctx context.Context, userID, attemptID uint) (*dto.AttemptStateDTO, error) {
	sess, err := s.withAttempt(ctx, userID, attemptID, nil)
	if err != nil {
		return nil, err
	}
	return sess.state(), nil
}

func (s *attemptService) SelectAnswer(ctx context.Context, userID, attemptID uint, position int, value string) (*dto.AttemptStateDTO, error) {
	sess, err := s.withAttempt(ctx, userID, attemptID, func(sess *session) error {
		return sess.attempt.SelectAnswer(position, value)
	})
	if err != nil {
		return nil, err
	}
	return sess.state(), nil
}

func (s *attemptService) ClearAnswer(ctx context.Context, userID, attemptID uint, position int) (*dto.AttemptStateDTO, error) {
	sess, err := s.withAttempt(ctx, userID, attemptID, func(sess *session) error {
		return sess.attempt.ClearAnswer(position)
	})
	if err != nil {
		return nil, err
	}
	return sess.state(), nil
}

func (s *attemptService) ToggleReview(ctx context.Context, userID, attemptID uint, position int) (*dto.ReviewToggleDTO, error) {
	var marked bool
	_, err := s.withAttempt(ctx, userID, attemptID, func(sess *session) error {
		var err error
		marked, err = sess.attempt.ToggleReview(position)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.ReviewToggleDTO{Position: position, Marked: marked}, nil
}

func (s *attemptService) Navigate(ctx context.Context, userID, attemptID uint, position int) (*dto.AttemptStateDTO, error) {
	sess, err := s.withAttempt(ctx, userID, attemptID, func(sess *session) error {
		return sess.attempt.Navigate(position)
	})
	if err != nil {
		return nil, err
	}
	return sess.state(), nil
}

func (s *attemptService) Submit(ctx context.Context, userID, attemptID uint) (*dto.SubmissionSummaryDTO, error) {
	sess, err := s.withAttempt(ctx, userID, attemptID, func(sess *session) error {
		if err := sess.attempt.Submit(); err != nil {
			return fmt.Errorf("attempt %d: %w", attemptID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sess.summary == nil {
		return nil, fmt.Errorf("attempt %d: %w", attemptID, exam.ErrAlreadySubmitted)
	}
	resp := summaryDTO(*sess.summary)
	return &resp, nil
}

// finalized brings the attempt's countdown up to date and loads it with answers. Results exist
// only once the attempt is finalized.
func (s *attemptService) finalized(ctx context.Context, userID, attemptID uint) (*model.TestAttempt, error) {
	if _, err := s.withAttempt(ctx, userID, attemptID, nil); err != nil {
		return nil, err
	}
	row, err := s.attemptRepo.FindByIDWithDetails(ctx, attemptID)
	if err != nil {
		return nil, notFound(err, "attempt", attemptID)
	}
	if !row.IsFinalized() {
		return nil, fmt.Errorf("%w: attempt %d is still in progress", exam.ErrInvalidTestState, attemptID)
	}
	return row, nil
}

func (s *attemptService) Result(ctx context.Context, userID, attemptID uint) (*dto.AttemptResultDTO, error) {
	row, err := s.finalized(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	resp := &dto.AttemptResultDTO{
		Summary:   rowSummaryDTO(row),
		Questions: make([]dto.QuestionResultDTO, 0, len(row.Answers)),
	}
	for _, answer := range row.Answers {
		resp.Questions = append(resp.Questions, questionResultDTO(answer))
	}
	return resp, nil
}

func (s *attemptService) Analysis(ctx context.Context, userID, attemptID uint, status, section string) (*dto.AnalysisDTO, error) {
	filter, err := analysis.ParseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(section) == "" {
		section = analysis.AllSections
	}
	row, err := s.finalized(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	results := make([]scoring.QuestionResult, 0, len(row.Answers))
	byPosition := make(map[int]model.Answer, len(row.Answers))
	for _, answer := range row.Answers {
		results = append(results, scoredAnswer(answer))
		byPosition[answer.Position] = answer
	}
	report := analysis.Project(results)

	resp := &dto.AnalysisDTO{
		AttemptID: attemptID,
		Status:    string(filter),
		Section:   section,
		Sections:  make([]dto.SectionStatsDTO, 0, len(report.Sections)),
		Overall:   sectionStatsDTO(report.Overall),
		Questions: []dto.QuestionResultDTO{},
	}
	for _, st := range report.Sections {
		resp.Sections = append(resp.Sections, sectionStatsDTO(st))
	}
	for _, r := range analysis.Filter(results, filter, section) {
		resp.Questions = append(resp.Questions, questionResultDTO(byPosition[r.Position]))
	}
	return resp, nil
}

func (s *attemptService) Explain(ctx context.Context, userID, attemptID uint, position int) (*dto.ExplanationDTO, error) {
	row, err := s.finalized(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	var answer *model.Answer
	for i := range row.Answers {
		if row.Answers[i].Position == position {
			answer = &row.Answers[i]
			break
		}
	}
	if answer == nil {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", exam.ErrOutOfRangeNavigation, position, len(row.Answers))
	}
	resp := &dto.ExplanationDTO{AttemptID: attemptID, Position: position, QuestionID: answer.QuestionID}

	if text := strings.TrimSpace(answer.Question.SolutionText); text != "" {
		resp.Source, resp.Explanation = "solution", text
		return resp, nil
	}
	if answer.AIExplanation != nil {
		resp.Source, resp.Explanation = "ai", *answer.AIExplanation
		return resp, nil
	}

	selected := ""
	if answer.SelectedAnswer != nil {
		selected = *answer.SelectedAnswer
	}
	text, err := s.explainer.Explain(ctx, &answer.Question, selected)
	if err != nil {
		if !errors.Is(err, ErrExplainerDisabled) {
			log.Error().Err(err).Uint("attemptID", attemptID).Int("position", position).Msg("Failed to generate explanation")
		}
		return nil, err
	}
	stored, err := s.answerRepo.SaveExplanation(ctx, answer.ID, text)
	if err != nil {
		log.Warn().Err(err).Uint("answerID", answer.ID).Msg("Failed to store AI explanation")
		stored = text
	}
	resp.Source, resp.Explanation = "ai", stored
	return resp, nil
}

func (s *attemptService) ListMine(ctx context.Context, userID uint) ([]dto.SubmissionSummaryDTO, error) {
	rows, err := s.attemptRepo.FindFinalizedByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("Failed to list attempts")
		return nil, fmt.Errorf("error fetching attempts: %w", err)
	}
	out := make([]dto.SubmissionSummaryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, rowSummaryDTO(&rows[i]))
	}
	return out, nil
}

func (s *attemptService) ExpireDue(ctx context.Context, limit int) (int, error) {
	rows, err := s.attemptRepo.FindExpired(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("find expired attempts: %w", err)
	}
	finalized := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			return finalized, ctx.Err()
		}
		sess, err := s.withAttempt(ctx, anyUser, row.ID, nil)
		if err != nil {
			log.Error().Err(err).Uint("attemptID", row.ID).Msg("Failed to expire attempt")
			continue
		}
		if sess.summary != nil {
			finalized++
		}
	}
	return finalized, nil
}

// --- mapping ---

func (sess *session) state() *dto.AttemptStateDTO {
	return stateDTO(sess.attempt.Snapshot(), sess.questions)
}

func stateDTO(snap attempt.Snapshot, questions []model.Question) *dto.AttemptStateDTO {
	resp := &dto.AttemptStateDTO{
		AttemptID:        snap.AttemptID,
		TestID:           snap.TestID,
		State:            string(snap.State),
		Position:         snap.Position,
		QuestionCount:    snap.QuestionCount,
		Responses:        snap.Responses,
		Review:           snap.Review,
		DurationSeconds:  snap.DurationSeconds,
		RemainingSeconds: snap.RemainingSeconds,
		StartedAt:        snap.StartedAt,
		SubmittedAt:      snap.SubmittedAt,
		AutoSubmitted:    snap.AutoSubmitted,
		Palette:          make([]dto.PaletteEntryDTO, len(questions)),
	}
	for i, q := range questions {
		resp.Palette[i] = dto.PaletteEntryDTO{
			Position: i,
			Section:  q.Section,
			Answered: snap.Answered(i),
			Marked:   snap.Marked(i),
			Current:  i == snap.Position,
		}
	}
	if snap.State == attempt.InProgress && snap.Position < len(questions) {
		q := studentQuestionDTO(questions[snap.Position], snap.Position)
		resp.Question = &q
	}
	return resp
}

func studentQuestionDTO(q model.Question, position int) dto.QuestionResponseDTO {
	var out dto.QuestionResponseDTO
	if err := copier.Copy(&out, &q); err != nil {
		log.Warn().Err(err).Uint("questionID", q.ID).Msg("Failed to copy question")
	}
	out.Position = position
	return out
}

func summaryDTO(s attempt.Summary) dto.SubmissionSummaryDTO {
	return dto.SubmissionSummaryDTO{
		AttemptID:        s.AttemptID,
		TestID:           s.TestID,
		TotalMarks:       s.TotalMarks,
		MaxMarks:         s.MaxMarks,
		Correct:          s.Correct,
		Incorrect:        s.Incorrect,
		Unattempted:      s.Unattempted,
		Rank:             s.Rank,
		Percentile:       s.Percentile,
		TotalTimeSeconds: s.TotalTimeSeconds,
		SubmittedAt:      s.SubmittedAt,
		AutoSubmitted:    s.AutoSubmitted,
	}
}

func rowSummaryDTO(row *model.TestAttempt) dto.SubmissionSummaryDTO {
	out := dto.SubmissionSummaryDTO{
		AttemptID:        row.ID,
		TestID:           row.TestID,
		TestTitle:        row.Test.Title,
		Correct:          row.CorrectCount,
		Incorrect:        row.IncorrectCount,
		Unattempted:      row.UnattemptedCount,
		Rank:             row.Rank,
		Percentile:       row.Percentile,
		TotalTimeSeconds: row.TotalTimeSeconds,
		AutoSubmitted:    row.AutoSubmitted,
	}
	if row.TotalMarks != nil {
		out.TotalMarks = *row.TotalMarks
	}
	if row.MaxMarks != nil {
		out.MaxMarks = *row.MaxMarks
	}
	if row.SubmittedAt != nil {
		out.SubmittedAt = *row.SubmittedAt
	}
	return out
}

func questionResultDTO(answer model.Answer) dto.QuestionResultDTO {
	return dto.QuestionResultDTO{
		Position:          answer.Position,
		QuestionID:        answer.QuestionID,
		Section:           answer.Question.Section,
		QuestionType:      answer.Question.QuestionType,
		QuestionText:      answer.Question.QuestionText,
		SelectedAnswer:    answer.SelectedAnswer,
		CorrectAnswer:     answer.Question.CorrectAnswer,
		Status:            answer.Status,
		MarksObtained:     answer.MarksObtained,
		TimeSpentSeconds:  answer.TimeSpentSeconds,
		IsMarkedForReview: answer.IsMarkedForReview,
		SolutionText:      answer.Question.SolutionText,
		SolutionImageURL:  answer.Question.SolutionImageURL,
	}
}

func scoredAnswer(answer model.Answer) scoring.QuestionResult {
	r := scoring.QuestionResult{
		QuestionID:    answer.QuestionID,
		Position:      answer.Position,
		Section:       answer.Question.Section,
		CorrectAnswer: answer.Question.CorrectAnswer,
		Status:        scoring.Status(answer.Status),
		Marks:         answer.MarksObtained,
	}
	if answer.SelectedAnswer != nil {
		r.Selected = *answer.SelectedAnswer
	}
	return r
}

func sectionStatsDTO(st analysis.SectionStats) dto.SectionStatsDTO {
	return dto.SectionStatsDTO{
		Section:     st.Section,
		Correct:     st.Correct,
		Incorrect:   st.Incorrect,
		Unattempted: st.Unattempted,
		Accuracy:    st.Accuracy,
	}
}
