package attempt

import (
	"context"
	"fmt"
	"time"

	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/ranking"
	"github.com/lshigami/mocktest/internal/scoring"
)

// Store is the persistence collaborator the attempt engine reads from and finalizes into.
type Store interface {
	LoadQuestions(ctx context.Context, testID uint) ([]exam.Question, error)
	LoadOtherFinalizedTotals(ctx context.Context, testID, excludeAttemptID uint) ([]float64, error)
	LoadPercentileMapping(ctx context.Context, testID uint) ([]ranking.Threshold, error)
	// PersistFinalizedAttempt must succeed at most once per attempt and return
	// exam.ErrAlreadySubmitted when the attempt was finalized before.
	PersistFinalizedAttempt(ctx context.Context, final Final, summary Summary) error
}

// Final is the finalize-once record handed to the Store: the terminal snapshot and one scored
// result per question.
type Final struct {
	Snapshot Snapshot
	Results  []scoring.QuestionResult
}

// Summary aggregates a finalized attempt. Percentile is nil when the test has no mapping or no
// threshold qualifies.
type Summary struct {
	AttemptID        uint
	TestID           uint
	UserID           uint
	TotalMarks       float64
	MaxMarks         float64
	Correct          int
	Incorrect        int
	Unattempted      int
	Rank             *int
	Percentile       *float64
	TotalTimeSeconds int
	SubmittedAt      time.Time
	AutoSubmitted    bool
}

// Begin loads the test's questions and starts a new attempt on them.
func Begin(ctx context.Context, store Store, id, userID, testID uint, durationSeconds int, opts ...Option) (*Attempt, error) {
	questions, err := store.LoadQuestions(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load questions of test %d: %w", testID, err)
	}
	a := New(id, userID, opts...)
	if err := a.Start(exam.Test{ID: testID, DurationSeconds: durationSeconds, Questions: questions}); err != nil {
		return nil, err
	}
	return a, nil
}

// Finalize scores a submitted attempt, ranks it against the other finalized attempts of the
// test, resolves its percentile and persists everything through store. A finalized attempt
// returns the same summary on every later call.
func (a *Attempt) Finalize(ctx context.Context, store Store) (*Summary, error) {
	if a.summary != nil {
		s := *a.summary
		return &s, nil
	}
	if a.state != Submitted {
		return nil, fmt.Errorf("%w: attempt %d is %s", exam.ErrInvalidTestState, a.id, a.state)
	}

	scored, err := scoring.Score(a.test.Questions, a.responses)
	if err != nil {
		return nil, fmt.Errorf("score attempt %d: %w", a.id, err)
	}
	others, err := store.LoadOtherFinalizedTotals(ctx, a.test.ID, a.id)
	if err != nil {
		return nil, fmt.Errorf("load finalized totals of test %d: %w", a.test.ID, err)
	}
	mapping, err := store.LoadPercentileMapping(ctx, a.test.ID)
	if err != nil {
		return nil, fmt.Errorf("load percentile mapping of test %d: %w", a.test.ID, err)
	}

	rank := ranking.Rank(scored.TotalMarks, others)
	summary := Summary{
		AttemptID:        a.id,
		TestID:           a.test.ID,
		UserID:           a.userID,
		TotalMarks:       scored.TotalMarks,
		MaxMarks:         scored.MaxMarks,
		Correct:          scored.Correct,
		Incorrect:        scored.Incorrect,
		Unattempted:      scored.Unattempted,
		Rank:             &rank,
		TotalTimeSeconds: a.ElapsedSeconds(),
		SubmittedAt:      a.submittedAt,
		AutoSubmitted:    a.autoSubmitted,
	}
	if p, ok := ranking.Percentile(mapping, scored.TotalMarks); ok {
		summary.Percentile = &p
	}

	final := Final{Snapshot: a.Snapshot(), Results: scored.Questions}
	if err := store.PersistFinalizedAttempt(ctx, final, summary); err != nil {
		return nil, err
	}
	a.summary = &summary
	a.results = scored.Questions

	out := summary
	return &out, nil
}

// Results returns the scored questions of a finalized attempt, or nil before Finalize.
func (a *Attempt) Results() []scoring.QuestionResult {
	return a.results
}
