package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/mocktest/internal/attempt"
	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/model"
	"github.com/lshigami/mocktest/internal/ranking"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// attemptStore is the gorm-backed attempt.Store. Finalization is persisted with a conditional
// update so concurrent finalizers of one attempt cannot both succeed.
type attemptStore struct {
	db          *gorm.DB
	leaderboard LeaderboardIndex
}

func NewAttemptStore(db *gorm.DB, leaderboard LeaderboardIndex) attempt.Store {
	return &attemptStore{db: db, leaderboard: leaderboard}
}

func (s *attemptStore) LoadQuestions(ctx context.Context, testID uint) ([]exam.Question, error) {
	var questions []model.Question
	err := s.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("question_number ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return model.ToExam(questions), nil
}

func (s *attemptStore) LoadOtherFinalizedTotals(ctx context.Context, testID, excludeAttemptID uint) ([]float64, error) {
	var totals []float64
	err := s.db.WithContext(ctx).Model(&model.TestAttempt{}).
		Where("test_id = ? AND id <> ? AND submitted_at IS NOT NULL AND total_marks IS NOT NULL", testID, excludeAttemptID).
		Pluck("total_marks", &totals).Error
	return totals, err
}

func (s *attemptStore) LoadPercentileMapping(ctx context.Context, testID uint) ([]ranking.Threshold, error) {
	var rows []model.PercentileMapping
	if err := s.db.WithContext(ctx).Where("test_id = ?", testID).Order("min_marks ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return Thresholds(rows), nil
}

func (s *attemptStore) PersistFinalizedAttempt(ctx context.Context, final attempt.Final, summary attempt.Summary) error {
	snap := final.Snapshot
	if snap.SubmittedAt == nil {
		return fmt.Errorf("%w: attempt %d has no submission time", exam.ErrInvalidTestState, snap.AttemptID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &model.TestAttempt{ID: snap.AttemptID}
		ApplySnapshot(row, snap, *snap.SubmittedAt)
		cols := progressColumns(row)
		cols["submitted_at"] = summary.SubmittedAt
		cols["auto_submitted"] = summary.AutoSubmitted
		cols["total_time_seconds"] = summary.TotalTimeSeconds
		cols["total_marks"] = summary.TotalMarks
		cols["max_marks"] = summary.MaxMarks
		cols["correct_count"] = summary.Correct
		cols["incorrect_count"] = summary.Incorrect
		cols["unattempted_count"] = summary.Unattempted
		cols["rank"] = summary.Rank
		cols["percentile"] = summary.Percentile

		res := tx.Model(&model.TestAttempt{}).
			Where("id = ? AND submitted_at IS NULL", snap.AttemptID).
			Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: attempt %d", exam.ErrAlreadySubmitted, snap.AttemptID)
		}

		answers := make([]model.Answer, 0, len(final.Results))
		for _, qr := range final.Results {
			answer := model.Answer{
				TestAttemptID:     snap.AttemptID,
				QuestionID:        qr.QuestionID,
				Position:          qr.Position,
				IsCorrect:         qr.IsCorrect(),
				Status:            string(qr.Status),
				MarksObtained:     qr.Marks,
				TimeSpentSeconds:  snap.TimeSpent[qr.Position],
				IsMarkedForReview: snap.Marked(qr.Position),
			}
			if qr.Selected != "" {
				selected := qr.Selected
				answer.SelectedAnswer = &selected
			}
			answers = append(answers, answer)
		}
		if len(answers) == 0 {
			return nil
		}
		return tx.Omit("Question").Create(&answers).Error
	})
	if err != nil {
		return err
	}

	if s.leaderboard != nil {
		entry := LeaderboardEntry{AttemptID: snap.AttemptID, UserID: summary.UserID, TotalMarks: summary.TotalMarks}
		if err := s.leaderboard.Record(ctx, summary.TestID, entry); err != nil && !errors.Is(err, ErrLeaderboardDisabled) {
			log.Warn().Err(err).Uint("attemptID", snap.AttemptID).Msg("Failed to index finalized attempt on leaderboard")
		}
	}
	return nil
}

// Thresholds converts stored mapping rows into the resolver's form.
func Thresholds(rows []model.PercentileMapping) []ranking.Threshold {
	out := make([]ranking.Threshold, len(rows))
	for i, row := range rows {
		out[i] = ranking.Threshold{MinMarks: row.MinMarks, Percentile: row.Percentile}
	}
	return out
}

// SnapshotOf reads the persisted attempt state of row.
func SnapshotOf(row *model.TestAttempt, questionCount int) attempt.Snapshot {
	snap := attempt.Snapshot{
		AttemptID:        row.ID,
		TestID:           row.TestID,
		UserID:           row.UserID,
		State:            attempt.InProgress,
		Position:         row.CurrentPosition,
		QuestionCount:    questionCount,
		Responses:        row.Responses.Data(),
		Review:           row.Review.Data(),
		TimeSpent:        row.TimeSpent.Data(),
		DurationSeconds:  row.DurationSeconds,
		RemainingSeconds: row.RemainingSeconds,
		ElapsedSeconds:   row.DurationSeconds - row.RemainingSeconds,
		StartedAt:        row.StartedAt,
		SubmittedAt:      row.SubmittedAt,
		AutoSubmitted:    row.AutoSubmitted,
	}
	if row.SubmittedAt != nil {
		snap.State = attempt.Submitted
		snap.ElapsedSeconds = row.TotalTimeSeconds
	}
	return snap
}

// ApplySnapshot copies snap onto row. tickAt is the instant the snapshot's remaining time was
// last charged; the deadline follows from it.
func ApplySnapshot(row *model.TestAttempt, snap attempt.Snapshot, tickAt time.Time) {
	row.ID = snap.AttemptID
	row.TestID = snap.TestID
	row.UserID = snap.UserID
	row.Status = model.AttemptInProgress
	if snap.State == attempt.Submitted {
		row.Status = model.AttemptSubmitted
	}
	row.StartedAt = snap.StartedAt
	row.DurationSeconds = snap.DurationSeconds
	row.RemainingSeconds = snap.RemainingSeconds
	row.LastTickAt = tickAt
	row.DeadlineAt = tickAt.Add(time.Duration(snap.RemainingSeconds) * time.Second)
	row.CurrentPosition = snap.Position
	row.Responses = datatypes.NewJSONType(snap.Responses)
	row.Review = datatypes.NewJSONType(snap.Review)
	row.TimeSpent = datatypes.NewJSONType(snap.TimeSpent)
	row.AutoSubmitted = snap.AutoSubmitted
}
