package attempt

import (
	"testing"
	"time"

	"github.com/lshigami/mocktest/internal/exam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sampleTest() exam.Test {
	return exam.Test{
		ID:              7,
		DurationSeconds: 180,
		Questions: []exam.Question{
			{ID: 11, Position: 0, Section: exam.SectionPhysics, Type: exam.SingleChoice, Options: exam.DefaultOptions, CorrectAnswer: "A", Marks: 4, NegativeMarks: -1},
			{ID: 12, Position: 1, Section: exam.SectionChemistry, Type: exam.MultiSelect, Options: exam.DefaultOptions, CorrectAnswer: "A,C", Marks: 4, NegativeMarks: -2},
			{ID: 13, Position: 2, Section: exam.SectionMathematics, Type: exam.Numeric, CorrectAnswer: "42", Marks: 4},
		},
	}
}

func started(t *testing.T) (*Attempt, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: epoch}
	a := New(1, 99, WithClock(clock.Now))
	require.NoError(t, a.Start(sampleTest()))
	return a, clock
}

func TestStart(t *testing.T) {
	a, _ := started(t)

	snap := a.Snapshot()
	assert.Equal(t, InProgress, snap.State)
	assert.Equal(t, 0, snap.Position)
	assert.Empty(t, snap.Responses)
	assert.Empty(t, snap.Review)
	assert.Equal(t, 180, snap.RemainingSeconds)
	assert.Equal(t, epoch, snap.StartedAt)
	assert.Nil(t, snap.SubmittedAt)
	assert.Equal(t, 3, snap.QuestionCount)
}

func TestStart_RejectsEmptyTest(t *testing.T) {
	a := New(1, 99)
	err := a.Start(exam.Test{ID: 7, DurationSeconds: 60})
	assert.ErrorIs(t, err, exam.ErrInvalidTestState)
	assert.Equal(t, NotStarted, a.State())

	err = a.Start(exam.Test{ID: 7, Questions: sampleTest().Questions})
	assert.ErrorIs(t, err, exam.ErrInvalidTestState)
}

func TestStart_Twice(t *testing.T) {
	a, _ := started(t)
	assert.ErrorIs(t, a.Start(sampleTest()), exam.ErrInvalidTestState)
}

func TestOperationsBeforeStart(t *testing.T) {
	a := New(1, 99)
	assert.ErrorIs(t, a.SelectAnswer(0, "A"), exam.ErrInvalidTestState)
	assert.ErrorIs(t, a.Navigate(0), exam.ErrInvalidTestState)
	_, err := a.Tick(1)
	assert.ErrorIs(t, err, exam.ErrInvalidTestState)
	assert.ErrorIs(t, a.Submit(), exam.ErrInvalidTestState)
}

func TestSelectAnswer(t *testing.T) {
	a, _ := started(t)

	require.NoError(t, a.SelectAnswer(0, "B"))
	require.NoError(t, a.SelectAnswer(0, "A"))
	require.NoError(t, a.SelectAnswer(1, "C, A"))
	require.NoError(t, a.SelectAnswer(2, " 42 "))

	assert.Equal(t, map[int]string{0: "A", 1: "A,C", 2: " 42 "}, a.Responses())
	assert.Empty(t, a.Snapshot().Review, "answering must not mark for review")
}

func TestSelectAnswer_Errors(t *testing.T) {
	a, _ := started(t)

	assert.ErrorIs(t, a.SelectAnswer(3, "A"), exam.ErrOutOfRangeNavigation)
	assert.ErrorIs(t, a.SelectAnswer(-1, "A"), exam.ErrOutOfRangeNavigation)
	assert.ErrorIs(t, a.SelectAnswer(1, "A,A"), exam.ErrAmbiguousMultiSelectFormat)
	assert.Empty(t, a.Responses())
}

func TestClearAnswerAlsoClearsReview(t *testing.T) {
	a, _ := started(t)

	require.NoError(t, a.SelectAnswer(0, "A"))
	marked, err := a.ToggleReview(0)
	require.NoError(t, err)
	require.True(t, marked)

	require.NoError(t, a.ClearAnswer(0))
	assert.False(t, a.IsMarked(0))
	assert.NotContains(t, a.Responses(), 0)

	require.NoError(t, a.ClearAnswer(2), "clearing an empty position is allowed")
}

func TestToggleReviewIndependentOfAnswer(t *testing.T) {
	a, _ := started(t)

	marked, err := a.ToggleReview(2)
	require.NoError(t, err)
	assert.True(t, marked)
	assert.True(t, a.Snapshot().Marked(2))
	assert.False(t, a.Snapshot().Answered(2))

	marked, err = a.ToggleReview(2)
	require.NoError(t, err)
	assert.False(t, marked)

	_, err = a.ToggleReview(5)
	assert.ErrorIs(t, err, exam.ErrOutOfRangeNavigation)
}

func TestNavigate(t *testing.T) {
	a, _ := started(t)
	require.NoError(t, a.SelectAnswer(0, "A"))

	require.NoError(t, a.Navigate(2))
	assert.Equal(t, 2, a.Position())
	assert.ErrorIs(t, a.Navigate(3), exam.ErrOutOfRangeNavigation)
	assert.Equal(t, 2, a.Position())
	assert.Equal(t, map[int]string{0: "A"}, a.Responses())
}

func TestTick_ChargesCurrentQuestion(t *testing.T) {
	a, _ := started(t)

	expired, err := a.Tick(10)
	require.NoError(t, err)
	assert.False(t, expired)
	require.NoError(t, a.Navigate(1))
	_, err = a.Tick(5)
	require.NoError(t, err)

	snap := a.Snapshot()
	assert.Equal(t, 165, snap.RemainingSeconds)
	assert.Equal(t, 15, snap.ElapsedSeconds)
	assert.Equal(t, map[int]int{0: 10, 1: 5}, snap.TimeSpent)
}

func TestTick_AutoSubmitsExactlyOnce(t *testing.T) {
	a, clock := started(t)
	clock.Advance(3 * time.Minute)

	expired, err := a.Tick(200)
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, Submitted, a.State())
	assert.True(t, a.AutoSubmitted())
	assert.Equal(t, 0, a.Remaining())
	assert.Equal(t, 180, a.ElapsedSeconds())

	expired, err = a.Tick(1)
	require.NoError(t, err, "a late tick after expiry is a no-op")
	assert.False(t, expired)

	assert.ErrorIs(t, a.Submit(), exam.ErrAlreadySubmitted)
}

func TestTick_Negative(t *testing.T) {
	a, _ := started(t)
	_, err := a.Tick(-1)
	assert.ErrorIs(t, err, exam.ErrInvalidTestState)
}

func TestSubmit(t *testing.T) {
	a, clock := started(t)
	_, err := a.Tick(30)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)

	require.NoError(t, a.Submit())
	snap := a.Snapshot()
	assert.Equal(t, Submitted, snap.State)
	require.NotNil(t, snap.SubmittedAt)
	assert.Equal(t, epoch.Add(30*time.Second), *snap.SubmittedAt)
	assert.Equal(t, 30, snap.ElapsedSeconds)
	assert.False(t, snap.AutoSubmitted)

	assert.ErrorIs(t, a.Submit(), exam.ErrAlreadySubmitted)
}

func TestMutationsAfterSubmitFail(t *testing.T) {
	a, _ := started(t)
	require.NoError(t, a.Submit())

	assert.ErrorIs(t, a.SelectAnswer(0, "A"), exam.ErrAlreadySubmitted)
	assert.ErrorIs(t, a.ClearAnswer(0), exam.ErrAlreadySubmitted)
	_, err := a.ToggleReview(0)
	assert.ErrorIs(t, err, exam.ErrAlreadySubmitted)
	assert.ErrorIs(t, a.Navigate(1), exam.ErrAlreadySubmitted)
	assert.ErrorIs(t, a.Start(sampleTest()), exam.ErrAlreadySubmitted)
}

func TestRestoreRoundTrip(t *testing.T) {
	a, _ := started(t)
	require.NoError(t, a.SelectAnswer(1, "A,C"))
	_, err := a.ToggleReview(2)
	require.NoError(t, err)
	require.NoError(t, a.Navigate(2))
	_, err = a.Tick(20)
	require.NoError(t, err)

	restored, err := Restore(sampleTest(), a.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, a.Snapshot(), restored.Snapshot())
}

func TestRestore_KeepsSnapshotDuration(t *testing.T) {
	a, _ := started(t)
	test := sampleTest()
	test.DurationSeconds = 9999

	restored, err := Restore(test, a.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, 180, restored.Test().DurationSeconds)
}

func TestRestore_RejectsInvalidSnapshot(t *testing.T) {
	a, _ := started(t)

	snap := a.Snapshot()
	snap.Responses = map[int]string{7: "A"}
	_, err := Restore(sampleTest(), snap)
	assert.ErrorIs(t, err, exam.ErrUnknownQuestion)

	snap = a.Snapshot()
	snap.Review = []int{-1}
	_, err = Restore(sampleTest(), snap)
	assert.ErrorIs(t, err, exam.ErrUnknownQuestion)

	snap = a.Snapshot()
	snap.State = NotStarted
	_, err = Restore(sampleTest(), snap)
	assert.ErrorIs(t, err, exam.ErrInvalidTestState)
}
