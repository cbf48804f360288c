package attempt

import (
	"context"
	"errors"
	"testing"

	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	questions map[uint][]exam.Question
	totals    map[uint]map[uint]float64
	mappings  map[uint][]ranking.Threshold
	persisted []Final
	summaries []Summary
	failWith  error
}

func newMemStore() *memStore {
	return &memStore{
		questions: map[uint][]exam.Question{7: sampleTest().Questions},
		totals:    map[uint]map[uint]float64{7: {}},
		mappings:  map[uint][]ranking.Threshold{},
	}
}

func (s *memStore) LoadQuestions(_ context.Context, testID uint) ([]exam.Question, error) {
	qs, ok := s.questions[testID]
	if !ok {
		return nil, errors.New("no such test")
	}
	return qs, nil
}

func (s *memStore) LoadOtherFinalizedTotals(_ context.Context, testID, exclude uint) ([]float64, error) {
	var out []float64
	for id, total := range s.totals[testID] {
		if id != exclude {
			out = append(out, total)
		}
	}
	return out, nil
}

func (s *memStore) LoadPercentileMapping(_ context.Context, testID uint) ([]ranking.Threshold, error) {
	return s.mappings[testID], nil
}

func (s *memStore) PersistFinalizedAttempt(_ context.Context, final Final, summary Summary) error {
	if s.failWith != nil {
		return s.failWith
	}
	if _, done := s.totals[summary.TestID][summary.AttemptID]; done {
		return exam.ErrAlreadySubmitted
	}
	s.totals[summary.TestID][summary.AttemptID] = summary.TotalMarks
	s.persisted = append(s.persisted, final)
	s.summaries = append(s.summaries, summary)
	return nil
}

func TestBegin(t *testing.T) {
	store := newMemStore()
	a, err := Begin(context.Background(), store, 1, 99, 7, 600)
	require.NoError(t, err)
	assert.Equal(t, InProgress, a.State())
	assert.Equal(t, 600, a.Remaining())

	_, err = Begin(context.Background(), store, 2, 99, 8, 600)
	assert.Error(t, err)
}

func TestFinalize_ScoresRanksAndPersists(t *testing.T) {
	store := newMemStore()
	store.totals[7][50] = 10
	store.totals[7][51] = 2
	store.totals[7][52] = 5
	store.mappings[7] = []ranking.Threshold{{MinMarks: 0, Percentile: 10}, {MinMarks: 5, Percentile: 60}, {MinMarks: 10, Percentile: 95}}

	a, _ := started(t)
	require.NoError(t, a.SelectAnswer(0, "A"))
	require.NoError(t, a.SelectAnswer(1, "C,B"))
	_, err := a.Tick(90)
	require.NoError(t, err)
	require.NoError(t, a.Submit())

	summary, err := a.Finalize(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Correct)
	assert.Equal(t, 1, summary.Incorrect)
	assert.Equal(t, 1, summary.Unattempted)
	assert.Equal(t, 2.0, summary.TotalMarks)
	assert.Equal(t, 12.0, summary.MaxMarks)
	assert.Equal(t, 90, summary.TotalTimeSeconds)
	require.NotNil(t, summary.Rank)
	assert.Equal(t, 3, *summary.Rank, "10 and 5 are strictly higher, the tie at 2 is not")
	require.NotNil(t, summary.Percentile)
	assert.Equal(t, 10.0, *summary.Percentile)

	require.Len(t, store.persisted, 1)
	assert.Len(t, store.persisted[0].Results, 3)
	assert.Equal(t, Submitted, store.persisted[0].Snapshot.State)
	assert.Len(t, a.Results(), 3)
}

func TestFinalize_NoMappingLeavesPercentileUnset(t *testing.T) {
	store := newMemStore()
	a, _ := started(t)
	require.NoError(t, a.Submit())

	summary, err := a.Finalize(context.Background(), store)
	require.NoError(t, err)
	assert.Nil(t, summary.Percentile)
	assert.Equal(t, 1, *summary.Rank)
}

func TestFinalize_RequiresSubmitted(t *testing.T) {
	a, _ := started(t)
	_, err := a.Finalize(context.Background(), newMemStore())
	assert.ErrorIs(t, err, exam.ErrInvalidTestState)
}

func TestFinalize_ExactlyOnceUnderDoubleExpiry(t *testing.T) {
	store := newMemStore()
	a, _ := started(t)

	for i := 0; i < 3; i++ {
		_, err := a.Tick(180)
		require.NoError(t, err)
	}
	first, err := a.Finalize(context.Background(), store)
	require.NoError(t, err)
	second, err := a.Finalize(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, store.summaries, 1)
	assert.True(t, first.AutoSubmitted)
}

func TestFinalize_StoreRefusesSecondFinalization(t *testing.T) {
	store := newMemStore()
	a, _ := started(t)
	require.NoError(t, a.Submit())
	_, err := a.Finalize(context.Background(), store)
	require.NoError(t, err)

	again, err := Restore(sampleTest(), a.Snapshot())
	require.NoError(t, err)
	_, err = again.Finalize(context.Background(), store)
	assert.ErrorIs(t, err, exam.ErrAlreadySubmitted)
}

func TestFinalize_PersistFailureCanBeRetried(t *testing.T) {
	store := newMemStore()
	store.failWith = errors.New("connection reset")
	a, _ := started(t)
	require.NoError(t, a.Submit())

	_, err := a.Finalize(context.Background(), store)
	require.Error(t, err)

	store.failWith = nil
	summary, err := a.Finalize(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Unattempted)
}
