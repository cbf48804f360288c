package model

import (
	"testing"

	"github.com/lshigami/mocktest/internal/exam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToExam_OptionsFollowStoredColumns(t *testing.T) {
	opt := func(s string) *string { return &s }
	questions := ToExam([]Question{
		{ID: 10, QuestionType: string(exam.SingleChoice), OptionA: opt("1"), OptionB: opt("2"), OptionC: opt("3"), OptionD: opt("4"), CorrectAnswer: "B"},
		{ID: 11, QuestionType: string(exam.MultiSelect), OptionA: opt("Ne"), OptionB: opt("N"), OptionC: opt("Ar"), CorrectAnswer: "A,C"},
		{ID: 12, QuestionType: string(exam.Numeric), OptionA: opt("ignored"), CorrectAnswer: "42"},
	})
	require.Len(t, questions, 3)

	assert.Equal(t, []string{"A", "B", "C", "D"}, questions[0].Options)
	assert.Equal(t, []string{"A", "B", "C"}, questions[1].Options)
	assert.Nil(t, questions[2].Options)
	assert.Equal(t, []int{0, 1, 2}, []int{questions[0].Position, questions[1].Position, questions[2].Position})

	_, err := exam.Canonicalize(questions[1], "A,D")
	assert.ErrorIs(t, err, exam.ErrAmbiguousMultiSelectFormat)
	canonical, err := exam.Canonicalize(questions[1], "C, A")
	require.NoError(t, err)
	assert.Equal(t, "A,C", canonical)
}
