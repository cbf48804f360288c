package scoring

import (
	"testing"

	"github.com/lshigami/mocktest/internal/exam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcq(pos int, answer string, marks, negative float64) exam.Question {
	return exam.Question{
		ID:            uint(pos + 1),
		Position:      pos,
		Section:       exam.SectionPhysics,
		Type:          exam.SingleChoice,
		Options:       exam.DefaultOptions,
		CorrectAnswer: answer,
		Marks:         marks,
		NegativeMarks: negative,
	}
}

func TestScore_CorrectIncorrectUnattempted(t *testing.T) {
	questions := []exam.Question{
		mcq(0, "A", 4, -1),
		mcq(1, "B", 4, -1),
		mcq(2, "C", 4, -1),
	}
	responses := map[int]string{0: "A", 1: "D"}

	res, err := Score(questions, responses)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 1, res.Incorrect)
	assert.Equal(t, 1, res.Unattempted)
	assert.Equal(t, 3.00, res.TotalMarks)
	assert.Equal(t, 12.00, res.MaxMarks)
	require.Len(t, res.Questions, 3)
	assert.Equal(t, StatusCorrect, res.Questions[0].Status)
	assert.Equal(t, -1.0, res.Questions[1].Marks)
	assert.Equal(t, StatusUnattempted, res.Questions[2].Status)
	assert.Equal(t, 0.0, res.Questions[2].Marks)
}

func TestScore_PerQuestionRules(t *testing.T) {
	tests := []struct {
		name     string
		question exam.Question
		response string
		status   Status
		marks    float64
	}{
		{name: "trimmed match", question: mcq(0, " B ", 4, -1), response: "B  ", status: StatusCorrect, marks: 4},
		{name: "case sensitive", question: mcq(0, "b", 4, -1), response: "B", status: StatusIncorrect, marks: -1},
		{name: "whitespace only is unattempted", question: mcq(0, "B", 4, -1), response: "   ", status: StatusUnattempted, marks: 0},
		{name: "penalty magnitude reads negative", question: mcq(0, "B", 4, 2), response: "A", status: StatusIncorrect, marks: -2},
		{name: "no negative marking", question: mcq(0, "B", 4, 0), response: "A", status: StatusIncorrect, marks: 0},
		{
			name:     "numeric exact string",
			question: exam.Question{Type: exam.Numeric, CorrectAnswer: "2.5", Marks: 4, NegativeMarks: 0},
			response: " 2.5 ",
			status:   StatusCorrect,
			marks:    4,
		},
		{
			name:     "numeric has no tolerance",
			question: exam.Question{Type: exam.Numeric, CorrectAnswer: "2.5", Marks: 4, NegativeMarks: 0},
			response: "2.50",
			status:   StatusIncorrect,
			marks:    0,
		},
		{
			name:     "multi select order independent",
			question: exam.Question{Type: exam.MultiSelect, Options: exam.DefaultOptions, CorrectAnswer: "A,C", Marks: 4, NegativeMarks: -2},
			response: "C,A",
			status:   StatusCorrect,
			marks:    4,
		},
		{
			name:     "multi select subset is wrong",
			question: exam.Question{Type: exam.MultiSelect, Options: exam.DefaultOptions, CorrectAnswer: "A,C", Marks: 4, NegativeMarks: -2},
			response: "A",
			status:   StatusIncorrect,
			marks:    -2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Score([]exam.Question{tc.question}, map[int]string{0: tc.response})
			require.NoError(t, err)
			require.Len(t, res.Questions, 1)
			assert.Equal(t, tc.status, res.Questions[0].Status)
			assert.Equal(t, tc.marks, res.Questions[0].Marks)
			assert.Equal(t, tc.marks, res.TotalMarks)
			assert.Equal(t, 1, res.Correct+res.Incorrect+res.Unattempted)
		})
	}
}

func TestScore_FractionalMarksDoNotDrift(t *testing.T) {
	var questions []exam.Question
	responses := map[int]string{}
	for i := 0; i < 10; i++ {
		questions = append(questions, mcq(i, "A", 0.1, -0.33))
		responses[i] = "A"
	}
	responses[9] = "B"

	res, err := Score(questions, responses)
	require.NoError(t, err)
	assert.Equal(t, 0.57, res.TotalMarks)
	assert.Equal(t, 1.0, res.MaxMarks)
}

func TestScore_UnknownPositionFailsFast(t *testing.T) {
	_, err := Score([]exam.Question{mcq(0, "A", 4, -1)}, map[int]string{3: "A"})
	assert.ErrorIs(t, err, exam.ErrUnknownQuestion)

	_, err = Score([]exam.Question{mcq(0, "A", 4, -1)}, map[int]string{-1: "A"})
	assert.ErrorIs(t, err, exam.ErrUnknownQuestion)
}

func TestScore_MalformedMultiSelect(t *testing.T) {
	q := exam.Question{Type: exam.MultiSelect, Options: exam.DefaultOptions, CorrectAnswer: "A,C", Marks: 4}
	_, err := Score([]exam.Question{q}, map[int]string{0: "A,,C"})
	assert.ErrorIs(t, err, exam.ErrAmbiguousMultiSelectFormat)
}

func TestScore_ResponseOrderDoesNotMatter(t *testing.T) {
	questions := []exam.Question{mcq(0, "A", 4, -1), mcq(1, "B", 4, -1), mcq(2, "C", 4, -1), mcq(3, "D", 4, -1)}

	first := map[int]string{}
	first[0], first[1], first[2], first[3] = "A", "C", "C", "A"
	second := map[int]string{}
	second[3], second[2], second[1], second[0] = "A", "C", "C", "A"

	a, err := Score(questions, first)
	require.NoError(t, err)
	b, err := Score(questions, second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestScore_CountsAlwaysCoverEveryQuestion(t *testing.T) {
	questions := []exam.Question{mcq(0, "A", 4, -1), mcq(1, "B", 4, -1), mcq(2, "C", 4, -1), mcq(3, "D", 4, -1), mcq(4, "A", 4, -1)}
	for _, responses := range []map[int]string{
		{},
		{0: "A"},
		{0: "B", 1: "B", 2: "", 4: "A"},
		{0: "A", 1: "B", 2: "C", 3: "D", 4: "A"},
	} {
		res, err := Score(questions, responses)
		require.NoError(t, err)
		assert.Equal(t, len(questions), res.Correct+res.Incorrect+res.Unattempted)
	}
}
