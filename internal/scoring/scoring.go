// Package scoring turns a finalized response map into per-question correctness, marks and totals.
package scoring

import (
	"fmt"
	"math"

	"github.com/lshigami/mocktest/internal/exam"
)

type Status string

const (
	StatusCorrect     Status = "correct"
	StatusIncorrect   Status = "incorrect"
	StatusUnattempted Status = "unattempted"
)

// QuestionResult is the scored outcome of one question.
type QuestionResult struct {
	QuestionID    uint
	Position      int
	Section       string
	Selected      string
	CorrectAnswer string
	Status        Status
	Marks         float64
}

func (r QuestionResult) IsCorrect() bool { return r.Status == StatusCorrect }

type Result struct {
	Correct     int
	Incorrect   int
	Unattempted int
	TotalMarks  float64
	MaxMarks    float64
	Questions   []QuestionResult
}

// Score grades responses (position -> raw answer) against questions. Marks are summed in
// hundredths so totals carry exactly two decimal places.
func Score(questions []exam.Question, responses map[int]string) (*Result, error) {
	for pos := range responses {
		if pos < 0 || pos >= len(questions) {
			return nil, fmt.Errorf("%w: position %d of %d", exam.ErrUnknownQuestion, pos, len(questions))
		}
	}

	res := &Result{Questions: make([]QuestionResult, 0, len(questions))}
	var total, max int64
	for i, q := range questions {
		max += Hundredths(q.Marks)

		key, err := exam.Canonicalize(q, q.CorrectAnswer)
		if err != nil {
			return nil, fmt.Errorf("answer key of question %d: %w", q.ID, err)
		}
		qr := QuestionResult{
			QuestionID:    q.ID,
			Position:      i,
			Section:       q.Section,
			CorrectAnswer: key,
			Status:        StatusUnattempted,
		}

		if raw, ok := responses[i]; ok {
			selected, err := exam.Canonicalize(q, raw)
			if err != nil {
				return nil, fmt.Errorf("response to question %d: %w", q.ID, err)
			}
			qr.Selected = selected
		}

		switch {
		case qr.Selected == "":
			res.Unattempted++
		case qr.Selected == key:
			qr.Status = StatusCorrect
			qr.Marks = FromHundredths(Hundredths(q.Marks))
			total += Hundredths(q.Marks)
			res.Correct++
		default:
			qr.Status = StatusIncorrect
			qr.Marks = FromHundredths(Hundredths(q.Penalty()))
			total += Hundredths(q.Penalty())
			res.Incorrect++
		}
		res.Questions = append(res.Questions, qr)
	}

	res.TotalMarks = FromHundredths(total)
	res.MaxMarks = FromHundredths(max)
	return res, nil
}

// Hundredths converts marks to integer hundredths, rounding half away from zero.
func Hundredths(v float64) int64 {
	return int64(math.Round(v * 100))
}

func FromHundredths(v int64) float64 {
	return float64(v) / 100
}

// Round2 rounds marks to two decimal places.
func Round2(v float64) float64 {
	return FromHundredths(Hundredths(v))
}
