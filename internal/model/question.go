package model

import (
	"time"

	"github.com/lshigami/mocktest/internal/exam"
	"gorm.io/gorm"
)

type Question struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	TestID           uint           `json:"test_id" gorm:"not null;index"`
	QuestionNumber   int            `json:"question_number" gorm:"not null"`
	Section          string         `json:"section" gorm:"not null"`       // "Physics", "Chemistry", "Mathematics"
	QuestionType     string         `json:"question_type" gorm:"not null"` // "MCQ", "MSQ", "NUMERICAL"
	QuestionText     string         `json:"question_text" gorm:"type:text"`
	ImageURL         *string        `json:"image_url,omitempty"`
	OptionA          *string        `json:"option_a,omitempty"`
	OptionB          *string        `json:"option_b,omitempty"`
	OptionC          *string        `json:"option_c,omitempty"`
	OptionD          *string        `json:"option_d,omitempty"`
	CorrectAnswer    string         `json:"correct_answer" gorm:"not null"`
	Marks            float64        `json:"marks" gorm:"not null;default:4"`
	NegativeMarks    float64        `json:"negative_marks" gorm:"not null;default:0"`
	SolutionText     string         `json:"solution_text,omitempty" gorm:"type:text"`
	SolutionImageURL *string        `json:"solution_image_url,omitempty"`
	Difficulty       string         `json:"difficulty,omitempty"` // "Easy", "Medium", "Hard"
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// OptionKeys lists the keys of the options a choice question carries, in A-D order.
// Numeric questions have none.
func (q Question) OptionKeys() []string {
	switch exam.QuestionType(q.QuestionType) {
	case exam.SingleChoice, exam.MultiSelect:
	default:
		return nil
	}
	var keys []string
	for i, opt := range []*string{q.OptionA, q.OptionB, q.OptionC, q.OptionD} {
		if opt != nil {
			keys = append(keys, exam.DefaultOptions[i])
		}
	}
	return keys
}

// ToExam converts stored questions, already ordered by question number, into the engine's
// view. Position is the index in the slice.
func ToExam(questions []Question) []exam.Question {
	out := make([]exam.Question, len(questions))
	for i, q := range questions {
		out[i] = exam.Question{
			ID:            q.ID,
			Position:      i,
			Section:       q.Section,
			Type:          exam.QuestionType(q.QuestionType),
			Options:       q.OptionKeys(),
			CorrectAnswer: q.CorrectAnswer,
			Marks:         q.Marks,
			NegativeMarks: q.NegativeMarks,
			SolutionText:  q.SolutionText,
			Difficulty:    q.Difficulty,
		}
	}
	return out
}
