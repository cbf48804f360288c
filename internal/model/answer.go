package model

import (
	"time"

	"gorm.io/gorm"
)

// Answer is one scored response, written once when its attempt is finalized.
type Answer struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	TestAttemptID     uint           `json:"test_attempt_id" gorm:"not null;index"`
	QuestionID        uint           `json:"question_id" gorm:"not null;index"`
	Question          Question       `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	Position          int            `json:"position" gorm:"not null"`
	SelectedAnswer    *string        `json:"selected_answer,omitempty" gorm:"type:text"`
	IsCorrect         bool           `json:"is_correct"`
	Status            string         `json:"status" gorm:"not null"` // "correct", "incorrect", "unattempted"
	MarksObtained     float64        `json:"marks_obtained"`
	TimeSpentSeconds  int            `json:"time_spent_seconds"`
	IsMarkedForReview bool           `json:"is_marked_for_review"`
	AIExplanation     *string        `json:"ai_explanation,omitempty" gorm:"type:text"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
