package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AttemptInProgress = "in_progress"
	AttemptSubmitted  = "submitted"
)

type TestAttempt struct {
	ID     uint `gorm:"primarykey" json:"id"`
	TestID uint `json:"test_id" gorm:"not null;index"`
	Test   Test `json:"test,omitempty" gorm:"foreignKey:TestID"`
	UserID uint `json:"user_id" gorm:"not null;index"`

	Status           string    `json:"status" gorm:"not null;default:'in_progress';index"`
	StartedAt        time.Time `json:"started_at"`
	DurationSeconds  int       `json:"duration_seconds" gorm:"not null"`
	RemainingSeconds int       `json:"remaining_seconds"`
	LastTickAt       time.Time `json:"-"`
	DeadlineAt       time.Time `json:"deadline_at" gorm:"index"`
	CurrentPosition  int       `json:"current_position"`

	// Keys are 0-based positions.
	Responses datatypes.JSONType[map[int]string] `json:"-" gorm:"not null"`
	Review    datatypes.JSONType[[]int]          `json:"-" gorm:"not null"`
	TimeSpent datatypes.JSONType[map[int]int]    `json:"-" gorm:"not null"`

	SubmittedAt      *time.Time `json:"submitted_at,omitempty" gorm:"index"`
	AutoSubmitted    bool       `json:"auto_submitted"`
	TotalTimeSeconds int        `json:"total_time_seconds"`
	TotalMarks       *float64   `json:"total_marks,omitempty"`
	MaxMarks         *float64   `json:"max_marks,omitempty"`
	CorrectCount     int        `json:"correct_count"`
	IncorrectCount   int        `json:"incorrect_count"`
	UnattemptedCount int        `json:"unattempted_count"`
	Rank             *int       `json:"rank,omitempty"`
	Percentile       *float64   `json:"percentile,omitempty"`

	Answers   []Answer       `json:"answers,omitempty" gorm:"foreignKey:TestAttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a TestAttempt) IsFinalized() bool {
	return a.SubmittedAt != nil
}
