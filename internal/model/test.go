package model

import (
	"time"

	"gorm.io/gorm"
)

type Test struct {
	ID                 uint                `gorm:"primarykey" json:"id"`
	CreatorID          uint                `json:"creator_id" gorm:"not null;index"`
	Title              string              `json:"title" gorm:"not null"` // "JEE Main Mock 1"
	Description        string              `json:"description,omitempty" gorm:"type:text"`
	DurationMinutes    int                 `json:"duration_minutes" gorm:"not null"`
	TotalMarks         float64             `json:"total_marks"`
	IsPublished        bool                `json:"is_published" gorm:"not null;default:false;index"`
	PublishedAt        *time.Time          `json:"published_at,omitempty"`
	Questions          []Question          `json:"questions,omitempty" gorm:"foreignKey:TestID"`
	PercentileMappings []PercentileMapping `json:"percentile_mappings,omitempty" gorm:"foreignKey:TestID"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	DeletedAt          gorm.DeletedAt      `gorm:"index" json:"-"`
}

func (t Test) DurationSeconds() int {
	return t.DurationMinutes * 60
}
