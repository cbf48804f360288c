package model

import "time"

type PercentileMapping struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	TestID     uint      `json:"test_id" gorm:"not null;uniqueIndex:idx_mapping_test_marks"`
	MinMarks   float64   `json:"min_marks" gorm:"not null;uniqueIndex:idx_mapping_test_marks"`
	Percentile float64   `json:"percentile" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}
