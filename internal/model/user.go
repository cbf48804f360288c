package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleCreator = "creator"
	RoleStudent = "student"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Email        string         `json:"email" gorm:"not null;uniqueIndex"`
	PasswordHash string         `json:"-" gorm:"not null"`
	FullName     string         `json:"full_name"`
	Role         string         `json:"role" gorm:"not null;default:'student'"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
