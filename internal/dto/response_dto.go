package dto

import "time"

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type UserDTO struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}

type LeaderboardEntryDTO struct {
	Rank       int     `json:"rank"`
	AttemptID  uint    `json:"attempt_id"`
	UserID     uint    `json:"user_id"`
	TotalMarks float64 `json:"total_marks"`
}

type ReviewToggleDTO struct {
	Position int  `json:"position"`
	Marked   bool `json:"marked"`
}

// ExplanationDTO carries a question's solution. Source is "solution" for authored text and
// "ai" for a generated explanation.
type ExplanationDTO struct {
	AttemptID   uint   `json:"attempt_id"`
	Position    int    `json:"position"`
	QuestionID  uint   `json:"question_id"`
	Source      string `json:"source"`
	Explanation string `json:"explanation"`
}
