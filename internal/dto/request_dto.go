package dto

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=creator student"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AnswerRequest selects an answer. Multi-select questions may send Options instead of a
// comma separated Answer.
type AnswerRequest struct {
	Answer  string   `json:"answer"`
	Options []string `json:"options"`
}

type NavigateRequest struct {
	Position *int `json:"position" binding:"required"`
}
