package dto

import "time"

// QuestionCreateDTO creates or replaces a question. Options are keyed A-D; multi-select
// answers are comma separated option keys.
type QuestionCreateDTO struct {
	QuestionNumber   int     `json:"question_number" binding:"omitempty,min=1"`
	Section          string  `json:"section" binding:"required,oneof=Physics Chemistry Mathematics"`
	QuestionType     string  `json:"question_type" binding:"required,oneof=MCQ MSQ NUMERICAL"`
	QuestionText     string  `json:"question_text"`
	ImageURL         *string `json:"image_url"`
	OptionA          *string `json:"option_a"`
	OptionB          *string `json:"option_b"`
	OptionC          *string `json:"option_c"`
	OptionD          *string `json:"option_d"`
	CorrectAnswer    string  `json:"correct_answer" binding:"required"`
	Marks            float64 `json:"marks" binding:"gte=0"`
	NegativeMarks    float64 `json:"negative_marks"`
	SolutionText     string  `json:"solution_text"`
	SolutionImageURL *string `json:"solution_image_url"`
	Difficulty       string  `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
}

// TestCreateDTO creates a test, optionally with its questions inline.
type TestCreateDTO struct {
	Title           string              `json:"title" binding:"required"`
	Description     string              `json:"description,omitempty"`
	DurationMinutes int                 `json:"duration_minutes" binding:"required,min=1"`
	Questions       []QuestionCreateDTO `json:"questions" binding:"omitempty,dive"`
}

type TestUpdateDTO struct {
	Title           *string `json:"title" binding:"omitempty,min=1"`
	Description     *string `json:"description"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=1"`
}

type PercentileThresholdDTO struct {
	MinMarks   float64 `json:"min_marks"`
	Percentile float64 `json:"percentile" binding:"gte=0,lte=100"`
}

// PercentileMappingDTO replaces a test's mapping. Thresholds must be strictly increasing.
type PercentileMappingDTO struct {
	Thresholds []PercentileThresholdDTO `json:"thresholds" binding:"required,min=1,dive"`
}

// AdminQuestionDTO is the creator's view of a question, answer key included.
type AdminQuestionDTO struct {
	ID               uint      `json:"id"`
	TestID           uint      `json:"test_id"`
	QuestionNumber   int       `json:"question_number"`
	Section          string    `json:"section"`
	QuestionType     string    `json:"question_type"`
	QuestionText     string    `json:"question_text"`
	ImageURL         *string   `json:"image_url,omitempty"`
	OptionA          *string   `json:"option_a,omitempty"`
	OptionB          *string   `json:"option_b,omitempty"`
	OptionC          *string   `json:"option_c,omitempty"`
	OptionD          *string   `json:"option_d,omitempty"`
	CorrectAnswer    string    `json:"correct_answer"`
	Marks            float64   `json:"marks"`
	NegativeMarks    float64   `json:"negative_marks"`
	SolutionText     string    `json:"solution_text,omitempty"`
	SolutionImageURL *string   `json:"solution_image_url,omitempty"`
	Difficulty       string    `json:"difficulty,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type AdminTestDTO struct {
	ID                 uint                     `json:"id"`
	Title              string                   `json:"title"`
	Description        string                   `json:"description,omitempty"`
	DurationMinutes    int                      `json:"duration_minutes"`
	TotalMarks         float64                  `json:"total_marks"`
	IsPublished        bool                     `json:"is_published"`
	PublishedAt        *time.Time               `json:"published_at,omitempty"`
	QuestionCount      int                      `json:"question_count"`
	Questions          []AdminQuestionDTO       `json:"questions,omitempty"`
	PercentileMappings []PercentileThresholdDTO `json:"percentile_mapping,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
}

// RecomputeResultDTO reports an explicit ranking pass over a test.
type RecomputeResultDTO struct {
	TestID   uint `json:"test_id"`
	Attempts int  `json:"attempts"`
}
