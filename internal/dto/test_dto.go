package dto

import "time"

// QuestionResponseDTO is a question as shown to a student; the answer key is never included.
type QuestionResponseDTO struct {
	ID             uint    `json:"id"`
	Position       int     `json:"position"`
	QuestionNumber int     `json:"question_number"`
	Section        string  `json:"section"`
	QuestionType   string  `json:"question_type"`
	QuestionText   string  `json:"question_text"`
	ImageURL       *string `json:"image_url,omitempty"`
	OptionA        *string `json:"option_a,omitempty"`
	OptionB        *string `json:"option_b,omitempty"`
	OptionC        *string `json:"option_c,omitempty"`
	OptionD        *string `json:"option_d,omitempty"`
	Marks          float64 `json:"marks"`
	NegativeMarks  float64 `json:"negative_marks"`
	Difficulty     string  `json:"difficulty,omitempty"`
}

type TestResponseDTO struct {
	ID              uint                  `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description,omitempty"`
	DurationMinutes int                   `json:"duration_minutes"`
	TotalMarks      float64               `json:"total_marks"`
	Questions       []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

type TestSummaryDTO struct {
	ID              uint           `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	DurationMinutes int            `json:"duration_minutes"`
	TotalMarks      float64        `json:"total_marks"`
	QuestionCount   int            `json:"question_count"`
	SectionCounts   map[string]int `json:"section_counts"`
	CreatedAt       time.Time      `json:"created_at"`
}

// --- Attempts ---

// PaletteEntryDTO is one cell of the question palette.
type PaletteEntryDTO struct {
	Position int    `json:"position"`
	Section  string `json:"section"`
	Answered bool   `json:"answered"`
	Marked   bool   `json:"marked"`
	Current  bool   `json:"current"`
}

// AttemptStateDTO is a live view of an attempt.
type AttemptStateDTO struct {
	AttemptID        uint                 `json:"attempt_id"`
	TestID           uint                 `json:"test_id"`
	State            string               `json:"state"`
	Position         int                  `json:"position"`
	QuestionCount    int                  `json:"question_count"`
	Responses        map[int]string       `json:"responses"`
	Review           []int                `json:"review"`
	DurationSeconds  int                  `json:"duration_seconds"`
	RemainingSeconds int                  `json:"remaining_seconds"`
	StartedAt        time.Time            `json:"started_at"`
	SubmittedAt      *time.Time           `json:"submitted_at,omitempty"`
	AutoSubmitted    bool                 `json:"auto_submitted"`
	Palette          []PaletteEntryDTO    `json:"palette"`
	Question         *QuestionResponseDTO `json:"question,omitempty"`
}

type SubmissionSummaryDTO struct {
	AttemptID        uint      `json:"attempt_id"`
	TestID           uint      `json:"test_id"`
	TestTitle        string    `json:"test_title,omitempty"`
	TotalMarks       float64   `json:"total_marks"`
	MaxMarks         float64   `json:"max_marks"`
	Correct          int       `json:"correct"`
	Incorrect        int       `json:"incorrect"`
	Unattempted      int       `json:"unattempted"`
	Rank             *int      `json:"rank,omitempty"`
	Percentile       *float64  `json:"percentile,omitempty"`
	TotalTimeSeconds int       `json:"total_time_seconds"`
	SubmittedAt      time.Time `json:"submitted_at"`
	AutoSubmitted    bool      `json:"auto_submitted"`
}

// QuestionResultDTO is a scored question, answer and solution revealed.
type QuestionResultDTO struct {
	Position          int     `json:"position"`
	QuestionID        uint    `json:"question_id"`
	Section           string  `json:"section"`
	QuestionType      string  `json:"question_type"`
	QuestionText      string  `json:"question_text"`
	SelectedAnswer    *string `json:"selected_answer,omitempty"`
	CorrectAnswer     string  `json:"correct_answer"`
	Status            string  `json:"status"`
	MarksObtained     float64 `json:"marks_obtained"`
	TimeSpentSeconds  int     `json:"time_spent_seconds"`
	IsMarkedForReview bool    `json:"is_marked_for_review"`
	SolutionText      string  `json:"solution_text,omitempty"`
	SolutionImageURL  *string `json:"solution_image_url,omitempty"`
}

type AttemptResultDTO struct {
	Summary   SubmissionSummaryDTO `json:"summary"`
	Questions []QuestionResultDTO  `json:"questions"`
}

type SectionStatsDTO struct {
	Section     string  `json:"section"`
	Correct     int     `json:"correct"`
	Incorrect   int     `json:"incorrect"`
	Unattempted int     `json:"unattempted"`
	Accuracy    float64 `json:"accuracy"`
}

type AnalysisDTO struct {
	AttemptID uint                `json:"attempt_id"`
	Status    string              `json:"status"`
	Section   string              `json:"section"`
	Sections  []SectionStatsDTO   `json:"sections"`
	Overall   SectionStatsDTO     `json:"overall"`
	Questions []QuestionResultDTO `json:"questions"`
}
