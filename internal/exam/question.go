package exam

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

type QuestionType string

const (
	SingleChoice QuestionType = "MCQ"
	MultiSelect  QuestionType = "MSQ"
	Numeric      QuestionType = "NUMERICAL"
)

const (
	SectionPhysics     = "Physics"
	SectionChemistry   = "Chemistry"
	SectionMathematics = "Mathematics"
)

// Sections lists the subject groupings in display order.
var Sections = []string{SectionPhysics, SectionChemistry, SectionMathematics}

// DefaultOptions are the option keys of a four-option choice question.
var DefaultOptions = []string{"A", "B", "C", "D"}

// Question is the read-only view of one test question used by the attempt engine.
type Question struct {
	ID            uint
	Position      int
	Section       string
	Type          QuestionType
	Options       []string
	CorrectAnswer string
	Marks         float64
	NegativeMarks float64
	SolutionText  string
	Difficulty    string
}

// Penalty returns the signed contribution of an incorrect answer. Negative marks may be stored
// either signed or as a magnitude; both read as a value <= 0.
func (q Question) Penalty() float64 {
	return -math.Abs(q.NegativeMarks)
}

// Canonicalize normalizes an answer value for comparison against the question's key.
// Choice and numeric answers are trimmed. Multi-select answers become the sorted,
// comma-joined set of option keys. An empty result means unattempted.
func Canonicalize(q Question, value string) (string, error) {
	if q.Type != MultiSelect {
		return strings.TrimSpace(value), nil
	}
	keys, err := ParseSelection(value, q.Options)
	if err != nil {
		return "", err
	}
	return strings.Join(keys, ","), nil
}

// ParseSelection splits a comma separated multi-select value into a sorted set of option keys.
// Empty tokens, repeated keys and keys outside allowed (when allowed is non-empty) are rejected.
func ParseSelection(value string, allowed []string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	valid := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		valid[k] = struct{}{}
	}

	seen := make(map[string]struct{})
	keys := make([]string, 0, 4)
	for _, raw := range strings.Split(value, ",") {
		key := strings.TrimSpace(raw)
		if key == "" {
			return nil, fmt.Errorf("%w: empty option in %q", ErrAmbiguousMultiSelectFormat, value)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: option %q repeated", ErrAmbiguousMultiSelectFormat, key)
		}
		if len(valid) > 0 {
			if _, ok := valid[key]; !ok {
				return nil, fmt.Errorf("%w: unknown option %q", ErrAmbiguousMultiSelectFormat, key)
			}
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Test is a test as seen by one attempt: its duration and ordered questions.
type Test struct {
	ID              uint
	DurationSeconds int
	Questions       []Question
}

// Validate checks that the test can be attempted and that question positions are 0..n-1 in order.
func (t Test) Validate() error {
	if len(t.Questions) == 0 {
		return fmt.Errorf("%w: test %d has no questions", ErrInvalidTestState, t.ID)
	}
	if t.DurationSeconds <= 0 {
		return fmt.Errorf("%w: test %d has no positive duration", ErrInvalidTestState, t.ID)
	}
	for i, q := range t.Questions {
		if q.Position != i {
			return fmt.Errorf("%w: question %d is at position %d, expected %d", ErrInvalidTestState, q.ID, q.Position, i)
		}
	}
	return nil
}
