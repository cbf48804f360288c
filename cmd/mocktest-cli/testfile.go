package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lshigami/mocktest/internal/attempt"
	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/ranking"
	"gopkg.in/yaml.v3"
)

// TestFile is the YAML layout of an offline test.
type TestFile struct {
	Title           string              `yaml:"title"`
	DurationMinutes int                 `yaml:"duration_minutes"`
	Questions       []QuestionFile      `yaml:"questions"`
	RawMapping      []ThresholdFile     `yaml:"percentile_mapping"`
	Mapping         []ranking.Threshold `yaml:"-"`
}

type QuestionFile struct {
	Section       string            `yaml:"section"`
	Type          string            `yaml:"type"`
	Text          string            `yaml:"text"`
	Options       map[string]string `yaml:"options"`
	Answer        string            `yaml:"answer"`
	Marks         float64           `yaml:"marks"`
	NegativeMarks float64           `yaml:"negative_marks"`
	Solution      string            `yaml:"solution"`
	Difficulty    string            `yaml:"difficulty"`
}

// optionKeys lists the A-D keys present in the file, in order.
func (qf QuestionFile) optionKeys() []string {
	var keys []string
	for _, key := range exam.DefaultOptions {
		if _, ok := qf.Options[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

type ThresholdFile struct {
	MinMarks   float64 `yaml:"min_marks"`
	Percentile float64 `yaml:"percentile"`
}

func LoadTestFile(filename string) (*TestFile, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tf := &TestFile{}
	if err := yaml.NewDecoder(f).Decode(tf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	for _, t := range tf.RawMapping {
		tf.Mapping = append(tf.Mapping, ranking.Threshold{MinMarks: t.MinMarks, Percentile: t.Percentile})
	}
	if err := ranking.ValidateMapping(tf.Mapping); err != nil {
		return nil, err
	}
	return tf, nil
}

// Test converts the file into the engine's test. Answer keys are normalized the same way the
// authoring API does it.
func (tf *TestFile) Test() (exam.Test, error) {
	test := exam.Test{ID: 1, DurationSeconds: tf.DurationMinutes * 60}
	for i, qf := range tf.Questions {
		q := exam.Question{
			ID:            uint(i + 1),
			Position:      i,
			Section:       qf.Section,
			Type:          exam.QuestionType(strings.ToUpper(qf.Type)),
			Marks:         qf.Marks,
			NegativeMarks: qf.NegativeMarks,
			SolutionText:  qf.Solution,
			Difficulty:    qf.Difficulty,
		}
		if q.Type == exam.SingleChoice || q.Type == exam.MultiSelect {
			q.Options = qf.optionKeys()
			if len(q.Options) < 2 {
				return exam.Test{}, fmt.Errorf("question %d: choice question needs at least two of the options A-D", i+1)
			}
		}
		key := strings.TrimSpace(qf.Answer)
		switch q.Type {
		case exam.SingleChoice:
			key = strings.ToUpper(key)
			if _, ok := qf.Options[key]; !ok {
				return exam.Test{}, fmt.Errorf("question %d: answer %q is not an option", i+1, qf.Answer)
			}
		case exam.MultiSelect:
			canonical, err := exam.Canonicalize(q, strings.ToUpper(key))
			if err != nil {
				return exam.Test{}, fmt.Errorf("question %d: %w", i+1, err)
			}
			key = canonical
		case exam.Numeric:
		default:
			return exam.Test{}, fmt.Errorf("question %d: unknown type %q", i+1, qf.Type)
		}
		q.CorrectAnswer = key
		test.Questions = append(test.Questions, q)
	}
	if err := test.Validate(); err != nil {
		return exam.Test{}, err
	}
	return test, nil
}

// memStore is a single-attempt store with no other candidates, so every attempt ranks first.
type memStore struct {
	mu        sync.Mutex
	questions []exam.Question
	mapping   []ranking.Threshold
	final     *attempt.Final
}

func (s *memStore) LoadQuestions(ctx context.Context, testID uint) ([]exam.Question, error) {
	return s.questions, nil
}

func (s *memStore) LoadOtherFinalizedTotals(ctx context.Context, testID, excludeAttemptID uint) ([]float64, error) {
	return nil, nil
}

func (s *memStore) LoadPercentileMapping(ctx context.Context, testID uint) ([]ranking.Threshold, error) {
	return s.mapping, nil
}

func (s *memStore) PersistFinalizedAttempt(ctx context.Context, final attempt.Final, summary attempt.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.final != nil {
		return exam.ErrAlreadySubmitted
	}
	s.final = &final
	return nil
}
