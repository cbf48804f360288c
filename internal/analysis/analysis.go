// Package analysis projects scored question results into section breakdowns and review lists.
package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/scoring"
)

// AllSections selects every section in Filter.
const AllSections = "all"

var ErrUnknownFilter = errors.New("unknown review filter")

type StatusFilter string

const (
	FilterAll         StatusFilter = "all"
	FilterCorrect     StatusFilter = "correct"
	FilterIncorrect   StatusFilter = "incorrect"
	FilterUnattempted StatusFilter = "unattempted"
)

// ParseStatusFilter accepts the filter names case-insensitively. An empty string means all.
// "unanswered" is accepted as an alias of unattempted.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "correct":
		return FilterCorrect, nil
	case "incorrect":
		return FilterIncorrect, nil
	case "unattempted", "unanswered":
		return FilterUnattempted, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

type SectionStats struct {
	Section     string
	Correct     int
	Incorrect   int
	Unattempted int
	// Accuracy is correct / (correct + incorrect) * 100, or 0 with nothing attempted.
	Accuracy float64
}

type Report struct {
	Sections []SectionStats
	Overall  SectionStats
}

// Project groups results by section. Known sections come first in their fixed order, any
// other section follows in order of first appearance. Sections without questions are omitted.
func Project(results []scoring.QuestionResult) Report {
	index := make(map[string]int)
	var order []string
	for _, r := range results {
		if _, ok := index[r.Section]; !ok {
			index[r.Section] = -1
			order = append(order, r.Section)
		}
	}

	var sections []string
	for _, s := range exam.Sections {
		if _, ok := index[s]; ok {
			sections = append(sections, s)
		}
	}
	for _, s := range order {
		if !isKnownSection(s) {
			sections = append(sections, s)
		}
	}

	report := Report{Sections: make([]SectionStats, len(sections)), Overall: SectionStats{Section: AllSections}}
	for i, s := range sections {
		index[s] = i
		report.Sections[i].Section = s
	}
	for _, r := range results {
		count(&report.Sections[index[r.Section]], r.Status)
		count(&report.Overall, r.Status)
	}
	for i := range report.Sections {
		report.Sections[i].Accuracy = accuracy(report.Sections[i])
	}
	report.Overall.Accuracy = accuracy(report.Overall)
	return report
}

// Filter returns the results matching status and section, preserving order. The input is not modified.
func Filter(results []scoring.QuestionResult, status StatusFilter, section string) []scoring.QuestionResult {
	out := make([]scoring.QuestionResult, 0, len(results))
	for _, r := range results {
		if section != "" && section != AllSections && r.Section != section {
			continue
		}
		if status != FilterAll && status != "" && string(r.Status) != string(status) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func count(s *SectionStats, status scoring.Status) {
	switch status {
	case scoring.StatusCorrect:
		s.Correct++
	case scoring.StatusIncorrect:
		s.Incorrect++
	default:
		s.Unattempted++
	}
}

func accuracy(s SectionStats) float64 {
	attempted := s.Correct + s.Incorrect
	if attempted == 0 {
		return 0
	}
	return scoring.Round2(float64(s.Correct) / float64(attempted) * 100)
}

func isKnownSection(s string) bool {
	for _, k := range exam.Sections {
		if k == s {
			return true
		}
	}
	return false
}
