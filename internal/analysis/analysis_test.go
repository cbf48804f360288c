package analysis

import (
	"testing"

	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(pos int, section string, status scoring.Status) scoring.QuestionResult {
	return scoring.QuestionResult{QuestionID: uint(pos + 1), Position: pos, Section: section, Status: status}
}

func sampleResults() []scoring.QuestionResult {
	return []scoring.QuestionResult{
		result(0, exam.SectionMathematics, scoring.StatusCorrect),
		result(1, exam.SectionPhysics, scoring.StatusCorrect),
		result(2, exam.SectionPhysics, scoring.StatusIncorrect),
		result(3, exam.SectionPhysics, scoring.StatusIncorrect),
		result(4, exam.SectionPhysics, scoring.StatusUnattempted),
		result(5, exam.SectionMathematics, scoring.StatusUnattempted),
		result(6, "Biology", scoring.StatusCorrect),
	}
}

func TestProject_SectionBreakdown(t *testing.T) {
	report := Project(sampleResults())

	require.Len(t, report.Sections, 3)
	assert.Equal(t, exam.SectionPhysics, report.Sections[0].Section)
	assert.Equal(t, exam.SectionMathematics, report.Sections[1].Section)
	assert.Equal(t, "Biology", report.Sections[2].Section)

	phy := report.Sections[0]
	assert.Equal(t, 1, phy.Correct)
	assert.Equal(t, 2, phy.Incorrect)
	assert.Equal(t, 1, phy.Unattempted)
	assert.Equal(t, 33.33, phy.Accuracy)

	maths := report.Sections[1]
	assert.Equal(t, 100.0, maths.Accuracy)

	assert.Equal(t, 3, report.Overall.Correct)
	assert.Equal(t, 2, report.Overall.Incorrect)
	assert.Equal(t, 2, report.Overall.Unattempted)
	assert.Equal(t, 60.0, report.Overall.Accuracy)
}

func TestProject_ZeroAttemptedAccuracy(t *testing.T) {
	report := Project([]scoring.QuestionResult{result(0, exam.SectionChemistry, scoring.StatusUnattempted)})

	require.Len(t, report.Sections, 1)
	assert.Equal(t, 0.0, report.Sections[0].Accuracy)
	assert.Equal(t, 1, report.Sections[0].Unattempted)
}

func TestFilter(t *testing.T) {
	results := sampleResults()

	tests := []struct {
		name      string
		status    StatusFilter
		section   string
		positions []int
	}{
		{name: "everything", status: FilterAll, section: AllSections, positions: []int{0, 1, 2, 3, 4, 5, 6}},
		{name: "correct only", status: FilterCorrect, section: AllSections, positions: []int{0, 1, 6}},
		{name: "incorrect physics", status: FilterIncorrect, section: exam.SectionPhysics, positions: []int{2, 3}},
		{name: "unattempted maths", status: FilterUnattempted, section: exam.SectionMathematics, positions: []int{5}},
		{name: "no match", status: FilterIncorrect, section: exam.SectionChemistry, positions: []int{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(results, tc.status, tc.section)
			positions := make([]int, 0, len(got))
			for _, r := range got {
				positions = append(positions, r.Position)
			}
			assert.Equal(t, tc.positions, positions)
		})
	}
	assert.Len(t, results, 7, "filtering must not modify its input")
}

func TestParseStatusFilter(t *testing.T) {
	f, err := ParseStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParseStatusFilter("Unanswered")
	require.NoError(t, err)
	assert.Equal(t, FilterUnattempted, f)

	_, err = ParseStatusFilter("skipped")
	assert.ErrorIs(t, err, ErrUnknownFilter)
}
