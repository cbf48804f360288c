package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		allowed []string
		want    []string
		wantErr bool
	}{
		{name: "sorted output", value: "C,A", allowed: DefaultOptions, want: []string{"A", "C"}},
		{name: "spaces around keys", value: "  B , D ", allowed: DefaultOptions, want: []string{"B", "D"}},
		{name: "empty value is unattempted", value: "   ", allowed: DefaultOptions, want: nil},
		{name: "empty token", value: "A,,C", allowed: DefaultOptions, wantErr: true},
		{name: "trailing comma", value: "A,", allowed: DefaultOptions, wantErr: true},
		{name: "duplicate key", value: "A,A", allowed: DefaultOptions, wantErr: true},
		{name: "unknown key", value: "A,E", allowed: DefaultOptions, wantErr: true},
		{name: "no allowed list accepts any key", value: "x,y", want: []string{"x", "y"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSelection(tc.value, tc.allowed)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrAmbiguousMultiSelectFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanonicalize(t *testing.T) {
	msq := Question{Type: MultiSelect, Options: DefaultOptions}
	got, err := Canonicalize(msq, "D, B")
	require.NoError(t, err)
	assert.Equal(t, "B,D", got)

	num := Question{Type: Numeric}
	got, err = Canonicalize(num, " 3.50 ")
	require.NoError(t, err)
	assert.Equal(t, "3.50", got)

	_, err = Canonicalize(msq, "B;D")
	assert.ErrorIs(t, err, ErrAmbiguousMultiSelectFormat)
}

func TestPenaltyIsNeverPositive(t *testing.T) {
	assert.Equal(t, -1.0, Question{NegativeMarks: -1}.Penalty())
	assert.Equal(t, -1.0, Question{NegativeMarks: 1}.Penalty())
	assert.Equal(t, 0.0, Question{}.Penalty())
}

func TestTestValidate(t *testing.T) {
	q := []Question{{ID: 1, Position: 0}, {ID: 2, Position: 1}}

	assert.NoError(t, Test{ID: 1, DurationSeconds: 60, Questions: q}.Validate())
	assert.ErrorIs(t, Test{ID: 1, DurationSeconds: 60}.Validate(), ErrInvalidTestState)
	assert.ErrorIs(t, Test{ID: 1, Questions: q}.Validate(), ErrInvalidTestState)

	swapped := []Question{{ID: 2, Position: 1}, {ID: 1, Position: 0}}
	assert.ErrorIs(t, Test{ID: 1, DurationSeconds: 60, Questions: swapped}.Validate(), ErrInvalidTestState)
}
