// Package ranking resolves an attempt's rank among finalized peers and its percentile from a
// per-test step function.
package ranking

import (
	"errors"
	"fmt"

	"github.com/lshigami/mocktest/internal/scoring"
)

var ErrInvalidMapping = errors.New("invalid percentile mapping")

// Threshold is one step of a percentile mapping: scores >= MinMarks resolve to Percentile,
// unless a higher threshold also qualifies.
type Threshold struct {
	MinMarks   float64
	Percentile float64
}

// Rank returns 1 + the number of other totals strictly greater than total. Ties share a rank.
// Totals are compared at two-decimal precision.
func Rank(total float64, others []float64) int {
	mine := scoring.Hundredths(total)
	rank := 1
	for _, o := range others {
		if scoring.Hundredths(o) > mine {
			rank++
		}
	}
	return rank
}

// Percentile returns the percentile of the highest threshold not exceeding total. The second
// result is false when no threshold qualifies or the mapping is empty.
func Percentile(mapping []Threshold, total float64) (float64, bool) {
	score := scoring.Hundredths(total)
	var (
		best  Threshold
		found bool
	)
	for _, t := range mapping {
		min := scoring.Hundredths(t.MinMarks)
		if min > score {
			continue
		}
		if !found || min > scoring.Hundredths(best.MinMarks) {
			best, found = t, true
		}
	}
	if !found {
		return 0, false
	}
	return best.Percentile, true
}

// ValidateMapping checks that thresholds are strictly increasing and percentiles lie in [0, 100].
func ValidateMapping(mapping []Threshold) error {
	for i, t := range mapping {
		if t.Percentile < 0 || t.Percentile > 100 {
			return fmt.Errorf("%w: percentile %.2f at step %d is outside [0, 100]", ErrInvalidMapping, t.Percentile, i)
		}
		if i > 0 && scoring.Hundredths(t.MinMarks) <= scoring.Hundredths(mapping[i-1].MinMarks) {
			return fmt.Errorf("%w: threshold %.2f at step %d does not exceed %.2f", ErrInvalidMapping, t.MinMarks, i, mapping[i-1].MinMarks)
		}
	}
	return nil
}
