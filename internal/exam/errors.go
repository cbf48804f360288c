package exam

import "errors"

var (
	// ErrInvalidTestState is returned when a test cannot be attempted (no questions, no duration)
	// or when an operation is not valid in the attempt's current state.
	ErrInvalidTestState = errors.New("invalid test state")
	// ErrOutOfRangeNavigation is returned for a position outside [0, questionCount).
	ErrOutOfRangeNavigation = errors.New("position out of range")
	// ErrAlreadySubmitted is returned by every mutation on a submitted attempt.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrAmbiguousMultiSelectFormat is returned when a multi-select value cannot be canonicalized.
	ErrAmbiguousMultiSelectFormat = errors.New("ambiguous multi-select format")
	// ErrUnknownQuestion is returned when a response references an ordinal the test does not have.
	ErrUnknownQuestion = errors.New("response references unknown question")
)
