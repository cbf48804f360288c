// Package attempt owns a single in-progress test attempt: answer capture, review marks,
// navigation, the countdown and the one-way transition to Submitted.
//
// An Attempt is not safe for concurrent use. Callers that drive it from more than one
// goroutine (for example a Countdown next to request handlers) share a lock.
package attempt

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/scoring"
)

type State string

const (
	NotStarted State = "not_started"
	InProgress State = "in_progress"
	Submitted  State = "submitted"
)

type Option func(*Attempt)

// WithClock replaces time.Now for start and submit stamps.
func WithClock(now func() time.Time) Option {
	return func(a *Attempt) { a.now = now }
}

type Attempt struct {
	id     uint
	userID uint
	now    func() time.Time

	state     State
	test      exam.Test
	position  int
	responses map[int]string
	review    map[int]struct{}
	timeSpent map[int]int
	remaining int

	startedAt     time.Time
	submittedAt   time.Time
	autoSubmitted bool

	summary *Summary
	results []scoring.QuestionResult
}

// New returns an attempt in the NotStarted state.
func New(id, userID uint, opts ...Option) *Attempt {
	a := &Attempt{id: id, userID: userID, now: time.Now, state: NotStarted}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Attempt) ID() uint { return a.id }
func (a *Attempt) UserID() uint { return a.userID }
func (a *Attempt) TestID() uint { return a.test.ID }
func (a *Attempt) State() State { return a.state }
func (a *Attempt) Test() exam.Test { return a.test }
func (a *Attempt) Position() int { return a.position }
func (a *Attempt) Remaining() int { return a.remaining }
func (a *Attempt) AutoSubmitted() bool { return a.autoSubmitted }

// SetID assigns the persistent identifier once storage has allocated one.
func (a *Attempt) SetID(id uint) { a.id = id }

// Start begins the attempt with an empty response map at position 0 and the full duration remaining.
func (a *Attempt) Start(test exam.Test) error {
	switch a.state {
	case Submitted:
		return exam.ErrAlreadySubmitted
	case InProgress:
		return fmt.Errorf("%w: attempt %d already started", exam.ErrInvalidTestState, a.id)
	}
	if err := test.Validate(); err != nil {
		return err
	}

	a.test = test
	a.state = InProgress
	a.position = 0
	a.responses = make(map[int]string)
	a.review = make(map[int]struct{})
	a.timeSpent = make(map[int]int)
	a.remaining = test.DurationSeconds
	a.startedAt = a.now()
	return nil
}

// SelectAnswer records or overwrites the answer at position. Multi-select values are stored
// in canonical form. Review marks are left untouched.
func (a *Attempt) SelectAnswer(position int, value string) error {
	if err := a.mutable(position); err != nil {
		return err
	}
	q := a.test.Questions[position]
	if q.Type == exam.MultiSelect {
		canonical, err := exam.Canonicalize(q, value)
		if err != nil {
			return err
		}
		value = canonical
	}
	a.responses[position] = value
	return nil
}

// ClearAnswer removes the answer at position together with its review mark.
func (a *Attempt) ClearAnswer(position int) error {
	if err := a.mutable(position); err != nil {
		return err
	}
	delete(a.responses, position)
	delete(a.review, position)
	return nil
}

// ToggleReview flips the review mark at position and reports whether it is now marked.
func (a *Attempt) ToggleReview(position int) (bool, error) {
	if err := a.mutable(position); err != nil {
		return false, err
	}
	if _, ok := a.review[position]; ok {
		delete(a.review, position)
		return false, nil
	}
	a.review[position] = struct{}{}
	return true, nil
}

func (a *Attempt) Navigate(position int) error {
	if err := a.mutable(position); err != nil {
		return err
	}
	a.position = position
	return nil
}

// Tick consumes elapsed seconds of the countdown and charges them to the current question.
// When the remaining time reaches zero the attempt submits itself and Tick reports true.
// Ticks after submission are no-ops.
func (a *Attempt) Tick(elapsedSeconds int) (bool, error) {
	switch a.state {
	case NotStarted:
		return false, fmt.Errorf("%w: attempt %d has not started", exam.ErrInvalidTestState, a.id)
	case Submitted:
		return false, nil
	}
	if elapsedSeconds < 0 {
		return false, fmt.Errorf("%w: negative tick of %ds", exam.ErrInvalidTestState, elapsedSeconds)
	}

	charged := elapsedSeconds
	if charged > a.remaining {
		charged = a.remaining
	}
	if charged > 0 {
		a.timeSpent[a.position] += charged
	}

	a.remaining -= elapsedSeconds
	if a.remaining <= 0 {
		a.remaining = 0
		a.submit(true)
		return true, nil
	}
	return false, nil
}

// Submit ends the attempt. A second call fails with ErrAlreadySubmitted.
func (a *Attempt) Submit() error {
	switch a.state {
	case NotStarted:
		return fmt.Errorf("%w: attempt %d has not started", exam.ErrInvalidTestState, a.id)
	case Submitted:
		return exam.ErrAlreadySubmitted
	}
	a.submit(false)
	return nil
}

func (a *Attempt) submit(auto bool) {
	a.state = Submitted
	a.submittedAt = a.now()
	a.autoSubmitted = auto
}

// ElapsedSeconds is the configured duration minus the remaining time, never negative.
func (a *Attempt) ElapsedSeconds() int {
	elapsed := a.test.DurationSeconds - a.remaining
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Responses returns a copy of the response map.
func (a *Attempt) Responses() map[int]string {
	out := make(map[int]string, len(a.responses))
	for k, v := range a.responses {
		out[k] = v
	}
	return out
}

func (a *Attempt) IsMarked(position int) bool {
	_, ok := a.review[position]
	return ok
}

func (a *Attempt) mutable(position int) error {
	switch a.state {
	case NotStarted:
		return fmt.Errorf("%w: attempt %d has not started", exam.ErrInvalidTestState, a.id)
	case Submitted:
		return exam.ErrAlreadySubmitted
	}
	if position < 0 || position >= len(a.test.Questions) {
		return fmt.Errorf("%w: %d not in [0, %d)", exam.ErrOutOfRangeNavigation, position, len(a.test.Questions))
	}
	return nil
}

// Snapshot is a copy of the attempt's observable state, used for rendering and persistence.
type Snapshot struct {
	AttemptID        uint
	TestID           uint
	UserID           uint
	State            State
	Position         int
	QuestionCount    int
	Responses        map[int]string
	Review           []int
	TimeSpent        map[int]int
	DurationSeconds  int
	RemainingSeconds int
	ElapsedSeconds   int
	StartedAt        time.Time
	SubmittedAt      *time.Time
	AutoSubmitted    bool
}

// Answered reports whether position holds a non-blank answer.
func (s Snapshot) Answered(position int) bool {
	return strings.TrimSpace(s.Responses[position]) != ""
}

func (s Snapshot) Marked(position int) bool {
	i := sort.SearchInts(s.Review, position)
	return i < len(s.Review) && s.Review[i] == position
}

func (a *Attempt) Snapshot() Snapshot {
	snap := Snapshot{
		AttemptID:        a.id,
		TestID:           a.test.ID,
		UserID:           a.userID,
		State:            a.state,
		Position:         a.position,
		QuestionCount:    len(a.test.Questions),
		Responses:        a.Responses(),
		Review:           make([]int, 0, len(a.review)),
		TimeSpent:        make(map[int]int, len(a.timeSpent)),
		DurationSeconds:  a.test.DurationSeconds,
		RemainingSeconds: a.remaining,
		ElapsedSeconds:   a.ElapsedSeconds(),
		StartedAt:        a.startedAt,
		AutoSubmitted:    a.autoSubmitted,
	}
	for pos := range a.review {
		snap.Review = append(snap.Review, pos)
	}
	sort.Ints(snap.Review)
	for pos, secs := range a.timeSpent {
		snap.TimeSpent[pos] = secs
	}
	if a.state == Submitted {
		at := a.submittedAt
		snap.SubmittedAt = &at
	}
	return snap
}

// Restore rebuilds an attempt from a persisted snapshot. The snapshot's duration wins over the
// test's current setting so a later settings change cannot stretch a running attempt.
func Restore(test exam.Test, snap Snapshot, opts ...Option) (*Attempt, error) {
	if snap.State != InProgress && snap.State != Submitted {
		return nil, fmt.Errorf("%w: cannot restore attempt %d in state %q", exam.ErrInvalidTestState, snap.AttemptID, snap.State)
	}
	test.DurationSeconds = snap.DurationSeconds
	if err := test.Validate(); err != nil {
		return nil, err
	}
	n := len(test.Questions)
	inRange := func(pos int) error {
		if pos < 0 || pos >= n {
			return fmt.Errorf("%w: attempt %d references position %d of %d", exam.ErrUnknownQuestion, snap.AttemptID, pos, n)
		}
		return nil
	}
	if err := inRange(snap.Position); err != nil {
		return nil, err
	}

	a := New(snap.AttemptID, snap.UserID, opts...)
	a.test = test
	a.state = snap.State
	a.position = snap.Position
	a.remaining = snap.RemainingSeconds
	a.startedAt = snap.StartedAt
	a.autoSubmitted = snap.AutoSubmitted
	if snap.SubmittedAt != nil {
		a.submittedAt = *snap.SubmittedAt
	}
	a.responses = make(map[int]string, len(snap.Responses))
	for pos, v := range snap.Responses {
		if err := inRange(pos); err != nil {
			return nil, err
		}
		a.responses[pos] = v
	}
	a.review = make(map[int]struct{}, len(snap.Review))
	for _, pos := range snap.Review {
		if err := inRange(pos); err != nil {
			return nil, err
		}
		a.review[pos] = struct{}{}
	}
	a.timeSpent = make(map[int]int, len(snap.TimeSpent))
	for pos, secs := range snap.TimeSpent {
		if err := inRange(pos); err != nil {
			return nil, err
		}
		a.timeSpent[pos] = secs
	}
	return a, nil
}
