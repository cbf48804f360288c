package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/mocktest/config"
	"github.com/lshigami/mocktest/database/dbtest"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/model"
	"github.com/lshigami/mocktest/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeExplainer struct {
	calls int
	text  string
	err   error
}

func (f *fakeExplainer) Explain(ctx context.Context, q *model.Question, selected string) (string, error) {
	f.calls++
	return f.text, f.err
}

// fixture wires every service over one in-memory database.
type fixture struct {
	db        *gorm.DB
	clock     *testClock
	explainer *fakeExplainer
	auth      AuthService
	admin     AdminTestService
	questions QuestionService
	catalogue UserTestService
	ranking   RankingService
	attempts  *attemptService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	clock := &testClock{now: epoch}
	cfg := &config.Config{Auth: config.Auth{JWTSecret: "test-secret", TokenTTL: time.Hour}}

	testRepo := repository.NewTestRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	attemptRepo := repository.NewTestAttemptRepository(db)
	percentileRepo := repository.NewPercentileRepository(db)
	leaderboard := repository.NewLeaderboardRepository(nil, db)
	store := repository.NewAttemptStore(db, leaderboard)

	f := &fixture{db: db, clock: clock, explainer: &fakeExplainer{text: "because"}}
	auth := NewAuthService(repository.NewUserRepository(db), cfg).(*authService)
	auth.now = clock.Now
	f.auth = auth
	f.ranking = NewRankingService(testRepo, attemptRepo, percentileRepo, leaderboard)
	f.admin = NewAdminTestService(testRepo, questionRepo, percentileRepo, f.ranking)
	f.questions = NewQuestionService(questionRepo, testRepo, attemptRepo)
	f.catalogue = NewUserTestService(testRepo)
	f.attempts = newAttemptService(testRepo, questionRepo, attemptRepo, repository.NewAnswerRepository(db), store, f.explainer, clock.Now)
	return f
}

func (f *fixture) user(t *testing.T, email, role string) uint {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), dto.RegisterRequest{Email: email, Password: "secret1", FullName: email, Role: role})
	require.NoError(t, err)
	return resp.User.ID
}

func sp(s string) *string { return &s }

// sampleTestDTO is a three minute test: single choice (A, +4/-1), multi select over A-C (A,C, +4/-2) and
// numeric (42, +4).
func sampleTestDTO() dto.TestCreateDTO {
	return dto.TestCreateDTO{
		Title:           "JEE Mock 1",
		DurationMinutes: 3,
		Questions: []dto.QuestionCreateDTO{
			{Section: "Physics", QuestionType: "MCQ", QuestionText: "g?", OptionA: sp("9.8"), OptionB: sp("10"), OptionC: sp("8"), OptionD: sp("1"),
				CorrectAnswer: "a", Marks: 4, NegativeMarks: 1, SolutionText: "Standard gravity."},
			{Section: "Chemistry", QuestionType: "MSQ", QuestionText: "Noble gases?", OptionA: sp("Ne"), OptionB: sp("N"), OptionC: sp("Ar"),
				CorrectAnswer: "C, A", Marks: 4, NegativeMarks: -2},
			{Section: "Mathematics", QuestionType: "NUMERICAL", QuestionText: "6*7", CorrectAnswer: " 42 ", Marks: 4},
		},
	}
}

// publishedTest creates and publishes the sample test for a fresh creator.
func (f *fixture) publishedTest(t *testing.T) (creatorID, testID uint) {
	t.Helper()
	ctx := context.Background()
	creatorID = f.user(t, "creator@example.com", model.RoleCreator)
	created, err := f.admin.CreateTest(ctx, creatorID, sampleTestDTO())
	require.NoError(t, err)
	_, err = f.admin.PublishTest(ctx, creatorID, created.ID)
	require.NoError(t, err)
	return creatorID, created.ID
}
