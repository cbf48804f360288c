package user

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/middleware"
	"github.com/lshigami/mocktest/internal/model"
	"github.com/lshigami/mocktest/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAttempts implements the calls these tests make; the embedded nil interface panics on
// anything else.
type fakeAttempts struct {
	service.AttemptService
	userID    uint
	attemptID uint
	position  int
	value     string
	err       error
}

func (f *fakeAttempts) SelectAnswer(ctx context.Context, userID, attemptID uint, position int, value string) (*dto.AttemptStateDTO, error) {
	f.userID, f.attemptID, f.position, f.value = userID, attemptID, position, value
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AttemptStateDTO{AttemptID: attemptID, State: "in_progress", Responses: map[int]string{position: value}}, nil
}

func (f *fakeAttempts) Submit(ctx context.Context, userID, attemptID uint) (*dto.SubmissionSummaryDTO, error) {
	f.userID, f.attemptID = userID, attemptID
	if f.err != nil {
		return nil, f.err
	}
	return &dto.SubmissionSummaryDTO{AttemptID: attemptID, TotalMarks: 8}, nil
}

func (f *fakeAttempts) Analysis(ctx context.Context, userID, attemptID uint, status, section string) (*dto.AnalysisDTO, error) {
	f.value = status + "|" + section
	return &dto.AnalysisDTO{AttemptID: attemptID, Status: status, Section: section}, f.err
}

func newAttemptRouter(fake *fakeAttempts) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api/v1", func(ctx *gin.Context) {
		middleware.SetIdentity(ctx, 42, model.RoleStudent)
		ctx.Next()
	})
	NewAttemptController(fake).RegisterRoutes(group)
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSelectAnswer(t *testing.T) {
	fake := &fakeAttempts{}
	r := newAttemptRouter(fake)

	w := send(r, http.MethodPut, "/api/v1/attempts/5/answers/1", `{"options":["C","A"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint(42), fake.userID)
	assert.Equal(t, uint(5), fake.attemptID)
	assert.Equal(t, 1, fake.position)
	assert.Equal(t, "C,A", fake.value)

	w = send(r, http.MethodPut, "/api/v1/attempts/5/answers/0", `{"answer":"B"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "B", fake.value)
	assert.Contains(t, w.Body.String(), `"responses":{"0":"B"}`)

	w = send(r, http.MethodPut, "/api/v1/attempts/x/answers/0", `{"answer":"B"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = send(r, http.MethodPut, "/api/v1/attempts/5/answers/0", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectAnswerErrors(t *testing.T) {
	fake := &fakeAttempts{}
	r := newAttemptRouter(fake)

	fake.err = fmt.Errorf("%w: 9 not in [0, 3)", exam.ErrOutOfRangeNavigation)
	w := send(r, http.MethodPut, "/api/v1/attempts/5/answers/9", `{"answer":"A"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	fake.err = exam.ErrAlreadySubmitted
	w = send(r, http.MethodPut, "/api/v1/attempts/5/answers/0", `{"answer":"A"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	fake.err = fmt.Errorf("attempt 5: %w", service.ErrForbidden)
	w = send(r, http.MethodPut, "/api/v1/attempts/5/answers/0", `{"answer":"A"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmit(t *testing.T) {
	fake := &fakeAttempts{}
	r := newAttemptRouter(fake)

	w := send(r, http.MethodPost, "/api/v1/attempts/7/submit", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_marks":8`)

	fake.err = fmt.Errorf("attempt 7: %w", exam.ErrAlreadySubmitted)
	w = send(r, http.MethodPost, "/api/v1/attempts/7/submit", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAnalysisPassesFilters(t *testing.T) {
	fake := &fakeAttempts{}
	r := newAttemptRouter(fake)

	w := send(r, http.MethodGet, "/api/v1/attempts/7/analysis?status=incorrect&section=Physics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "incorrect|Physics", fake.value)
}
