package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mocktest/internal/analysis"
	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("attempt 3: %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("attempt 3: %w", exam.ErrAlreadySubmitted), http.StatusConflict},
		{service.ErrTestLocked, http.StatusConflict},
		{fmt.Errorf("%w: 5 not in [0, 3)", exam.ErrOutOfRangeNavigation), http.StatusUnprocessableEntity},
		{exam.ErrAmbiguousMultiSelectFormat, http.StatusUnprocessableEntity},
		{service.ErrInvalidMapping, http.StatusUnprocessableEntity},
		{analysis.ErrUnknownFilter, http.StatusBadRequest},
		{service.ErrExplainerDisabled, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	RespondError(ctx, "Test", errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, w.Body.String())
}

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/tests/:test_id", func(ctx *gin.Context) {
		id, ok := ParseID(ctx, "test_id")
		if ok {
			ctx.JSON(http.StatusOK, id)
		}
	})
	for path, want := range map[string]int{"/tests/12": 200, "/tests/0": 400, "/tests/-1": 400, "/tests/abc": 400} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}
