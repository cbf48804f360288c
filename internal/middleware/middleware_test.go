package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lshigami/mocktest/internal/model"
	"github.com/lshigami/mocktest/internal/service"
	"github.com/stretchr/testify/assert"
)

type stubParser map[string]*service.Claims

func (p stubParser) ParseToken(token string) (*service.Claims, error) {
	if c, ok := p[token]; ok {
		return c, nil
	}
	return nil, service.ErrInvalidToken
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	parser := stubParser{
		"creator": {Role: model.RoleCreator, RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}},
		"student": {Role: model.RoleStudent, RegisteredClaims: jwt.RegisteredClaims{Subject: "9"}},
		"nosub":   {Role: model.RoleStudent},
	}
	r := gin.New()
	r.Use(RequestID())
	authed := r.Group("/", Authenticate(parser))
	authed.GET("/me", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"id": UserID(ctx), "role": Role(ctx)})
	})
	authed.GET("/admin", RequireRole(model.RoleCreator), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})
	r.GET("/open", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, GetRequestID(ctx))
	})
	return r
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r := newRouter()

	w := do(r, "/me", "Bearer student")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":9,"role":"student"}`, w.Body.String())

	w = do(r, "/me", "bearer  creator")
	assert.Equal(t, http.StatusOK, w.Code)

	for _, header := range []string{"", "Bearer", "Basic student", "Bearer unknown", "Bearer nosub"} {
		w = do(r, "/me", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter()
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", "Bearer creator").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer student").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter()

	w := do(r, "/open", "")
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
}
