package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	userIDKey = "auth.userID"
	roleKey   = "auth.role"
)

// TokenParser validates a bearer token. service.AuthService satisfies it.
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// Authenticate rejects requests without a valid bearer token and stores the caller's id and
// role on the context.
func Authenticate(parser TokenParser) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing bearer token"})
			return
		}
		claims, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			log.Debug().Err(err).Str("path", ctx.FullPath()).Msg("Rejected token")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid or expired token"})
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid or expired token"})
			return
		}
		SetIdentity(ctx, userID, claims.Role)
		ctx.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if Role(ctx) != role {
			ctx.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Message: "This action requires the " + role + " role"})
			return
		}
		ctx.Next()
	}
}

// SetIdentity records the caller on the context.
func SetIdentity(ctx *gin.Context, userID uint, role string) {
	ctx.Set(userIDKey, userID)
	ctx.Set(roleKey, role)
}

// UserID returns the authenticated caller, or 0 outside Authenticate.
func UserID(ctx *gin.Context) uint {
	return ctx.GetUint(userIDKey)
}

func Role(ctx *gin.Context) string {
	return ctx.GetString(roleKey)
}
