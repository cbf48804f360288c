// Package controller holds helpers shared by the HTTP controllers.
package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mocktest/internal/analysis"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/service"
	"github.com/rs/zerolog/log"
)

// statuses maps service and domain errors to HTTP status codes. The first match wins.
var statuses = []struct {
	err    error
	status int
}{
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{exam.ErrAlreadySubmitted, http.StatusConflict},
	{service.ErrTestLocked, http.StatusConflict},
	{service.ErrEmailTaken, http.StatusConflict},
	{exam.ErrInvalidTestState, http.StatusUnprocessableEntity},
	{exam.ErrOutOfRangeNavigation, http.StatusUnprocessableEntity},
	{exam.ErrAmbiguousMultiSelectFormat, http.StatusUnprocessableEntity},
	{exam.ErrUnknownQuestion, http.StatusUnprocessableEntity},
	{service.ErrInvalidMapping, http.StatusUnprocessableEntity},
	{service.ErrInvalidQuestion, http.StatusUnprocessableEntity},
	{service.ErrTestNotPublished, http.StatusUnprocessableEntity},
	{analysis.ErrUnknownFilter, http.StatusBadRequest},
	{service.ErrExplainerDisabled, http.StatusServiceUnavailable},
}

// StatusOf returns the HTTP status for err, 500 when it is not a known failure.
func StatusOf(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// RespondError writes err as an ErrorResponse. Internal errors are logged and their detail
// is hidden from the client.
func RespondError(ctx *gin.Context, op string, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("op", op).Str("path", ctx.Request.URL.Path).Msg("Request failed")
		ctx.JSON(status, dto.ErrorResponse{Message: "Internal server error"})
		return
	}
	log.Debug().Err(err).Str("op", op).Int("status", status).Msg("Request rejected")
	ctx.JSON(status, dto.ErrorResponse{Message: err.Error()})
}

// BindJSON binds the body into req, answering 400 on failure.
func BindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		log.Warn().Err(err).Str("path", ctx.Request.URL.Path).Msg("Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return false
	}
	return true
}

// ParseID reads a positive numeric path parameter, answering 400 when it is malformed.
func ParseID(ctx *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || v == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(v), true
}

// ParsePosition reads a 0-based question position from the path.
func ParsePosition(ctx *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return v, true
}
