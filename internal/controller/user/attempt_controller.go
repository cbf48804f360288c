package user

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mocktest/internal/controller"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/middleware"
	"github.com/lshigami/mocktest/internal/service"
	"github.com/rs/zerolog/log"
)

// AttemptController drives a student's attempt. Positions in paths are 0-based.
type AttemptController struct {
	attemptService service.AttemptService
}

func NewAttemptController(attemptService service.AttemptService) *AttemptController {
	return &AttemptController{attemptService: attemptService}
}

func (c *AttemptController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/tests/:test_id/attempts", c.StartAttempt)
	group.GET("/me/attempts", c.ListMyAttempts)

	attempts := group.Group("/attempts/:attempt_id")
	attempts.GET("", c.GetAttempt)
	attempts.PUT("/answers/:position", c.SelectAnswer)
	attempts.DELETE("/answers/:position", c.ClearAnswer)
	attempts.POST("/review/:position", c.ToggleReview)
	attempts.POST("/navigate", c.Navigate)
	attempts.POST("/submit", c.Submit)
	attempts.GET("/result", c.Result)
	attempts.GET("/analysis", c.Analysis)
	attempts.GET("/questions/:position/explanation", c.Explain)
}

// StartAttempt godoc
// @Summary Start or resume an attempt
// @Description Starts a timed attempt on a published test. An attempt still in progress is resumed instead.
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 201 {object} dto.AttemptStateDTO
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 422 {object} dto.ErrorResponse "Test not published"
// @Router /tests/{test_id}/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	state, err := c.attemptService.Start(ctx.Request.Context(), middleware.UserID(ctx), testID)
	if err != nil {
		controller.RespondError(ctx, "StartAttempt", err)
		return
	}
	ctx.JSON(http.StatusCreated, state)
}

// GetAttempt godoc
// @Summary Current state of an attempt
// @Description Brings the countdown up to date first; an attempt whose time ran out is auto-submitted.
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptStateDTO
// @Failure 403 {object} dto.ErrorResponse "Not your attempt"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	state, err := c.attemptService.Get(ctx.Request.Context(), middleware.UserID(ctx), attemptID)
	if err != nil {
		controller.RespondError(ctx, "GetAttempt", err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// SelectAnswer godoc
// @Summary Answer a question
// @Description Multi-select answers may be sent as "A,C" or as an options list.
// @Tags User - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param position path int true "0-based question position"
// @Param answer body dto.AnswerRequest true "Answer"
// @Success 200 {object} dto.AttemptStateDTO
// @Failure 409 {object} dto.ErrorResponse "Attempt already submitted"
// @Failure 422 {object} dto.ErrorResponse "Position out of range or malformed multi-select answer"
// @Router /attempts/{attempt_id}/answers/{position} [put]
func (c *AttemptController) SelectAnswer(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	position, ok := controller.ParsePosition(ctx, "position")
	if !ok {
		return
	}
	var req dto.AnswerRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	value := req.Answer
	if len(req.Options) > 0 {
		value = strings.Join(req.Options, ",")
	}
	state, err := c.attemptService.SelectAnswer(ctx.Request.Context(), middleware.UserID(ctx), attemptID, position, value)
	if err != nil {
		controller.RespondError(ctx, "SelectAnswer", err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// ClearAnswer godoc
// @Summary Clear an answer
// @Description Removes the answer and the review mark at the position.
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param position path int true "0-based question position"
// @Success 200 {object} dto.AttemptStateDTO
// @Router /attempts/{attempt_id}/answers/{position} [delete]
func (c *AttemptController) ClearAnswer(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	position, ok := controller.ParsePosition(ctx, "position")
	if !ok {
		return
	}
	state, err := c.attemptService.ClearAnswer(ctx.Request.Context(), middleware.UserID(ctx), attemptID, position)
	if err != nil {
		controller.RespondError(ctx, "ClearAnswer", err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// ToggleReview godoc
// @Summary Toggle the review mark
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param position path int true "0-based question position"
// @Success 200 {object} dto.ReviewToggleDTO
// @Router /attempts/{attempt_id}/review/{position} [post]
func (c *AttemptController) ToggleReview(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	position, ok := controller.ParsePosition(ctx, "position")
	if !ok {
		return
	}
	resp, err := c.attemptService.ToggleReview(ctx.Request.Context(), middleware.UserID(ctx), attemptID, position)
	if err != nil {
		controller.RespondError(ctx, "ToggleReview", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Navigate godoc
// @Summary Move to a question
// @Tags User - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param target body dto.NavigateRequest true "Target position"
// @Success 200 {object} dto.AttemptStateDTO
// @Failure 422 {object} dto.ErrorResponse "Position out of range"
// @Router /attempts/{attempt_id}/navigate [post]
func (c *AttemptController) Navigate(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.NavigateRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	state, err := c.attemptService.Navigate(ctx.Request.Context(), middleware.UserID(ctx), attemptID, *req.Position)
	if err != nil {
		controller.RespondError(ctx, "Navigate", err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// Submit godoc
// @Summary Submit an attempt
// @Description Scores the attempt and ranks it against earlier finalized attempts of the same test.
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.SubmissionSummaryDTO
// @Failure 409 {object} dto.ErrorResponse "Attempt already submitted"
// @Router /attempts/{attempt_id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	summary, err := c.attemptService.Submit(ctx.Request.Context(), middleware.UserID(ctx), attemptID)
	if err != nil {
		controller.RespondError(ctx, "Submit", err)
		return
	}
	log.Info().Uint("attemptID", attemptID).Float64("totalMarks", summary.TotalMarks).Msg("Attempt submitted")
	ctx.JSON(http.StatusOK, summary)
}

// Result godoc
// @Summary Scored result of a finalized attempt
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptResultDTO
// @Failure 422 {object} dto.ErrorResponse "Attempt still in progress"
// @Router /attempts/{attempt_id}/result [get]
func (c *AttemptController) Result(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.attemptService.Result(ctx.Request.Context(), middleware.UserID(ctx), attemptID)
	if err != nil {
		controller.RespondError(ctx, "Result", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Analysis godoc
// @Summary Section breakdown and filtered review list
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param status query string false "all, correct, incorrect or unattempted"
// @Param section query string false "Physics, Chemistry, Mathematics or all"
// @Success 200 {object} dto.AnalysisDTO
// @Failure 400 {object} dto.ErrorResponse "Unknown filter"
// @Router /attempts/{attempt_id}/analysis [get]
func (c *AttemptController) Analysis(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.attemptService.Analysis(ctx.Request.Context(), middleware.UserID(ctx), attemptID, ctx.Query("status"), ctx.Query("section"))
	if err != nil {
		controller.RespondError(ctx, "Analysis", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Explain godoc
// @Summary Explanation of a question's solution
// @Description Returns the authored solution, or an AI explanation generated once and stored.
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param position path int true "0-based question position"
// @Success 200 {object} dto.ExplanationDTO
// @Failure 503 {object} dto.ErrorResponse "AI explanations are not configured"
// @Router /attempts/{attempt_id}/questions/{position}/explanation [get]
func (c *AttemptController) Explain(ctx *gin.Context) {
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	if !ok {
		return
	}
	position, ok := controller.ParsePosition(ctx, "position")
	if !ok {
		return
	}
	resp, err := c.attemptService.Explain(ctx.Request.Context(), middleware.UserID(ctx), attemptID, position)
	if err != nil {
		controller.RespondError(ctx, "Explain", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListMyAttempts godoc
// @Summary The caller's finalized attempts, newest first
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.SubmissionSummaryDTO
// @Router /me/attempts [get]
func (c *AttemptController) ListMyAttempts(ctx *gin.Context) {
	attempts, err := c.attemptService.ListMine(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		controller.RespondError(ctx, "ListMyAttempts", err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}
