package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mocktest/internal/controller"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/middleware"
	"github.com/lshigami/mocktest/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminTestController struct {
	adminTestService service.AdminTestService
	questionService  service.QuestionService
	rankingService   service.RankingService
}

func NewAdminTestController(
	adminTestService service.AdminTestService,
	questionService service.QuestionService,
	rankingService service.RankingService,
) *AdminTestController {
	return &AdminTestController{
		adminTestService: adminTestService,
		questionService:  questionService,
		rankingService:   rankingService,
	}
}

// RegisterRoutes mounts the creator endpoints on an authenticated, creator-only group.
func (c *AdminTestController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/tests", c.CreateTest)
	group.GET("/tests", c.ListTests)
	group.GET("/tests/:test_id", c.GetTest)
	group.PUT("/tests/:test_id", c.UpdateTest)
	group.POST("/tests/:test_id/publish", c.PublishTest)
	group.POST("/tests/:test_id/percentile-mapping", c.SetPercentileMapping)
	group.POST("/tests/:test_id/rankings/recompute", c.RecomputeRankings)
	group.GET("/tests/:test_id/questions", c.ListQuestions)
	group.POST("/tests/:test_id/questions", c.CreateQuestion)
	group.PUT("/questions/:question_id", c.UpdateQuestion)
	group.DELETE("/questions/:question_id", c.DeleteQuestion)
}

// CreateTest godoc
// @Summary (Creator) Create a test
// @Description Creates a draft test, optionally with its questions. Answer keys are normalized: single choice upper-cased, multi select sorted and comma joined.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_data body dto.TestCreateDTO true "Test with optional questions"
// @Success 201 {object} dto.AdminTestDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 422 {object} dto.ErrorResponse "Invalid question"
// @Router /admin/tests [post]
func (c *AdminTestController) CreateTest(ctx *gin.Context) {
	var req dto.TestCreateDTO
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.adminTestService.CreateTest(ctx.Request.Context(), middleware.UserID(ctx), req)
	if err != nil {
		controller.RespondError(ctx, "CreateTest", err)
		return
	}
	log.Info().Uint("testID", resp.ID).Int("questions", len(resp.Questions)).Msg("Test created")
	ctx.JSON(http.StatusCreated, resp)
}

// ListTests godoc
// @Summary (Creator) List own tests
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AdminTestDTO
// @Router /admin/tests [get]
func (c *AdminTestController) ListTests(ctx *gin.Context) {
	tests, err := c.adminTestService.ListTests(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		controller.RespondError(ctx, "ListTests", err)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTest godoc
// @Summary (Creator) Get a test with answer keys
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.AdminTestDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [get]
func (c *AdminTestController) GetTest(ctx *gin.Context) {
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.adminTestService.GetTest(ctx.Request.Context(), middleware.UserID(ctx), testID)
	if err != nil {
		controller.RespondError(ctx, "GetTest", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateTest godoc
// @Summary (Creator) Update test metadata
// @Description Changing the duration affects attempts started afterwards only.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param test_data body dto.TestUpdateDTO true "Fields to change"
// @Success 200 {object} dto.AdminTestDTO
// @Router /admin/tests/{test_id} [put]
func (c *AdminTestController) UpdateTest(ctx *gin.Context) {
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.TestUpdateDTO
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.adminTestService.UpdateTest(ctx.Request.Context(), middleware.UserID(ctx), testID, req)
	if err != nil {
		controller.RespondError(ctx, "UpdateTest", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// PublishTest godoc
// @Summary (Creator) Publish a test
// @Description Makes the test visible to students. A test needs at least one question.
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.AdminTestDTO
// @Failure 422 {object} dto.ErrorResponse "Test has no questions"
// @Router /admin/tests/{test_id}/publish [post]
func (c *AdminTestController) PublishTest(ctx *gin.Context) {
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.adminTestService.PublishTest(ctx.Request.Context(), middleware.UserID(ctx), testID)
	if err != nil {
		controller.RespondError(ctx, "PublishTest", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SetPercentileMapping godoc
// @Summary (Creator) Replace the percentile mapping
// @Description Thresholds must be strictly increasing in min_marks with percentiles within [0, 100]. Finalized attempts without a percentile get one attached.
// @Tags Admin - Rankings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param mapping body dto.PercentileMappingDTO true "Thresholds"
// @Success 200 {object} dto.AdminTestDTO
// @Failure 422 {object} dto.ErrorResponse "Invalid mapping"
// @Router /admin/tests/{test_id}/percentile-mapping [post]
func (c *AdminTestController) SetPercentileMapping(ctx *gin.Context) {
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.PercentileMappingDTO
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.adminTestService.SetPercentileMapping(ctx.Request.Context(), middleware.UserID(ctx), testID, req)
	if err != nil {
		controller.RespondError(ctx, "SetPercentileMapping", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// RecomputeRankings godoc
// @Summary (Creator) Recompute ranks and percentiles
// @Description Re-ranks every finalized attempt of the test against all the others and reapplies the current mapping.
// @Tags Admin - Rankings
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.RecomputeResultDTO
// @Router /admin/tests/{test_id}/rankings/recompute [post]
func (c *AdminTestController) RecomputeRankings(ctx *gin.Context) {
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.rankingService.Recompute(ctx.Request.Context(), middleware.UserID(ctx), testID)
	if err != nil {
		controller.RespondError(ctx, "RecomputeRankings", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListQuestions godoc
// @Summary (Creator) List a test's questions
// @Tags Admin - Questions
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {array} dto.AdminQuestionDTO
// @Router /admin/tests/{test_id}/questions [get]
func (c *AdminTestController) ListQuestions(ctx *gin.Context) {
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	questions, err := c.questionService.ListQuestions(ctx.Request.Context(), middleware.UserID(ctx), testID)
	if err != nil {
		controller.RespondError(ctx, "ListQuestions", err)
		return
	}
	ctx.JSON(http.StatusOK, questions)
}

// CreateQuestion godoc
// @Summary (Creator) Add a question
// @Tags Admin - Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param question body dto.QuestionCreateDTO true "Question"
// @Success 201 {object} dto.AdminQuestionDTO
// @Failure 409 {object} dto.ErrorResponse "Test already has attempts"
// @Router /admin/tests/{test_id}/questions [post]
func (c *AdminTestController) CreateQuestion(ctx *gin.Context) {
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.QuestionCreateDTO
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.questionService.CreateQuestion(ctx.Request.Context(), middleware.UserID(ctx), testID, req)
	if err != nil {
		controller.RespondError(ctx, "CreateQuestion", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// UpdateQuestion godoc
// @Summary (Creator) Replace a question
// @Tags Admin - Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param question_id path int true "Question ID"
// @Param question body dto.QuestionCreateDTO true "Question"
// @Success 200 {object} dto.AdminQuestionDTO
// @Failure 409 {object} dto.ErrorResponse "Test already has attempts"
// @Router /admin/questions/{question_id} [put]
func (c *AdminTestController) UpdateQuestion(ctx *gin.Context) {
	questionID, ok := controller.ParseID(ctx, "question_id")
	if !ok {
		return
	}
	var req dto.QuestionCreateDTO
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.questionService.UpdateQuestion(ctx.Request.Context(), middleware.UserID(ctx), questionID, req)
	if err != nil {
		controller.RespondError(ctx, "UpdateQuestion", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteQuestion godoc
// @Summary (Creator) Delete a question
// @Tags Admin - Questions
// @Security BearerAuth
// @Param question_id path int true "Question ID"
// @Success 204
// @Failure 409 {object} dto.ErrorResponse "Test already has attempts"
// @Router /admin/questions/{question_id} [delete]
func (c *AdminTestController) DeleteQuestion(ctx *gin.Context) {
	questionID, ok := controller.ParseID(ctx, "question_id")
	if !ok {
		return
	}
	if err := c.questionService.DeleteQuestion(ctx.Request.Context(), middleware.UserID(ctx), questionID); err != nil {
		controller.RespondError(ctx, "DeleteQuestion", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
