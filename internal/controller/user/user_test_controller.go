package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mocktest/internal/controller"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/service"
)

type UserTestController struct {
	userTestService service.UserTestService
	rankingService  service.RankingService
}

func NewUserTestController(uts service.UserTestService, rs service.RankingService) *UserTestController {
	return &UserTestController{userTestService: uts, rankingService: rs}
}

func (c *UserTestController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/tests", c.GetAllTests)
	group.GET("/tests/:test_id", c.GetTestDetails)
	group.GET("/tests/:test_id/leaderboard", c.GetLeaderboard)
}

// GetAllTests godoc
// @Summary (Student) List published tests
// @Description Lists published tests with their question count per section.
// @Tags User - Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TestSummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests [get]
func (c *UserTestController) GetAllTests(ctx *gin.Context) {
	tests, err := c.userTestService.GetAllTests(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, "GetAllTests", err)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTestDetails godoc
// @Summary (Student) Get a published test
// @Description Returns the test and its questions without answer keys or solutions.
// @Tags User - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Test ID format"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id} [get]
func (c *UserTestController) GetTestDetails(ctx *gin.Context) {
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	test, err := c.userTestService.GetTestDetails(ctx.Request.Context(), testID)
	if err != nil {
		controller.RespondError(ctx, "GetTestDetails", err)
		return
	}
	ctx.JSON(http.StatusOK, test)
}

// GetLeaderboard godoc
// @Summary Top finalized attempts of a test
// @Tags User - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param limit query int false "Entries to return (default 10, max 100)"
// @Success 200 {array} dto.LeaderboardEntryDTO
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id}/leaderboard [get]
func (c *UserTestController) GetLeaderboard(ctx *gin.Context) {
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid limit"})
			return
		}
		limit = v
	}
	board, err := c.rankingService.Leaderboard(ctx.Request.Context(), testID, limit)
	if err != nil {
		controller.RespondError(ctx, "GetLeaderboard", err)
		return
	}
	ctx.JSON(http.StatusOK, board)
}
