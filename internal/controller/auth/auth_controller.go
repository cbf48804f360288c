package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mocktest/internal/controller"
	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/middleware"
	"github.com/lshigami/mocktest/internal/service"
	"github.com/rs/zerolog/log"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// RegisterRoutes mounts register and login on public, and me on authed.
func (c *AuthController) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.POST("/auth/register", c.Register)
	public.POST("/auth/login", c.Login)
	authed.GET("/auth/me", c.Me)
}

// Register godoc
// @Summary Create an account
// @Description Role is "student" (default) or "creator".
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body dto.RegisterRequest true "Account"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.authService.Register(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "Register", err)
		return
	}
	log.Info().Uint("userID", resp.User.ID).Str("role", resp.User.Role).Msg("User registered")
	ctx.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Exchange credentials for a token
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse "Invalid email or password"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.authService.Login(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "Login", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Me godoc
// @Summary The authenticated user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserDTO
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid token"
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	user, err := c.authService.Me(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		controller.RespondError(ctx, "Me", err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}
