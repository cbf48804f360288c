package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/mocktest/config"
	"github.com/lshigami/mocktest/database"
	_ "github.com/lshigami/mocktest/docs"
	adminctrl "github.com/lshigami/mocktest/internal/controller/admin"
	authctrl "github.com/lshigami/mocktest/internal/controller/auth"
	userctrl "github.com/lshigami/mocktest/internal/controller/user"
	"github.com/lshigami/mocktest/internal/logger"
	"github.com/lshigami/mocktest/internal/middleware"
	"github.com/lshigami/mocktest/internal/model"
	"github.com/lshigami/mocktest/internal/repository"
	"github.com/lshigami/mocktest/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Mock Test API
// @version 1.0
// @description Timed mock exams: authoring, attempts with a server-side countdown, scoring, ranking and analysis.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			database.NewRedis,
			NewGinEngine,
		),

		// Repositories Layer
		fx.Provide(
			repository.NewUserRepository,
			repository.NewTestRepository,
			repository.NewQuestionRepository,
			repository.NewTestAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewPercentileRepository,
			repository.NewLeaderboardRepository,
			repository.NewAttemptStore,
		),

		// Services Layer
		fx.Provide(
			service.NewAuthService,
			service.NewGeminiExplainer,
			service.NewRankingService,
			service.NewAdminTestService,
			service.NewQuestionService,
			service.NewUserTestService,
			service.NewAttemptService,
			func(attempts service.AttemptService, cfg *config.Config) *service.ExpirySweeper {
				return service.NewExpirySweeper(attempts, cfg.SweepInterval)
			},
		),

		// API Controllers Layer
		fx.Provide(
			authctrl.NewAuthController,
			adminctrl.NewAdminTestController,
			userctrl.NewUserTestController,
			userctrl.NewAttemptController,
		),

		fx.Invoke(ApplyLogConfig),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(StartExpirySweeper),
	)

	app.Run()
	log.Info().Msg("Application stopped")
}

// ApplyLogConfig re-applies LOG_LEVEL and LOG_FORMAT once viper has read .env.
func ApplyLogConfig(cfg *config.Config) {
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		requestID, _ := param.Keys[middleware.RequestIDKey].(string)
		event := log.Info()
		if param.StatusCode >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("request_id", requestID).
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.Server.CorsOrigins) == 0 || cfg.Server.CorsOrigins[0] == "*" {
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = cfg.Server.CorsOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	authService service.AuthService,
	authCtrl *authctrl.AuthController,
	adminTestCtrl *adminctrl.AdminTestController,
	userTestCtrl *userctrl.UserTestController,
	attemptCtrl *userctrl.AttemptController,
) {
	api := router.Group("/api/v1")
	authed := api.Group("", middleware.Authenticate(authService))

	authCtrl.RegisterRoutes(api, authed)
	adminTestCtrl.RegisterRoutes(authed.Group("/admin", middleware.RequireRole(model.RoleCreator)))
	userTestCtrl.RegisterRoutes(authed)
	attemptCtrl.RegisterRoutes(authed)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Mock test API starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

// StartExpirySweeper runs the sweeper for the lifetime of the app.
func StartExpirySweeper(lc fx.Lifecycle, sweeper *service.ExpirySweeper) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				sweeper.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	if err := database.AutoMigrate(db); err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
