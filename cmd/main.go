package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/verticalstudies/coaching-api/config"
	"github.com/verticalstudies/coaching-api/database"
	_ "github.com/verticalstudies/coaching-api/docs"
	adminctrl "github.com/verticalstudies/coaching-api/internal/controller/admin"
	authctrl "github.com/verticalstudies/coaching-api/internal/controller/auth"
	userctrl "github.com/verticalstudies/coaching-api/internal/controller/user"
	"github.com/verticalstudies/coaching-api/internal/event"
	"github.com/verticalstudies/coaching-api/internal/logger"
	"github.com/verticalstudies/coaching-api/internal/middleware"
	"github.com/verticalstudies/coaching-api/internal/model"
	"github.com/verticalstudies/coaching-api/internal/repository"
	"github.com/verticalstudies/coaching-api/internal/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Vertical Studies Coaching API
// @version 1.0
// @description Tests, submissions, scoring and leaderboards for a coaching institute.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	pretty, _ := strconv.ParseBool(os.Getenv("LOG_PRETTY"))
	logger.Init(os.Getenv("LOG_LEVEL"), pretty)

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			database.NewRedis,
			event.NewPublisher,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewUserRepository,
			repository.NewSessionRepository,
			repository.NewTestRepository,
			repository.NewQuestionRepository,
			repository.NewTestAttemptRepository,
		),

		fx.Provide(
			service.NewAuthService,
			func(auth service.AuthService) service.DisplayNameResolver { return auth },
			service.NewRankLocker,
			service.NewScoreConverterService,
			service.NewGeminiLLMService,
			service.NewAdminTestService,
			service.NewUserTestService,
			service.NewTestSubmissionService,
			service.NewLeaderboardService,
		),

		fx.Provide(
			authctrl.NewAuthController,
			adminctrl.NewAdminTestController,
			userctrl.NewUserTestController,
		),

		fx.Invoke(ConfigureLogger),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(SeedAdmin),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
}

// ConfigureLogger applies settings that may only be present in the .env file.
func ConfigureLogger(cfg *config.Config) {
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	// Cookies are sent cross-site, so origins are reflected rather than wildcarded.
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	authService service.AuthService,
	authCtrl *authctrl.AuthController,
	adminTestCtrl *adminctrl.AdminTestController,
	userTestCtrl *userctrl.UserTestController,
) {
	router.GET("/healthz", func(ctx *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx.Request.Context())
		}
		if err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := router.Group("/api/v1")
	authed := router.Group("/api/v1", middleware.RequireAuth(authService))

	authCtrl.RegisterRoutes(public, authed)
	userTestCtrl.RegisterRoutes(authed)
	adminTestCtrl.RegisterRoutes(authed.Group("/admin", middleware.RequireRole(model.RoleTeacher, model.RoleAdmin)))

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Coaching API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Test{},
		&model.Question{},
		&model.TestAttempt{},
		&model.Answer{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}

func SeedAdmin(cfg *config.Config, auth service.AuthService) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return auth.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name)
}
