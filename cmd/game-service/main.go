package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	achievementcontroller "sqlquest/internal/achievement/controller"
	achievementrepo "sqlquest/internal/achievement/repository"
	achievementsvc "sqlquest/internal/achievement/service"
	"sqlquest/internal/common/cache"
	"sqlquest/internal/common/db"
	"sqlquest/internal/common/http/middleware"
	"sqlquest/internal/sandbox"
	submissioncontroller "sqlquest/internal/submission/controller"
	submissionsvc "sqlquest/internal/submission/service"
	taskcontroller "sqlquest/internal/task/controller"
	taskrepo "sqlquest/internal/task/repository"
	tasksvc "sqlquest/internal/task/service"
	usercontroller "sqlquest/internal/user/controller"
	userrepo "sqlquest/internal/user/repository"
	usersvc "sqlquest/internal/user/service"
	"sqlquest/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := os.Getenv("GAME_SERVICE_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := loadAppConfig(configPath)
	if err != nil {
		fatal("load config failed", err)
	}
	if err := logger.Init(cfg.Logger); err != nil {
		fatal("init logger failed", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mainDB, err := db.NewPostgreSQLWithConfig(&cfg.MainDatabase)
	if err != nil {
		fatal("connect main database failed", err)
	}
	defer mainDB.Close()

	gameDB, err := db.NewPostgreSQLWithConfig(&cfg.GameDatabase)
	if err != nil {
		fatal("connect game database failed", err)
	}
	defer gameDB.Close()

	redisCache, err := cache.NewRedisCacheWithConfig(&cfg.Redis)
	if err != nil {
		fatal("connect redis failed", err)
	}
	defer redisCache.Close()

	executor, err := sandbox.NewExecutor(gameDB, sandbox.ExecutorConfig{
		StatementTimeout: cfg.Sandbox.StatementTimeout,
	})
	if err != nil {
		fatal("init sandbox executor failed", err)
	}

	provider := db.NewStaticProvider(mainDB)
	userRepo := userrepo.NewUserRepository(provider)
	taskRepo := taskrepo.NewTaskRepository(provider)
	achievementRepo := achievementrepo.NewAchievementRepository(provider)

	authService := usersvc.NewAuthService(mainDB, userRepo, redisCache, cfg.Auth)
	profileService := usersvc.NewProfileService(userRepo)
	ratingService := usersvc.NewRatingService(userRepo, redisCache)
	taskService := tasksvc.NewTaskService(mainDB, taskRepo, userRepo)
	achievementService := achievementsvc.NewAchievementService(achievementRepo)
	submissionService := submissionsvc.NewSubmissionService(mainDB, executor, taskRepo, userRepo, achievementService)

	authController := usercontroller.NewAuthController(authService)
	profileController := usercontroller.NewProfileController(profileService, achievementService)
	ratingController := usercontroller.NewRatingController(ratingService)
	taskController := taskcontroller.NewTaskController(taskService)
	achievementController := achievementcontroller.NewAchievementController(achievementService)
	submitController := submissioncontroller.NewSubmitController(submissionService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.TraceContextMiddleware())

	api := engine.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)

		authed := api.Group("")
		authed.Use(middleware.AuthMiddleware(authService))
		{
			authed.POST("/auth/logout", authController.Logout)

			authed.GET("/profile/me", profileController.Me)
			authed.GET("/profile/tasks_progress", profileController.TasksProgress)
			authed.GET("/profile/achievements", profileController.Achievements)

			authed.GET("/tasks", taskController.List)
			authed.GET("/tasks/get_info", taskController.GetInfo)
			authed.GET("/tasks/missions/:mission_id/tasks/:task_id", taskController.TaskInfo)
			authed.GET("/tasks/missions/:mission_id/tasks/:task_id/expected_result", taskController.ExpectedResult)
			authed.POST("/tasks/missions/:mission_id/tasks/:task_id/clue", taskController.Clue)
			authed.POST("/tasks/missions/:mission_id/tasks/:task_id/check", submitController.Check)

			authed.GET("/achievements", achievementController.List)

			authed.GET("/rating/", ratingController.Top)
			authed.GET("/rating/personal", ratingController.Personal)
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "game service listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "game service shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "graceful shutdown failed", zap.Error(err))
	}
}

func fatal(msg string, err error) {
	zl, zerr := zap.NewProduction()
	if zerr == nil {
		zl.Error(msg, zap.Error(err))
		_ = zl.Sync()
	}
	os.Exit(1)
}
