package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/catprep/mocktest-service/internal/analysis"
	"github.com/catprep/mocktest-service/internal/config"
	"github.com/catprep/mocktest-service/internal/content"
	"github.com/catprep/mocktest-service/internal/handlers"
	"github.com/catprep/mocktest-service/internal/reports"
	"github.com/catprep/mocktest-service/internal/repositories/postgres"
	"github.com/catprep/mocktest-service/internal/services"
	"github.com/catprep/mocktest-service/internal/session"
	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/catprep/mocktest-service/pkg"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	// --- Database ---
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return
	}
	if err := postgres.AutoMigrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		return
	}
	repo := postgres.NewRepository(db)

	// --- Session store (Redis) ---
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		return
	}
	defer redisClient.Close()
	store := session.NewRedisStore(redisClient, slogger)

	// --- Test content ---
	library, err := content.LoadLibrary(cfg.ContentFile, slogger)
	if err != nil {
		logger.Error("Failed to load test content", "error", err, "path", cfg.ContentFile)
		return
	}
	logger.Info("Test content loaded", "tests", len(library.Names()))

	// --- Event publisher ---
	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		return
	}
	defer publisher.Close()

	// --- Progress workbooks and AI coach ---
	workbooks := reports.NewWriter(cfg.UserDataDir, logger)
	analyzer := analysis.New(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, logger)

	// --- Services ---
	tokens := services.NewTokenIssuer(cfg.JWTSecret)
	userService := services.NewUserService(repo, tokens, logger)
	examService := services.NewExamService(library, store, repo, workbooks, publisher, logger)
	statsService := services.NewStatsService(repo, workbooks, logger)
	analysisService := services.NewAnalysisService(repo, analyzer, logger)

	// --- HTTP ---
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		utils.RegisterCustomValidators(v)
	}

	router := gin.New()
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(gin.Recovery())

	hm := handlers.NewHandlerManager(userService, examService, statsService, analysisService, logger)
	hm.SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	// Persist live sessions before the process exits so students can
	// recover them on restart.
	examService.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
