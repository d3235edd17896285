package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/outpost-social/outpost/internal/api"
	"github.com/outpost-social/outpost/internal/cache"
	"github.com/outpost-social/outpost/internal/db"
	"github.com/outpost-social/outpost/internal/embed"
	"github.com/outpost-social/outpost/internal/enrich"
	"github.com/outpost-social/outpost/internal/moderation"
	"github.com/outpost-social/outpost/internal/render"
	"github.com/outpost-social/outpost/internal/submit"
	"github.com/outpost-social/outpost/internal/tasks"
	"github.com/outpost-social/outpost/pkg/config"
	"github.com/outpost-social/outpost/pkg/logging"
	"github.com/outpost-social/outpost/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Outpost API Server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect database and ensure schema
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(cfg.Submit.DefaultGuild); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Connect cache (optional)
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisCache != nil {
		defer redisCache.Close()
	}

	// Background work: enrichment jobs run on a bounded worker pool
	dispatcher := tasks.NewDispatcher(cfg.Submit.Workers, cfg.Submit.QueueSize)

	repo := db.NewRepository(database.DB)
	submissions := db.NewSubmissionRepository(repo)
	enricher := enrich.NewService(submissions, &cfg.Enrich)

	// Assemble the submission pipeline
	renderer := render.NewRenderer()
	pipeline := submit.NewService(submit.Config{
		Validator: submit.NewValidator(renderer, cfg.Submit.DefaultGuild),
		Policy:    submit.NewPolicyGate(db.NewGuildRepository(repo), cfg.Submit.DefaultGuild),
		Store:     submissions,
		Domains:   db.NewDomainRepository(repo),
		Renderer:  renderer,
		Scanner:   moderation.NewScanner(db.NewBadWordRepository(repo)),
		Embeds:    embed.NewRegistry(),
		Listings:  redisCache,
		Tasks:     dispatcher,
		Enricher:  enricher,
	})

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	apiRouter := api.NewRouter(database, redisCache, pipeline)
	apiRouter.SetupRoutes(router)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown: stop accepting requests, then drain queued
	// enrichment jobs so committed posts still get their thumbnails.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	dispatcher.Shutdown()

	logger.Info("Server exited")
}
