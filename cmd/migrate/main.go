package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/outpost-social/outpost/internal/db"
	"github.com/outpost-social/outpost/pkg/config"
	"github.com/outpost-social/outpost/pkg/logging"
)

// Applies the database schema and seeds the default guild. The API
// server migrates on startup too; this command exists for deploy
// pipelines that migrate before rolling new code.
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
	logger.Info("Starting Outpost migration")

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(cfg.Submit.DefaultGuild); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	logger.Info("Migration complete",
		zap.String("default_guild", cfg.Submit.DefaultGuild))
}
