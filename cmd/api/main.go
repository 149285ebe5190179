// Command api runs the bank reconciliation HTTP API.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ademirvarjao/conciliador-bancario/internal/api"
	"github.com/ademirvarjao/conciliador-bancario/internal/application/service"
	"github.com/ademirvarjao/conciliador-bancario/internal/infrastructure/config"
	"github.com/ademirvarjao/conciliador-bancario/internal/infrastructure/storage"
	"github.com/ademirvarjao/conciliador-bancario/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadOrEnv()
	logger := observability.NewLogger(cfg.Observability.Logging)
	slog.SetDefault(logger)

	repo, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open storage", "path", cfg.Storage.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	sessionID := os.Getenv("RECONCILER_SESSION_ID")
	if sessionID == "" {
		sessionID = "default"
	}

	session, err := service.New(service.Options{
		SessionID:  sessionID,
		MaxRecords: cfg.Import.MaxRecords,
		Repo:       repo,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create session service", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, session, logger)

	if err := server.Run(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
