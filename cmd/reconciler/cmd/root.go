// Package cmd provides CLI commands for the reconciler.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ademirvarjao/conciliador-bancario/internal/application/service"
	"github.com/ademirvarjao/conciliador-bancario/internal/infrastructure/config"
	"github.com/ademirvarjao/conciliador-bancario/internal/infrastructure/storage"
)

var (
	cfgFile   string
	sessionID string
	debug     bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Reconcile bank statements against accounting ledgers",
	Long: `reconciler imports bank statements (CSV, OFX, JSON or plain text)
and accounting ledger exports, then matches both sides by value,
date proximity and description similarity.

Sessions persist in SQLite, so imports accumulate across runs
until a reset.

Example:
  reconciler import extrato.csv
  reconciler import --ledger razao.csv
  reconciler reconcile --tolerance-days 3
  reconciler export --out conciliacao.csv
  reconciler stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "default", "session identifier")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
}

// loadConfig loads the configuration with .env and flag overrides applied.
func loadConfig() *config.Config {
	_ = godotenv.Load()
	if cfgFile != "" {
		return config.LoadOrEnvWithPath(cfgFile)
	}
	return config.LoadOrEnv()
}

// openSession opens the persisted session for this CLI invocation. The
// caller must Close the returned repository.
func openSession() (*service.Service, *storage.Storage, error) {
	cfg := loadConfig()

	repo, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}

	session, err := service.New(service.Options{
		SessionID:  sessionID,
		MaxRecords: cfg.Import.MaxRecords,
		Repo:       repo,
		Logger:     slog.Default(),
	})
	if err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("opening session: %w", err)
	}
	return session, repo, nil
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
