// Command excuses runs the excuse generator API server and its terminal
// client.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/edgeee/excuse-generator/config"
	"github.com/edgeee/excuse-generator/database"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "excuses",
	Short: "Generate excuses with an LLM and rank them by likes",
	Long: `excuses serves the excuse generator HTTP API and provides a terminal
client for it.

Configuration is read from the environment and, when present, a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine; the environment may already be set.
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}
		logger := newLogger(cmd.ErrOrStderr(), cfg)

		db, err := database.Connect(cmd.Context(), cfg.DatabaseURL, cfg.DatabaseDriver)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		if err := db.CreateSchema(cmd.Context()); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		logger.Info("Schema created")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file with environment variables to load")
	rootCmd.AddCommand(serveCmd, migrateCmd, tuiCmd)
}

// newLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
