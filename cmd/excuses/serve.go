package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgeee/excuse-generator/api"
	"github.com/edgeee/excuse-generator/config"
	"github.com/edgeee/excuse-generator/database"
	"github.com/edgeee/excuse-generator/llm"
	"github.com/edgeee/excuse-generator/redis"
	"github.com/edgeee/excuse-generator/scheduler"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg))
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseDriver)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if cfg.DatabaseAutoMigrate {
		if err := db.CreateSchema(ctx); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	a := &api.API{
		Logger:   logger,
		DB:       db,
		SkipTips: !cfg.GenerateTips,
		Debug:    cfg.APIDebug,
	}

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if gen != nil {
		a.Generator = gen
	}

	if cfg.RedisAddr != "" {
		cache, err := redis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer cache.Close()
		a.Cache = cache

		if cfg.CacheRefreshSpec != "" {
			sched := scheduler.New(logger)
			if err := sched.Add(cfg.CacheRefreshSpec, "leaderboard-refresh", cfg.CacheTTL, a.RefreshLeaderboard); err != nil {
				return fmt.Errorf("schedule leaderboard refresh: %w", err)
			}
			sched.Start()
			defer sched.Stop()
		}
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      a,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", cfg.HTTPAddr, "provider", cfg.LLMProvider)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newGenerator returns nil when the provider credential is missing, which
// puts the API in fallback mode.
func newGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*llm.Generator, error) {
	llmClient, err := llm.NewFactory(cfg).CreateClient(ctx)
	if errors.Is(err, llm.ErrNotConfigured) {
		logger.Warn("LLM provider not configured, serving fallback excuses", "provider", cfg.LLMProvider)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return &llm.Generator{
		Client:  llmClient,
		Logger:  logger,
		Timeout: cfg.LLMTimeout,
	}, nil
}
