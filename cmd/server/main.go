// Command server runs the placement assessment API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/ai/openrouter"
	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/auth"
	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-placement-coach/internal/app"
	"github.com/fairyhunter13/ai-placement-coach/internal/config"
	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
	"github.com/fairyhunter13/ai-placement-coach/internal/feedback"
	"github.com/fairyhunter13/ai-placement-coach/internal/pipeline"
	"github.com/fairyhunter13/ai-placement-coach/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(observability.SetupLogger(cfg))
	observability.InitMetrics()

	shutdownTracing, err := observability.SetupTracing(cfg)
	if err != nil {
		return fmt.Errorf("op=main tracing: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL, cfg.DBConnectMaxElapsed)
	if err != nil {
		return fmt.Errorf("op=main db connect: %w", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("op=main migrate: %w", err)
	}

	sessions, err := auth.NewRedisSessionStore(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("op=main redis: %w", err)
	}

	tables := pipeline.DefaultTables()
	if cfg.PipelineTablesPath != "" {
		tables, err = pipeline.LoadTables(cfg.PipelineTablesPath)
		if err != nil {
			return fmt.Errorf("op=main pipeline tables: %w", err)
		}
		slog.Info("pipeline tables loaded", slog.String("path", cfg.PipelineTablesPath))
	}
	policy := pipeline.NewPolicy(tables)

	var aiClient domain.AIClient
	if cfg.AIEnabled() {
		aiClient = openrouter.New(cfg)
		slog.Info("ai collaborator enabled", slog.String("model", cfg.OpenRouterModel))
	} else {
		slog.Warn("OPENROUTER_API_KEY not set; summaries use the deterministic fallback only")
	}
	builder := feedback.NewBuilder(aiClient, cfg.AIMaxTokens, cfg.AIPromptBudget)

	appRepo := postgres.NewApplicationRepo(pool)
	questionRepo := postgres.NewQuestionRepo(pool)
	resultRepo := postgres.NewResultRepo(pool)

	srv := httpserver.NewServer(cfg,
		usecase.NewApplicationService(appRepo, policy),
		usecase.NewSubmissionService(appRepo, questionRepo, resultRepo, policy),
		usecase.NewSummaryService(builder),
		usecase.NewResultService(resultRepo),
		questionRepo,
	)

	checks := map[string]func(ctx domain.Context) error{
		"postgres": func(ctx domain.Context) error { return pool.Ping(ctx) },
		"redis":    sessions.Ping,
	}

	router := app.NewRouter(cfg, srv, sessions, checks)
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.Int("port", cfg.Port), slog.String("env", cfg.AppEnv))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("op=main listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Error("tracing shutdown failed", slog.Any("error", err))
		}
	}
	slog.Info("server stopped")
	return nil
}
