package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
)

func init() {
	// Chart data is read as numbers by the page.
	decimal.MarshalJSONWithoutQuotes = true
}

func newExplorer(cfg *config.Config, logger *slog.Logger) (*services.Explorer, error) {
	mode, err := services.ParseMatchMode(cfg.Filter.MatchMode)
	if err != nil {
		return nil, err
	}

	loader := dataset.NewLoader(dataset.Options{
		Path:          cfg.Data.File,
		Sheet:         cfg.Data.Sheet,
		SkipRows:      cfg.Data.SkipRows,
		SyntheticRows: cfg.Data.SyntheticRows,
		SyntheticSeed: cfg.Data.SyntheticSeed,
		CacheDir:      cfg.Data.CacheDir,
	}, logger)
	sessions := services.NewSessionStore(loader, cfg.Session.TTL, logger)
	sessions.SetMaxSessions(cfg.Session.MaxSessions)

	return services.NewExplorer(sessions, services.ExplorerOptions{
		Mode:        mode,
		DatasetName: cfg.Data.DatasetName,
		ExportBOM:   cfg.Data.ExportBOM,
	}, logger), nil
}

func newHandler(cfg *config.Config, explorer *services.Explorer, rateLimiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	srv := server.NewServer(explorer, logger, cfg.Session)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	explorer, err := newExplorer(cfg, logger)
	if err != nil {
		logger.Error("failed to build explorer", "error", err)
		os.Exit(1)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, explorer, rateLimiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.Go("session-sweeper", func(ctx context.Context) {
		explorer.Sessions().Run(ctx, cfg.Session.SweepInterval)
	})
	gracefulServer.Go("rate-limiter-sweeper", rateLimiter.Run)
	gracefulServer.RegisterShutdownHook("sessions", func(ctx context.Context) error {
		logger.Info("releasing sessions", "stats", explorer.Sessions().Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
