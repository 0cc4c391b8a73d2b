package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/config"
)

// ShutdownHook releases a resource once the server stops accepting requests.
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   ShutdownHook
}

type backgroundTask struct {
	name string
	fn   func(ctx context.Context)
}

// GracefulServer serves HTTP until interrupted, then drains in-flight
// requests, stops its background tasks and runs the shutdown hooks.
type GracefulServer struct {
	server *http.Server
	logger *slog.Logger
	config config.ServerConfig
	hooks  []namedHook
	tasks  []backgroundTask
	mu     sync.Mutex
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, cfg config.ServerConfig) *GracefulServer {
	return &GracefulServer{
		server: server,
		logger: logger,
		config: cfg,
	}
}

func (gs *GracefulServer) RegisterShutdownHook(name string, fn ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, namedHook{name: name, fn: fn})
}

// Go runs fn for as long as the server is up. Its context is cancelled
// before the shutdown hooks run.
func (gs *GracefulServer) Go(name string, fn func(ctx context.Context)) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.tasks = append(gs.tasks, backgroundTask{name: name, fn: fn})
}

// ListenAndServe serves on the configured address until SIGINT or SIGTERM.
func (gs *GracefulServer) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", gs.server.Addr, err)
	}
	return gs.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or the server fails.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	gs.mu.Lock()
	tasks := append([]backgroundTask(nil), gs.tasks...)
	gs.mu.Unlock()

	taskCtx, stopTasks := context.WithCancel(context.Background())
	var running sync.WaitGroup
	for _, task := range tasks {
		running.Add(1)
		go func() {
			defer running.Done()
			gs.logger.Debug("starting background task", "task", task.name)
			task.fn(taskCtx)
			gs.logger.Debug("background task stopped", "task", task.name)
		}()
	}
	stopAll := func() {
		stopTasks()
		running.Wait()
	}

	serverErrors := make(chan error, 1)
	go func() {
		gs.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"read_timeout", gs.config.ReadTimeout,
			"write_timeout", gs.config.WriteTimeout,
		)
		serverErrors <- gs.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		stopAll()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		gs.logger.Info("shutdown signal received", "cause", context.Cause(ctx))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gs.config.ShutdownTimeout)
	defer cancel()
	return gs.shutdown(shutdownCtx, stopAll)
}

func (gs *GracefulServer) shutdown(ctx context.Context, stopTasks func()) error {
	gs.logger.Info("starting graceful shutdown", "timeout", gs.config.ShutdownTimeout)

	gs.mu.Lock()
	hooks := append([]namedHook(nil), gs.hooks...)
	gs.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		if err := gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("HTTP server shutdown failed", "error", err)
			done <- fmt.Errorf("HTTP server shutdown failed: %w", err)
			return
		}
		gs.logger.Info("HTTP server stopped gracefully")

		stopTasks()

		var g errgroup.Group
		for _, hook := range hooks {
			g.Go(func() error {
				hookCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				defer cancel()

				if err := hook.fn(hookCtx); err != nil {
					gs.logger.Error("shutdown hook failed", "hook", hook.name, "error", err)
					return fmt.Errorf("shutdown hook %s failed: %w", hook.name, err)
				}
				gs.logger.Debug("shutdown hook completed", "hook", hook.name)
				return nil
			})
		}
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		gs.logger.Info("graceful shutdown completed")
		return err
	case <-ctx.Done():
		gs.logger.Warn("shutdown timeout exceeded, forcing exit")
		return ctx.Err()
	}
}
