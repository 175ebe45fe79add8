// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/semestra/internal/api"
	"github.com/starford/semestra/internal/catalogfile"
	"github.com/starford/semestra/internal/engine"
	"github.com/starford/semestra/internal/mcpserver"
	"github.com/starford/semestra/internal/prefs"
	"github.com/starford/semestra/internal/recordservice"
	"github.com/starford/semestra/internal/remote"
	"github.com/starford/semestra/internal/sse"
	"github.com/starford/semestra/internal/store"
)

func (a *application) init(out io.Writer) (*Config, *slog.Logger, error) {
	if a.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	if a.logOutput != nil {
		out = a.logOutput
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return a.config, logger, nil
}

// RunServe starts the record API with the given options.
func RunServe(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	cfg, logger, err := app.init(os.Stdout)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.Bool("catalog_watch", cfg.Catalog.Watch),
		slog.Bool("auth", cfg.Auth.AuthEnabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	modules, err := catalogfile.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := recordservice.NewService(db, modules, broker, logger)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		if rl := cfg.App.HTTP.RateLimit; rl.Enabled() {
			r.Use(api.NewRateLimiter(ctx, rl.RPS, rl.Burst).Middleware)
		}
		r.Mount("/api", apiRouter)
	})

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Catalog.Watch {
		g.Go(func() error {
			if err := catalogfile.Watch(gCtx, modules, logger, broker.PublishCatalogReloaded); err != nil {
				logger.Warn("catalog watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		// Ends open event streams so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the semester engine against the record API and serves it
// as MCP tools on stdio. Logs go to stderr since stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	cfg, logger, err := app.init(os.Stderr)
	if err != nil {
		return err
	}
	if err := cfg.ValidateClient(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	client := remote.NewClient(cfg.Client.ServerURL, cfg.Client.Token, cfg.Client.Timeout)
	profile := prefs.NewStore(cfg.Client.ProfilePath)
	eng := engine.New(client, client, profile, logger)

	// The engine still works offline; the ledger fills on the next refresh.
	if err := eng.Start(ctx); err != nil {
		logger.Warn("initial refresh failed",
			slog.String("server_url", cfg.Client.ServerURL),
			slog.String("error", err.Error()))
	}

	logger.Info("MCP server starting", slog.String("server_url", cfg.Client.ServerURL))
	return mcpserver.New(eng, profile).ServeStdio()
}
