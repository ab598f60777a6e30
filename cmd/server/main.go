// Package main runs the maintenance dashboard server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ontomaint/internal/app"
	"ontomaint/internal/config"
	"ontomaint/internal/db"
	"ontomaint/internal/domain"
	"ontomaint/internal/metrics"
	"ontomaint/internal/middleware"
	"ontomaint/internal/service/alerts"
	"ontomaint/internal/session"
	"ontomaint/internal/ui"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	// writeDB: single connection for serialized history inserts.
	// readDB: small pool for the history page.
	writeDB, readDB, err := db.OpenPair(cfg.HistoryDBPath, 4)
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer writeDB.Close() //nolint:errcheck
	defer readDB.Close()  //nolint:errcheck
	if err := db.Migrate(writeDB); err != nil {
		return fmt.Errorf("migrate history database: %w", err)
	}

	m := metrics.New()
	a, err := app.New(ctx, app.Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	sess := a.Services.Session

	// Warm the graph in the background. Requests arriving earlier share
	// this load through Ready.
	m.WatchGraph(func() (int, int, int) { return graphStats(sess.Stats()) })
	go func() {
		if err := sess.Ready(ctx); err != nil {
			logger.Error("graph warm-up failed", "error", err)
		}
	}()

	var alertSrc ui.AlertSource
	if cfg.AlertsEnabled() {
		sched := alerts.NewScheduler(a.Services.Query, m, logger)
		if err := sched.Start(ctx, cfg.AlertSchedule); err != nil {
			return err
		}
		defer sched.Stop()
		alertSrc = sched
	}

	var history domain.HistoryRepository
	if a.Services.History != nil {
		history = a.Services.History
	}
	handler := ui.NewHandler(sess, a.Services.Query, a.Services.Templates.Presets(), history, alertSrc, cfg.IsProduction(), logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "X-CSRF-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", handler.Healthz)
	r.Handle("/metrics", m.Handler())
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/ui/", http.StatusFound)
	})

	limiter := middleware.NewRateLimiter(ctx, middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})
	r.Route("/ui", func(r chi.Router) {
		r.Use(limiter.Handler)
		ui.MountRoutes(r, handler)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard listening", "addr", cfg.ListenAddr, "url", "http://"+dashboardHost(cfg.ListenAddr)+"/ui/")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func graphStats(stats session.Stats) (state, loaded, inferred int) {
	return int(stats.State), stats.LoadedTriples, stats.InferredTriples
}

// dashboardHost turns a listen address into a host usable in a URL
// printed for the operator. Wildcard hosts become localhost.
func dashboardHost(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
