package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmaia-dev/reelpick/internal/catalog"
	"github.com/dmaia-dev/reelpick/internal/config"
	"github.com/dmaia-dev/reelpick/internal/domain"
	"github.com/dmaia-dev/reelpick/internal/handler"
	"github.com/dmaia-dev/reelpick/internal/mail"
	"github.com/dmaia-dev/reelpick/internal/repository/sqlite"
	"github.com/dmaia-dev/reelpick/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	var mailer domain.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTP, cfg.BaseURL)
		slog.Info("activation mail via SMTP", "host", cfg.SMTP.Host)
	} else {
		mailer = mail.NewLogMailer(cfg.BaseURL)
		slog.Warn("SMTP not configured, activation links will be logged")
	}

	accounts := service.NewAccountService(db.Users(), mailer, cfg.JWTSecret, cfg.BcryptCost, cfg.StoreTimeout)
	movies := catalog.New(cfg.Catalog.BaseURL, cfg.Catalog.BearerToken)

	// 1 request/sec sustained, bursts of 10, per client address.
	limiter := service.NewRateLimiter(1, 10)
	defer limiter.Close()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, accounts, movies, limiter, cfg.CookieSecure)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
