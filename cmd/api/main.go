package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-health-tracker/internal/adapters/analytics"
	"pet-health-tracker/internal/adapters/auth/jwtauth"
	pg "pet-health-tracker/internal/adapters/storage/postgres"
	"pet-health-tracker/internal/domain/sharetokens"
	"pet-health-tracker/internal/platform/logger"
	portanalytics "pet-health-tracker/internal/ports/analytics"
	"pet-health-tracker/internal/ports/auth"
	"pet-health-tracker/internal/router"
)

const shutdownTimeout = 5 * time.Second

// @title Pet Health Tracker API
// @version 1.0
// @description Mascotas, vacunas, historia médica y links compartidos.
// @BasePath /
func main() {
	cfg := NewConfig()
	if err := cfg.LoadDotEnv(os.Getwd); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.LoadEnv(os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "load env: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ParseFlags(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", map[string]any{"error": err})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, log logger.Logger) error {
	var db *sql.DB
	if cfg.DatabaseDSN != "" {
		var err error
		db, err = pg.OpenAndMigrate(cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		log.Info("using postgres storage", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	var verifier auth.AuthVerifier
	if cfg.JWTSecret != "" {
		v, err := jwtauth.NewVerifier(jwtauth.Config{Secret: cfg.JWTSecret, Audience: cfg.JWTAudience})
		if err != nil {
			return fmt.Errorf("jwt verifier: %w", err)
		}
		verifier = v
	} else {
		log.Warn("AUTH_JWT_SECRET not set, running in dev auth mode", nil)
	}

	var sink portanalytics.Sink = analytics.NewLogSink(log)
	if cfg.AnalyticsURL != "" {
		s, err := analytics.NewHTTPSink(analytics.Config{
			BaseURL:     cfg.AnalyticsURL,
			APIKey:      cfg.AnalyticsAPIKey,
			Environment: cfg.Environment,
		})
		if err != nil {
			return fmt.Errorf("analytics sink: %w", err)
		}
		sink = s
	}

	handler := router.NewRouter(router.Options{
		AuthVerifier:    verifier,
		DB:              db,
		Logger:          log,
		Analytics:       sink,
		ShareURLs:       sharetokens.NewURLBuilder(cfg.ShareBaseURL, cfg.ShareStagingURL, cfg.ShareStagingMarker),
		ShareRatePerSec: cfg.ShareRatePerSec,
		ShareRateBurst:  cfg.ShareRateBurst,

		TrustProxyHeaders: cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.ListenAddr, "environment": cfg.Environment})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Warn("shutdown signal received", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
