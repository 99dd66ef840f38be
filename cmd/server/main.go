package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/router"
	"github.com/anonto42/nano-blog/backend/pkg/config"
	"github.com/anonto42/nano-blog/backend/pkg/firebase"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(cfg.Log)
	log := logger.L()

	// Initialize database connection
	db, err := config.OpenDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer config.CloseDB(db)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pageCache, err := router.NewPageCache(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize page cache")
	}
	defer pageCache.Close()

	store, err := router.NewStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Firebase is optional; without credentials only local accounts work
	var verifier middleware.TokenVerifier
	switch client, err := firebase.NewAuthClient(ctx, cfg.Firebase); {
	case err == nil:
		verifier = client
	case errors.Is(err, firebase.ErrDisabled):
		log.Info().Msg("firebase sign-in not configured")
	default:
		log.Warn().Err(err).Msg("firebase sign-in disabled")
	}

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	if limiter.Enabled() {
		go limiter.Sweep(ctx, time.Minute)
	}

	e, err := router.New(router.Deps{
		Config:   cfg,
		DB:       db,
		Cache:    pageCache,
		Storage:  store,
		Limiter:  limiter,
		Firebase: verifier,
		Logger:   *log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up routes")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}
