package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/exp/slog"

	"voicedrop/internal/app/server/api"
	"voicedrop/internal/app/server/config"
	"voicedrop/internal/domain/recording"
	"voicedrop/internal/domain/session"
	"voicedrop/internal/domain/user"
	"voicedrop/internal/infrastructure/staging"
	"voicedrop/internal/infrastructure/storage/postgres"
	"voicedrop/internal/utils/logger"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancelInit := context.WithTimeout(ctx, 10*time.Second)
	defer cancelInit()

	storage, err := postgres.New(initCtx, cfg)
	if err != nil {
		return err
	}
	defer storage.Close()
	log.Info("connected to postgres, migrations applied")

	area, err := staging.New(afero.NewOsFs(), cfg.Upload.StagingDir)
	if err != nil {
		return err
	}

	userRepo := postgres.NewUserRepository(storage.Pool(), log)
	sessionRepo := postgres.NewSessionRepository(storage.Pool(), log)
	recordingRepo := postgres.NewRecordingRepository(storage.Pool(), log)

	sessions := session.NewService(sessionRepo, cfg.Session.TTL, log)
	go sessions.RunPurger(ctx, cfg.Session.PurgeInterval)

	router := api.New(cfg, api.Services{
		Users:      user.NewService(userRepo, user.NewValidator(), log),
		Sessions:   sessions,
		Recordings: recording.NewService(recordingRepo, area, cfg.Upload.MaxBytes, log),
		DB:         storage,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Server.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", "address", cfg.Server.RunAddress, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
