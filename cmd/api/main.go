package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/huygym/membership-system/internal/api"
	"github.com/huygym/membership-system/internal/api/bridge"
	"github.com/huygym/membership-system/internal/core/ports"
	"github.com/huygym/membership-system/internal/core/service"
	"github.com/huygym/membership-system/internal/infrastructure/activity"
	"github.com/huygym/membership-system/internal/infrastructure/db/memory"
	"github.com/huygym/membership-system/internal/infrastructure/db/mongo"
	"github.com/huygym/membership-system/internal/infrastructure/db/redis"
	"github.com/huygym/membership-system/internal/infrastructure/db/sqlite"
	"github.com/huygym/membership-system/internal/infrastructure/digest"
	"github.com/huygym/membership-system/internal/infrastructure/notify"
	"github.com/huygym/membership-system/internal/infrastructure/queue"
	"github.com/huygym/membership-system/internal/pkg/config"
	"github.com/huygym/membership-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title        HuyGym Identity API
// @version      1.0
// @description  Staff sign-in, session restore and logout for the HuyGym membership tool.
// @BasePath     /
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "huygym-identity",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return err
	}

	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	backend, pingers, closeBackend, err := newSessionBackend(ctx, cfg)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeBackend)

	sink, activityPingers, closeActivity, err := newActivitySink(ctx, cfg, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeActivity)
	pingers = append(pingers, activityPingers...)

	dispatcher := queue.NewDispatcher(cfg.Activity.Workers, sink, log)
	dispatcher.Start(context.WithoutCancel(ctx))
	cleanups = append(cleanups, dispatcher.Stop)

	inbox := notify.NewInbox(cfg.NotificationBuffer, log)
	ui := bridge.New(inbox, log)
	store := service.NewSessionStore(backend, cfg.Session.Key, nil, log)
	svc := service.NewIdentityService(verifier, store, dispatcher, log, service.WithObserver(ui))
	ui.Bind(svc)

	if svc.RestoreSession(ctx) {
		log.Info().Str("user", svc.Snapshot().Identity.Name).Msg("resuming stored session")
	}
	ui.Start()

	e := api.NewRouter(api.Dependencies{
		Log:      log,
		Identity: svc,
		UI:       ui,
		Inbox:    inbox,
		Activity: sink,
		Pingers:  pingers,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("session_backend", cfg.Session.Backend).
			Str("activity_backend", cfg.Activity.Backend).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newVerifier(cfg config.AuthConfig) (*digest.Verifier, error) {
	algo, err := digest.ParseAlgorithm(cfg.DigestAlgorithm)
	if err != nil {
		return nil, err
	}
	reference := cfg.AdminPasswordDigest
	if reference == "" {
		if algo != digest.SHA256 {
			return nil, fmt.Errorf("ADMIN_PASSWORD_DIGEST is required with DIGEST_ALGORITHM=%s", algo)
		}
		reference = digest.DefaultAdminDigest
	}
	return digest.NewVerifier(algo, reference)
}

func newSessionBackend(ctx context.Context, cfg *config.Config) (ports.SessionBackend, []ports.Pinger, func(), error) {
	switch cfg.Session.Backend {
	case config.BackendRedis:
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		backend := redis.NewSessionBackend(client)
		return backend, []ports.Pinger{backend}, func() { _ = client.Close() }, nil
	case config.BackendMemory:
		return memory.NewKV(), nil, func() {}, nil
	default:
		db, err := sqlite.Open(ctx, cfg.Session.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		backend := sqlite.NewKV(db)
		return backend, []ports.Pinger{backend}, func() { _ = db.Close() }, nil
	}
}

type activitySink interface {
	ports.ActivityRecorder
	ports.ActivityReader
}

func newActivitySink(ctx context.Context, cfg *config.Config, log zerolog.Logger) (activitySink, []ports.Pinger, func(), error) {
	if cfg.Activity.Backend != config.ActivityMongo {
		return activity.NewLogRecorder(log, 0), nil, func() {}, nil
	}

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "huygym-identity",
	})
	if err != nil {
		return nil, nil, nil, err
	}
	repo := mongo.NewActivityRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("could not create activity indexes")
	}
	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}
	return repo, []ports.Pinger{mongo.NewDatabasePinger(db)}, closeFn, nil
}
