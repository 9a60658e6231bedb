package main

import (
	"context"
	"github.com/bootcamp67/ms-transaction/internal/app"
	"github.com/bootcamp67/ms-transaction/internal/config"
	"github.com/bootcamp67/ms-transaction/internal/di"
	"github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/bootcamp67/ms-transaction/internal/infrastructure/api/routers"
	"github.com/bootcamp67/ms-transaction/internal/infrastructure/database/db_client"
	"github.com/bootcamp67/ms-transaction/internal/infrastructure/database/migrations"
	"github.com/bootcamp67/ms-transaction/internal/infrastructure/events"
	"github.com/bootcamp67/ms-transaction/internal/metrics"
	"github.com/bootcamp67/ms-transaction/internal/usecases/interactor"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/bootcamp67/ms-transaction/pkg/worker"
	"github.com/joho/godotenv"
	"time"
)

const (
	appName        = "ms-transaction"
	eventQueueSize = 1024
	publishTimeout = 5 * time.Second
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	envErr := godotenv.Load()
	cfg := config.Load()

	opts := []log.LoggerOption{log.WithConsoleLogger(), log.WithLevelName(cfg.Log.Level)}
	if cfg.Log.File != "" {
		opts = append(opts, log.WithFileLogger(cfg.Log.File))
	}
	log.Init(appName, opts...)
	logger := log.GetLogger()
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("No .env file loaded")
	}

	metrics.Init()

	pgClient := db_client.NewPGClient(cfg.PostgreSQL)
	db, err := pgClient.Connect(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrorFailedToConnectToTheDatabase)
	}
	defer db.Close()

	if cfg.PostgreSQL.ShouldMigrate() {
		if err = migrations.Run(cfg.PostgreSQL.DSN()); err != nil {
			logger.Fatal().Err(err).Msg(errors.ErrorFailedToRunMigrations)
		}
	}

	publisher, err := events.NewPublisher(ctx, events.Options{
		Driver:       cfg.Events.Driver,
		KafkaBrokers: cfg.Events.Brokers(),
		Topic:        cfg.Events.Topic,
		RedisAddr:    cfg.Events.RedisAddr,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrorFailedToCreatePublisher)
	}

	workers, err := cfg.Events.WorkerCount()
	if err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrorFailedToCreatePublisher)
	}
	pool := worker.NewPool(workers, eventQueueSize)
	notifier := interactor.NewEventNotifier(publisher, pool, publishTimeout)

	container, err := di.NewContainer(db, notifier, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	interval, err := cfg.Process.IntervalDuration()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	recovery := app.NewRecoveryProcess(container.RecoveryInteractor, interval)
	go recovery.Run(ctx)

	router := routers.NewRouter(container)
	service := app.NewService(cfg)
	service.OnShutdown("recovery", func() error { cancel(); return nil })
	service.OnShutdown("event-pool", func() error { pool.Stop(); return nil })
	service.OnShutdown("event-publisher", publisher.Close)

	if err = service.Run(ctx, router); err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrorFailedToRunTheServer)
	}
}
