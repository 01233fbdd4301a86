package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	postgresRepo "github.com/ledgerkeep/ledgerkeep/internal/adapter/repository/postgres"
	redisRepo "github.com/ledgerkeep/ledgerkeep/internal/adapter/repository/redis"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/config"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/eventpublisher"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/metrics"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/postgres"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/redis"
	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
	"github.com/ledgerkeep/ledgerkeep/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "worker",
	})

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns, cfg.DatabaseTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	journalRepo := postgresRepo.NewJournalRepository(pool)
	reportingRepo := postgresRepo.NewReportingRepository(pool)
	claimRepo := postgresRepo.NewClaimRightRepository(pool)
	amortRepo := postgresRepo.NewAmortizationRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(log)
	runLock := redisRepo.NewRunLock(redisClient)

	// Use cases
	registryUC := usecase.NewRegistryUseCase(txManager, accountRepo, reportingRepo, idGen)
	accrualUC := usecase.NewAccrualUseCase(
		txManager, claimRepo, amortRepo, journalRepo, outboxRepo,
		registryUC, retrier, idGen, m, log,
	)

	// Task server and scheduler
	handler := worker.NewAccrualHandler(accrualUC, runLock, cfg.AccrualRunLockTTL, log)

	srv, err := worker.NewServer(worker.ServerConfig{
		RedisURL:    cfg.RedisURL,
		Concurrency: cfg.WorkerConcurrency,
		Logger:      log,
	}, handler)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create task server")
	}

	scheduler, err := worker.NewScheduler(cfg.RedisURL, cfg.AccrualCron, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}

	// Outbox drain loop
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(log),
		Logger:     log,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	publisherCtx, stopPublisher := context.WithCancel(ctx)
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Ops endpoints
	opsServer := &http.Server{
		Addr:    ":" + cfg.OpsPort,
		Handler: worker.NewOpsRouter(pool, redisClient),
	}
	go func() {
		log.Info().Str("port", cfg.OpsPort).Msg("starting ops server")
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ops server failed")
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start task server")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	log.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker...")

	scheduler.Shutdown()
	srv.Shutdown()
	stopPublisher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
