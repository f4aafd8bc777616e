package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fadedpez/gamblinghall/internal/config"
	"github.com/fadedpez/gamblinghall/internal/logging"
	"github.com/fadedpez/gamblinghall/pkg/api"
	"github.com/fadedpez/gamblinghall/pkg/db/migrations"
	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
	"github.com/fadedpez/gamblinghall/pkg/locks"
	"github.com/fadedpez/gamblinghall/pkg/metrics"
	"github.com/fadedpez/gamblinghall/pkg/repositories/audit"
	walletRepo "github.com/fadedpez/gamblinghall/pkg/repositories/wallet"
	"github.com/fadedpez/gamblinghall/pkg/scheduler"
	"github.com/fadedpez/gamblinghall/pkg/services/casino"
	"github.com/fadedpez/gamblinghall/pkg/services/statistics"
	"github.com/fadedpez/gamblinghall/pkg/services/validation"
	"github.com/fadedpez/gamblinghall/pkg/services/wallet"
)

const serviceName = "gamblinghall"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger, err := logging.New(serviceName, cfg.Environment, cfg.IsDevelopment(), logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()
	logging.Default = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	seeds, err := fairness.NewService([]byte(cfg.FairnessSecret))
	if err != nil {
		return fmt.Errorf("fairness secret: %w", err)
	}

	db, err := walletRepo.Open(cfg.DBDriver, cfg.DBDSN, cfg.LockTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.NewEmbeddedMigrator(db).WithLogger(logger).MigrateUp(); err != nil {
		return fmt.Errorf("error applying migrations: %w", err)
	}
	repo := walletRepo.NewSQLRepository(db, cfg.LockTimeout)

	collector := metrics.NewCollector(serviceName)
	healthChecks := []api.Option{
		api.WithHealthCheck("database", func(ctx context.Context) error { return db.PingContext(ctx) }),
		api.WithHealthDetail("fairness", func() any {
			return map[string]any{"generation": seeds.Generation(), "rotated_at": seeds.RotatedAt()}
		}),
	}

	var locker locks.Locker
	if cfg.RedisAddr == "" {
		memory := locks.NewMemoryLocker(cfg.LockTimeout)
		locker = memory
		healthChecks = append(healthChecks, api.WithHealthDetail("locks", func() any {
			return map[string]int{"held": memory.Held()}
		}))
	} else {
		client, err := locks.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()
		locker = locks.NewRedisLocker(client, locks.PlayerPrefix(serviceName), cfg.LockTimeout, 2*cfg.LockTimeout+5*time.Second)
		healthChecks = append(healthChecks, api.WithHealthCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
		logger.Info("using redis player locks at %s", cfg.RedisAddr)
	}

	ledger := wallet.NewService(repo, wallet.WithLocker(locker), wallet.WithLogger(logger))

	engineOpts := []casino.Option{
		casino.WithLogger(logger),
		casino.WithRecorder(collector),
		casino.WithRateLimiter(casino.NewRateLimiter(cfg.RatePerSecond, cfg.RateBurst)),
	}

	jobs := scheduler.NewScheduler(logger)
	var tasks []string

	if cfg.AuditEnabled() {
		auditRepo, err := audit.NewRepository(&audit.Config{
			URL:             cfg.ESURL,
			Username:        cfg.ESUsername,
			Password:        cfg.ESPassword,
			IndexPrefix:     cfg.ESIndexPrefix,
			RetentionPeriod: cfg.AuditRetention,
		}, logger)
		if err != nil {
			return fmt.Errorf("audit mirror: %w", err)
		}
		defer auditRepo.Close()
		if err := auditRepo.Ping(ctx); err != nil {
			// The mirror is best effort; wagers settle without it
			logger.Warn("audit mirror unreachable at boot: %v", err)
		}

		engineOpts = append(engineOpts, casino.WithAuditor(auditRepo))
		healthChecks = append(healthChecks,
			api.WithHealthCheck("audit", auditRepo.Ping),
			api.WithAuditHistory(auditRepo),
		)
		if err := jobs.ScheduleAuditPruning(cfg.AuditPrune, auditRepo); err != nil {
			return err
		}
		tasks = append(tasks, scheduler.TaskAuditPruning)

		// A restart may have skipped a prune window
		if err := jobs.RunNow(ctx, scheduler.TaskAuditPruning); err != nil {
			logger.Warn("audit pruning at boot: %v", err)
		}
	}

	if cfg.RotationEnabled() {
		err := jobs.ScheduleSecretRotation(cfg.RotateSchedule, seeds, secretSource(cfg), func(int) {
			collector.SecretRotated()
		})
		if err != nil {
			return err
		}
		tasks = append(tasks, scheduler.TaskSecretRotation)
	}
	if len(tasks) > 0 {
		healthChecks = append(healthChecks, api.WithHealthDetail("scheduler", func() any {
			next := make(map[string]time.Time, len(tasks))
			for _, name := range tasks {
				next[name] = jobs.Next(name)
			}
			return next
		}))
	}

	validator := validation.New(map[entities.Game]validation.Limits{
		entities.GameSlots:     {Min: cfg.MinBet, Max: cfg.MaxBet},
		entities.GameDice:      {Min: cfg.MinBet, Max: cfg.MaxBet},
		entities.GameBlackjack: {Min: cfg.MinBet, Max: cfg.MaxBet},
		entities.GameLottery:   {Min: cfg.LotteryMinBet, Max: cfg.LotteryMaxBet},
	})
	engine := casino.NewService(ledger, seeds, validator, engineOpts...)

	apiOpts := append([]api.Option{
		api.WithLogger(logger),
		api.WithMetrics(collector),
		api.WithOpeningBalance(cfg.OpeningBalance),
		api.WithStatistics(statistics.NewService(ledger)),
	}, healthChecks...)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.New(engine, ledger, apiOpts...).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	jobs.Start(ctx)
	defer jobs.Stop()

	errs := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// secretSource returns the next fairness secret for a scheduled rotation
func secretSource(cfg *config.Config) scheduler.SecretSource {
	if cfg.SecretFile != "" {
		return func() ([]byte, error) {
			secret, err := os.ReadFile(cfg.SecretFile)
			if err != nil {
				return nil, err
			}
			return bytes.TrimSpace(secret), nil
		}
	}
	return fairness.GenerateSecret
}
