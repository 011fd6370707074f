package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fastfare/fastfare-backend/internal/cron"
	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/internal/partners"
	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/internal/settlement"
	"github.com/fastfare/fastfare-backend/internal/tier"
	"github.com/fastfare/fastfare-backend/internal/withdrawal"
	"github.com/fastfare/fastfare-backend/pkg/config"
	"github.com/fastfare/fastfare-backend/pkg/db"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/metrics"
	"github.com/fastfare/fastfare-backend/pkg/migrate"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/payout"
	"github.com/fastfare/fastfare-backend/pkg/redis"
)

const lockKeyFormat = "ff:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	outboxRepo := outbox.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outboxRepo, logg)

	sellersRepo := sellers.NewRepository(gormDB)
	partnersRepo := partners.NewRepository(gormDB)

	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{
		Repo:         ledger.NewRepository(gormDB),
		Sellers:      sellersRepo,
		Partners:     partnersRepo,
		Tx:           dbClient,
		Outbox:       outboxSvc,
		Logger:       logg,
		WriteRetries: cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	settlementSvc, err := settlement.NewService(settlement.ServiceParams{
		Repo:              settlement.NewRepository(gormDB),
		Sellers:           sellersRepo,
		Ledger:            ledgerSvc,
		Tx:                dbClient,
		Outbox:            outboxSvc,
		Logger:            logg,
		EligibilityWindow: cfg.Settlement.EligibilityWindow,
		MaxRetries:        cfg.Settlement.MaxRetries,
		WriteRetries:      cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	tierSvc, err := tier.NewService(tier.ServiceParams{
		Repo:         tier.NewRepository(gormDB),
		Sellers:      sellersRepo,
		Tx:           dbClient,
		Outbox:       outboxSvc,
		Logger:       logg,
		WriteRetries: cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tier service", err)
		os.Exit(1)
	}

	payoutProvider, err := payout.New(cfg.Razorpay)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout provider", err)
		os.Exit(1)
	}

	withdrawalSvc, err := withdrawal.NewService(withdrawal.ServiceParams{
		Repo:         withdrawal.NewRepository(gormDB),
		Sellers:      sellersRepo,
		Partners:     partnersRepo,
		Ledger:       ledgerSvc,
		Tx:           dbClient,
		Outbox:       outboxSvc,
		Provider:     payoutProvider,
		Logger:       logg,
		WriteRetries: cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawal service", err)
		os.Exit(1)
	}

	settlementJob, err := cron.NewSettlementProcessJob(cron.SettlementProcessJobParams{
		Logger:     logg,
		Settlement: settlementSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement job", err)
		os.Exit(1)
	}

	tierJob, err := cron.NewTierEvaluationJob(cron.TierEvaluationJobParams{
		Logger: logg,
		Tier:   tierSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tier evaluation job", err)
		os.Exit(1)
	}

	monthlyResetJob, err := cron.NewMonthlyResetJob(cron.MonthlyResetJobParams{
		Logger:  logg,
		DB:      dbClient,
		Sellers: sellersRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create monthly reset job", err)
		os.Exit(1)
	}

	stuckSweepJob, err := cron.NewStuckSweepJob(cron.StuckSweepJobParams{
		Logger:      logg,
		Settlement:  settlementSvc,
		Withdrawals: withdrawalSvc,
		Threshold:   cfg.Settlement.ProcessingStuckAfter,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stuck sweep job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
		Retention:  cfg.Outbox.RetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(settlementJob, tierJob, monthlyResetJob, stuckSweepJob, retentionJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
