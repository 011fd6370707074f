package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/fastfare/fastfare-backend/internal/cod"
	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/internal/partners"
	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/internal/settlement"
	"github.com/fastfare/fastfare-backend/internal/shipments"
	"github.com/fastfare/fastfare-backend/pkg/config"
	"github.com/fastfare/fastfare-backend/pkg/db"
	"github.com/fastfare/fastfare-backend/pkg/instance"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/migrate"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/outbox/idempotency"
	"github.com/fastfare/fastfare-backend/pkg/pubsub"
	"github.com/fastfare/fastfare-backend/pkg/redis"
)

const deliveryIdempotencyTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

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

	codSvc, err := cod.NewService(cod.ServiceParams{
		Repo:           cod.NewRepository(gormDB),
		Ledger:         ledgerSvc,
		Tx:             dbClient,
		Outbox:         outboxSvc,
		Logger:         logg,
		TolerancePaise: cfg.Settlement.CODTolerancePaise,
		WriteRetries:   cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cod service", err)
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

	idempotencyManager, err := idempotency.NewManager(redisClient, deliveryIdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := shipments.NewConsumer(shipments.ConsumerParams{
		Ledger:       ledgerSvc,
		COD:          codSvc,
		Settlement:   settlementSvc,
		Tx:           dbClient,
		Idempotency:  idempotencyManager,
		Subscription: pubsubClient.ShipmentsSubscription(),
		Logger:       logg,
		WriteRetries: cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:           cfg,
		Logger:           logg,
		DB:               dbClient,
		Redis:            redisClient,
		PubSub:           pubsubClient,
		DeliveryConsumer: consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "worker",
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting delivery worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
