package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/dmpilot-backend/internal/cron"
	"github.com/angelmondragon/dmpilot-backend/internal/quota"
	"github.com/angelmondragon/dmpilot-backend/internal/trials"
	"github.com/angelmondragon/dmpilot-backend/pkg/config"
	"github.com/angelmondragon/dmpilot-backend/pkg/db"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
	"github.com/angelmondragon/dmpilot-backend/pkg/metrics"
	"github.com/angelmondragon/dmpilot-backend/pkg/migrate"
	"github.com/angelmondragon/dmpilot-backend/pkg/redis"
	"github.com/angelmondragon/dmpilot-backend/pkg/resend"
	"github.com/angelmondragon/dmpilot-backend/pkg/stripe"
)

const lockKeyFormat = "dmp:cron-worker:lock:%s"

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

	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		logg.Error(bootCtx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(bootCtx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap stripe", err)
		os.Exit(1)
	}
	resendClient, err := resend.NewClient(bootCtx, cfg.Resend, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap resend", err)
		os.Exit(1)
	}

	quotaService, err := quota.NewService(quota.ServiceParams{
		Repo:                 quota.NewRepository(dbClient.DB()),
		Notifier:             resendClient,
		Logger:               logg,
		DefaultLimit:         cfg.Quota.DefaultLimit,
		NotificationsEnabled: cfg.Quota.NotificationsEnabled,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create quota service", err)
		os.Exit(1)
	}

	trialsService, err := trials.NewService(trials.ServiceParams{
		Repo:         trials.NewRepository(dbClient.DB()),
		StripeClient: trials.NewStripeClient(stripeClient),
		Notifier:     resendClient,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create trials service", err)
		os.Exit(1)
	}

	usageResetJob, err := cron.NewUsageResetJob(cron.UsageResetJobParams{
		Logger: logg,
		Quota:  quotaService,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create usage reset job", err)
		os.Exit(1)
	}

	trialReminderJob, err := cron.NewTrialReminderJob(cron.TrialReminderJobParams{
		Logger:     logg,
		Trials:     trialsService,
		WindowDays: cfg.Cron.TrialReminderDays,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create trial reminder job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(bootCtx, "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(usageResetJob, trialReminderJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create cron service", err)
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
