package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/dmpilot-backend/api/routes"
	"github.com/angelmondragon/dmpilot-backend/internal/autoreply"
	"github.com/angelmondragon/dmpilot-backend/internal/billing"
	"github.com/angelmondragon/dmpilot-backend/internal/conversations"
	"github.com/angelmondragon/dmpilot-backend/internal/quota"
	"github.com/angelmondragon/dmpilot-backend/internal/tone"
	"github.com/angelmondragon/dmpilot-backend/internal/trials"
	stripewebhook "github.com/angelmondragon/dmpilot-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/dmpilot-backend/pkg/config"
	"github.com/angelmondragon/dmpilot-backend/pkg/db"
	"github.com/angelmondragon/dmpilot-backend/pkg/instagram"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
	"github.com/angelmondragon/dmpilot-backend/pkg/metrics"
	"github.com/angelmondragon/dmpilot-backend/pkg/migrate"
	"github.com/angelmondragon/dmpilot-backend/pkg/openai"
	"github.com/angelmondragon/dmpilot-backend/pkg/redis"
	"github.com/angelmondragon/dmpilot-backend/pkg/resend"
	"github.com/angelmondragon/dmpilot-backend/pkg/stripe"
)

const stripeWebhookGuardTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe", err)
		os.Exit(1)
	}
	openaiClient, err := openai.NewClient(ctx, cfg.OpenAI, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap openai", err)
		os.Exit(1)
	}
	instagramClient, err := instagram.NewClient(ctx, cfg.Instagram, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap instagram", err)
		os.Exit(1)
	}
	resendClient, err := resend.NewClient(ctx, cfg.Resend, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap resend", err)
		os.Exit(1)
	}

	autoReplyMetrics := metrics.NewAutoReplyMetrics(prometheus.DefaultRegisterer)

	quotaService, err := quota.NewService(quota.ServiceParams{
		Repo:                 quota.NewRepository(dbClient.DB()),
		Notifier:             resendClient,
		Logger:               logg,
		DefaultLimit:         cfg.Quota.DefaultLimit,
		NotificationsEnabled: cfg.Quota.NotificationsEnabled,
	})
	if err != nil {
		logg.Error(ctx, "failed to create quota service", err)
		os.Exit(1)
	}

	trialsService, err := trials.NewService(trials.ServiceParams{
		Repo:         trials.NewRepository(dbClient.DB()),
		StripeClient: trials.NewStripeClient(stripeClient),
		Notifier:     resendClient,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create trials service", err)
		os.Exit(1)
	}

	toneService, err := tone.NewService(tone.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(ctx, "failed to create tone service", err)
		os.Exit(1)
	}

	conversationsService, err := conversations.NewService(conversations.ServiceParams{
		Repo:   conversations.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create conversations service", err)
		os.Exit(1)
	}

	generator, err := autoreply.NewGenerator(openaiClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to create reply generator", err)
		os.Exit(1)
	}

	replyLimiter, err := autoreply.NewConversationLimiter(redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create reply limiter", err)
		os.Exit(1)
	}

	orchestrator, err := autoreply.NewOrchestrator(autoreply.OrchestratorParams{
		Conversations: conversationsService,
		Trials:        trialsService,
		Quota:         quotaService,
		Tone:          toneService,
		Generator:     generator,
		Sender:        instagramClient,
		Limiter:       replyLimiter,
		Metrics:       autoReplyMetrics,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auto-reply orchestrator", err)
		os.Exit(1)
	}

	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		BillingRepo:       billing.NewRepository(dbClient.DB()),
		StripeClient:      stripewebhook.NewStripeClient(stripeClient),
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	stripeWebhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, stripeWebhookGuardTTL, "stripe-webhook")
	if err != nil {
		logg.Error(ctx, "failed to create stripe webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:               cfg,
			Logger:               logg,
			DBPinger:             dbClient,
			RedisPinger:          redisClient,
			ToneService:          toneService,
			QuotaService:         quotaService,
			TrialsService:        trialsService,
			ConversationsService: conversationsService,
			Orchestrator:         orchestrator,
			StripeClient:         stripeClient,
			StripeWebhooks:       stripeWebhookService,
			StripeWebhookGuard:   stripeWebhookGuard,
			InstagramClient:      instagramClient,
			MetricsHandler:       promhttp.Handler(),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
