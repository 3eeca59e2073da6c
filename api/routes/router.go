package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/dmpilot-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/dmpilot-backend/api/controllers/webhooks"
	"github.com/angelmondragon/dmpilot-backend/api/middleware"
	"github.com/angelmondragon/dmpilot-backend/internal/autoreply"
	"github.com/angelmondragon/dmpilot-backend/internal/conversations"
	"github.com/angelmondragon/dmpilot-backend/internal/quota"
	"github.com/angelmondragon/dmpilot-backend/internal/tone"
	"github.com/angelmondragon/dmpilot-backend/internal/trials"
	stripewebhook "github.com/angelmondragon/dmpilot-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/dmpilot-backend/pkg/config"
	"github.com/angelmondragon/dmpilot-backend/pkg/db"
	"github.com/angelmondragon/dmpilot-backend/pkg/instagram"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
	"github.com/angelmondragon/dmpilot-backend/pkg/redis"
	"github.com/angelmondragon/dmpilot-backend/pkg/stripe"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    db.Pinger
	RedisPinger redis.Pinger

	ToneService          tone.Service
	QuotaService         quota.Service
	TrialsService        trials.Service
	ConversationsService conversations.Service
	Orchestrator         autoreply.Orchestrator

	StripeClient       *stripe.Client
	StripeWebhooks     *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
	InstagramClient    *instagram.Client
	MetricsHandler     http.Handler
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DBPinger, params.RedisPinger))
	})

	if params.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", params.MetricsHandler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(params.StripeWebhooks, params.StripeClient, params.StripeWebhookGuard, logg))
		r.Get("/instagram", webhookcontrollers.InstagramVerify(params.InstagramClient, logg))
		r.Post("/instagram", webhookcontrollers.InstagramWebhook(params.Orchestrator, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AccountContext(logg))

		r.Route("/settings/tone", func(r chi.Router) {
			r.Get("/", controllers.ToneFetch(params.ToneService, logg))
			r.Put("/", controllers.ToneSave(params.ToneService, logg))
		})

		r.Get("/usage", controllers.UsageFetch(params.QuotaService, logg))

		r.Route("/trial", func(r chi.Router) {
			r.Get("/", controllers.TrialFetch(params.TrialsService, logg))
			r.Post("/end", controllers.TrialEndEarly(params.TrialsService, logg))
		})

		r.Route("/conversations/{conversationId}", func(r chi.Router) {
			r.Patch("/auto-reply", controllers.ConversationToggleAutoReply(params.ConversationsService, logg))
			r.Get("/messages", controllers.ConversationMessages(params.ConversationsService, logg))
		})
	})

	return r
}
