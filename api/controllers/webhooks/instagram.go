package webhooks

import (
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/dmpilot-backend/api/responses"
	"github.com/angelmondragon/dmpilot-backend/internal/autoreply"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/instagram"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

type instagramClient interface {
	VerifyToken() string
}

// InstagramVerify answers Meta's subscription handshake: echo the challenge
// when the verify token matches, reject otherwise.
func InstagramVerify(client instagramClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "instagram client unavailable"))
			return
		}

		query := r.URL.Query()
		mode := query.Get("hub.mode")
		token := query.Get("hub.verify_token")
		challenge := query.Get("hub.challenge")

		if mode != "subscribe" || token == "" || token != client.VerifyToken() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "verify token mismatch"))
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(challenge)); err != nil && logg != nil {
			logg.Error(ctx, "write verify challenge", err)
		}
	}
}

// InstagramWebhook ingests inbound DM events. Each messaging entry runs
// through the auto-reply pipeline independently; failures are logged but
// the delivery is always acknowledged so Meta does not retry the batch.
func InstagramWebhook(orch autoreply.Orchestrator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if orch == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orchestrator unavailable"))
			return
		}

		// Meta sends fields beyond what we model; decode leniently.
		var payload instagram.WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload"))
			return
		}

		for _, entry := range payload.Entry {
			for _, event := range entry.Messaging {
				if event.Message == nil || event.Message.IsEcho || event.Message.Text == "" {
					continue
				}

				msg := autoreply.InboundMessage{
					RecipientInstagramID: event.Recipient.ID,
					SenderID:             event.Sender.ID,
					MessageID:            event.Message.MID,
					Text:                 event.Message.Text,
				}
				if err := orch.HandleInbound(ctx, msg); err != nil && logg != nil {
					evCtx := logg.WithField(ctx, "external_message_id", event.Message.MID)
					logg.Error(evCtx, "inbound message processing failed", err)
				}
			}
		}

		responses.WriteSuccess(w, nil)
	}
}
