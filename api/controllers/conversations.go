package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/dmpilot-backend/api/middleware"
	"github.com/angelmondragon/dmpilot-backend/api/responses"
	"github.com/angelmondragon/dmpilot-backend/api/validators"
	"github.com/angelmondragon/dmpilot-backend/internal/conversations"
	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

const maxMessagePageSize = 200

type autoReplyToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type conversationResponse struct {
	ID                  string     `json:"id"`
	ExternalThreadID    string     `json:"external_thread_id"`
	ParticipantID       string     `json:"participant_id"`
	ParticipantName     *string    `json:"participant_name,omitempty"`
	ParticipantUsername *string    `json:"participant_username,omitempty"`
	AutoReplyEnabled    bool       `json:"auto_reply_enabled"`
	LastMessageAt       *time.Time `json:"last_message_at,omitempty"`
}

type messageResponse struct {
	ID                string    `json:"id"`
	ExternalMessageID *string   `json:"external_message_id,omitempty"`
	SenderType        string    `json:"sender_type"`
	Content           string    `json:"content"`
	AIGenerated       bool      `json:"ai_generated"`
	ToneUsed          *string   `json:"tone_used,omitempty"`
	ResponseStatus    *string   `json:"response_status,omitempty"`
	SentAt            time.Time `json:"sent_at"`
}

// ConversationToggleAutoReply flips the per-thread override.
func ConversationToggleAutoReply(svc conversations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing"))
			return
		}

		conversationID, err := uuid.Parse(chi.URLParam(r, "conversationId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid conversation id"))
			return
		}

		var req autoReplyToggleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		conv, err := svc.ToggleAutoReply(ctx, accountID, conversationID, *req.Enabled)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, toConversationResponse(conv))
	}
}

// ConversationMessages returns the thread's messages oldest-first.
func ConversationMessages(svc conversations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing"))
			return
		}

		conversationID, err := uuid.Parse(chi.URLParam(r, "conversationId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid conversation id"))
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			limit = parsed
		}
		if limit > maxMessagePageSize {
			limit = maxMessagePageSize
		}

		messages, err := svc.Messages(ctx, accountID, conversationID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]messageResponse, 0, len(messages))
		for i := range messages {
			out = append(out, toMessageResponse(&messages[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func toConversationResponse(conv *models.Conversation) conversationResponse {
	return conversationResponse{
		ID:                  conv.ID.String(),
		ExternalThreadID:    conv.ExternalThreadID,
		ParticipantID:       conv.ParticipantID,
		ParticipantName:     conv.ParticipantName,
		ParticipantUsername: conv.ParticipantUsername,
		AutoReplyEnabled:    conv.AutoReplyEnabled,
		LastMessageAt:       conv.LastMessageAt,
	}
}

func toMessageResponse(msg *models.Message) messageResponse {
	out := messageResponse{
		ID:                msg.ID.String(),
		ExternalMessageID: msg.ExternalMessageID,
		SenderType:        string(msg.SenderType),
		Content:           msg.Content,
		AIGenerated:       msg.AIGenerated,
		SentAt:            msg.SentAt,
	}
	if msg.ToneUsed != nil {
		tone := string(*msg.ToneUsed)
		out.ToneUsed = &tone
	}
	if msg.ResponseStatus != nil {
		status := string(*msg.ResponseStatus)
		out.ResponseStatus = &status
	}
	return out
}
