package conversations

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

const defaultHistoryLimit = 50

// IngestParams describes one inbound customer DM.
type IngestParams struct {
	AccountID           uuid.UUID
	ExternalThreadID    string
	ExternalMessageID   string
	ParticipantID       string
	ParticipantName     string
	ParticipantUsername string
	Content             string
}

// IngestResult reports where the inbound message landed.
type IngestResult struct {
	Conversation *models.Conversation
	Message      *models.Message
	Duplicate    bool
}

// Service owns conversation threads and their message log.
type Service interface {
	AccountByInstagramUserID(ctx context.Context, instagramUserID string) (*models.Account, error)
	Ingest(ctx context.Context, params IngestParams) (*IngestResult, error)
	RecentHistory(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error)
	Messages(ctx context.Context, accountID, conversationID uuid.UUID, limit int) ([]models.Message, error)
	ToggleAutoReply(ctx context.Context, accountID, conversationID uuid.UUID, enabled bool) (*models.Conversation, error)
	RecordAIMessage(ctx context.Context, conversationID uuid.UUID, content string, tone enums.Tone) (*models.Message, error)
	MarkMessageStatus(ctx context.Context, messageID uuid.UUID, status enums.ResponseStatus) error
	AttachExternalID(ctx context.Context, messageID uuid.UUID, externalID string) error
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// ServiceParams wires conversation dependencies.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
	Now    func() time.Time
}

// NewService validates dependencies and builds the conversation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "conversations repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "conversations logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, logg: params.Logger, now: now}, nil
}

func (s *service) AccountByInstagramUserID(ctx context.Context, instagramUserID string) (*models.Account, error) {
	if strings.TrimSpace(instagramUserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "instagram user id required")
	}
	account, err := s.repo.AccountByInstagramUserID(ctx, instagramUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup account")
	}
	return account, nil
}

// Ingest persists an inbound customer message, creating the thread on first
// contact. Redelivered provider messages are detected by external id and
// reported as duplicates without writing anything.
func (s *service) Ingest(ctx context.Context, params IngestParams) (*IngestResult, error) {
	if params.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if strings.TrimSpace(params.ExternalThreadID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external thread id required")
	}
	if strings.TrimSpace(params.Content) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message content required")
	}

	if params.ExternalMessageID != "" {
		existing, err := s.repo.MessageByExternalID(ctx, params.ExternalMessageID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check message dedupe")
		}
		if existing != nil {
			conversation, err := s.repo.GetByID(ctx, params.AccountID, existing.ConversationID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load conversation")
			}
			return &IngestResult{Conversation: conversation, Message: existing, Duplicate: true}, nil
		}
	}

	row := &models.Conversation{
		AccountID:        params.AccountID,
		ExternalThreadID: params.ExternalThreadID,
		ParticipantID:    params.ParticipantID,
		AutoReplyEnabled: true,
	}
	if params.ParticipantName != "" {
		row.ParticipantName = &params.ParticipantName
	}
	if params.ParticipantUsername != "" {
		row.ParticipantUsername = &params.ParticipantUsername
	}

	conversation, err := s.repo.FindOrCreate(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find or create conversation")
	}

	now := s.now().UTC()
	message := &models.Message{
		ConversationID: conversation.ID,
		SenderType:     enums.SenderTypeCustomer,
		Content:        params.Content,
		SentAt:         now,
	}
	if params.ExternalMessageID != "" {
		message.ExternalMessageID = &params.ExternalMessageID
	}

	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist customer message")
	}
	if err := s.repo.TouchLastMessage(ctx, conversation.ID, now); err != nil {
		s.logg.Error(s.logg.WithConversationID(ctx, conversation.ID.String()), "touch last message", err)
	}

	return &IngestResult{Conversation: conversation, Message: message}, nil
}

// RecentHistory returns up to limit messages in chronological order.
func (s *service) RecentHistory(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	if conversationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation id required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	messages, err := s.repo.RecentMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent messages")
	}

	// newest-first from the repo, oldest-first for callers
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *service) Messages(ctx context.Context, accountID, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}

	conversation, err := s.repo.GetByID(ctx, accountID, conversationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load conversation")
	}
	if conversation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
	}
	return s.RecentHistory(ctx, conversationID, limit)
}

func (s *service) ToggleAutoReply(ctx context.Context, accountID, conversationID uuid.UUID, enabled bool) (*models.Conversation, error) {
	if accountID == uuid.Nil || conversationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account and conversation ids required")
	}

	found, err := s.repo.SetAutoReply(ctx, accountID, conversationID, enabled)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle auto-reply")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
	}
	return s.repo.GetByID(ctx, accountID, conversationID)
}

// RecordAIMessage persists a generated reply in pending state; delivery flips
// it to sent or needs_attention.
func (s *service) RecordAIMessage(ctx context.Context, conversationID uuid.UUID, content string, tone enums.Tone) (*models.Message, error) {
	if conversationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation id required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message content required")
	}

	now := s.now().UTC()
	status := enums.ResponseStatusPending
	message := &models.Message{
		ConversationID: conversationID,
		SenderType:     enums.SenderTypeAI,
		Content:        content,
		AIGenerated:    true,
		ToneUsed:       &tone,
		ResponseStatus: &status,
		SentAt:         now,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist ai message")
	}
	if err := s.repo.TouchLastMessage(ctx, conversationID, now); err != nil {
		s.logg.Error(s.logg.WithConversationID(ctx, conversationID.String()), "touch last message", err)
	}
	return message, nil
}

func (s *service) MarkMessageStatus(ctx context.Context, messageID uuid.UUID, status enums.ResponseStatus) error {
	if messageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "message id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown response status")
	}

	found, err := s.repo.UpdateMessageStatus(ctx, messageID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update message status")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "message not found or not an ai reply")
	}
	return nil
}

func (s *service) AttachExternalID(ctx context.Context, messageID uuid.UUID, externalID string) error {
	if messageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "message id required")
	}
	if strings.TrimSpace(externalID) == "" {
		return nil
	}
	if err := s.repo.UpdateMessageExternalID(ctx, messageID, externalID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach external message id")
	}
	return nil
}
