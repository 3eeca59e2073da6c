package autoreply

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/dmpilot-backend/internal/conversations"
	"github.com/angelmondragon/dmpilot-backend/internal/quota"
	"github.com/angelmondragon/dmpilot-backend/internal/tone"
	"github.com/angelmondragon/dmpilot-backend/internal/trials"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
	"github.com/angelmondragon/dmpilot-backend/pkg/metrics"
)

// MessageSender delivers outbound DMs and returns the provider message id.
type MessageSender interface {
	Send(ctx context.Context, recipientID, text string) (string, error)
}

// InboundMessage is one customer DM as delivered by the messaging webhook.
type InboundMessage struct {
	RecipientInstagramID string
	SenderID             string
	ThreadID             string
	MessageID            string
	SenderName           string
	SenderUsername       string
	Text                 string
}

// Orchestrator runs the full inbound-DM pipeline: persist, gate, generate,
// meter, deliver.
type Orchestrator interface {
	HandleInbound(ctx context.Context, msg InboundMessage) error
}

type orchestrator struct {
	conversations conversations.Service
	trials        trials.Service
	quota         quota.Service
	tone          tone.Service
	generator     Generator
	sender        MessageSender
	limiter       ReplyLimiter
	metrics       *metrics.AutoReplyMetrics
	logg          *logger.Logger
}

// OrchestratorParams wires the pipeline dependencies.
type OrchestratorParams struct {
	Conversations conversations.Service
	Trials        trials.Service
	Quota         quota.Service
	Tone          tone.Service
	Generator     Generator
	Sender        MessageSender
	Limiter       ReplyLimiter
	Metrics       *metrics.AutoReplyMetrics
	Logger        *logger.Logger
}

// NewOrchestrator validates dependencies and builds the pipeline.
func NewOrchestrator(params OrchestratorParams) (Orchestrator, error) {
	if params.Conversations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "conversations service required")
	}
	if params.Trials == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trials service required")
	}
	if params.Quota == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quota service required")
	}
	if params.Tone == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tone service required")
	}
	if params.Generator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "generator required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "message sender required")
	}
	if params.Limiter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reply limiter required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orchestrator logger required")
	}
	return &orchestrator{
		conversations: params.Conversations,
		trials:        params.Trials,
		quota:         params.Quota,
		tone:          params.Tone,
		generator:     params.Generator,
		sender:        params.Sender,
		limiter:       params.Limiter,
		metrics:       params.Metrics,
		logg:          params.Logger,
	}, nil
}

// HandleInbound processes one customer DM. The message is always persisted
// before any gating so the inbox is complete even when no reply goes out.
func (o *orchestrator) HandleInbound(ctx context.Context, msg InboundMessage) error {
	account, err := o.conversations.AccountByInstagramUserID(ctx, msg.RecipientInstagramID)
	if err != nil {
		return err
	}
	if account == nil {
		// webhook subscriptions can outlive accounts; not an error
		o.logg.Warn(o.logg.WithField(ctx, "instagram_user_id", msg.RecipientInstagramID), "inbound message for unknown account")
		return nil
	}
	ctx = o.logg.WithAccountID(ctx, account.ID.String())

	threadID := msg.ThreadID
	if threadID == "" {
		threadID = msg.SenderID
	}

	ingested, err := o.conversations.Ingest(ctx, conversations.IngestParams{
		AccountID:           account.ID,
		ExternalThreadID:    threadID,
		ExternalMessageID:   msg.MessageID,
		ParticipantID:       msg.SenderID,
		ParticipantName:     msg.SenderName,
		ParticipantUsername: msg.SenderUsername,
		Content:             msg.Text,
	})
	if err != nil {
		return err
	}
	if ingested.Duplicate {
		return nil
	}
	ctx = o.logg.WithConversationID(ctx, ingested.Conversation.ID.String())

	trialInfo, err := o.trials.Derive(ctx, account.ID)
	if err != nil {
		return err
	}
	usage, err := o.quota.GetUsage(ctx, account.ID)
	if err != nil {
		return err
	}

	decision := EvaluatePolicy(PolicyInput{
		ConversationAutoReply: ingested.Conversation.AutoReplyEnabled,
		SubscriptionAllows:    trialInfo.AutoReplyAllowed,
		QuotaExceeded:         usage.Exceeded,
	})
	if !decision.Allowed {
		o.metrics.IncOutcome("denied_" + decision.Reason.String())
		o.logg.Info(o.logg.WithField(ctx, "reason", decision.Reason.String()), "auto-reply denied")
		return nil
	}

	// one reply in flight per conversation; the customer message is already
	// persisted, so a skipped turn is only a missed reply, never lost data
	acquired, err := o.limiter.Acquire(ctx, ingested.Conversation.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire reply lock")
	}
	if !acquired {
		o.metrics.IncOutcome("skipped_in_flight")
		o.logg.Info(ctx, "reply already in flight for conversation")
		return nil
	}
	defer func() {
		if releaseErr := o.limiter.Release(ctx, ingested.Conversation.ID); releaseErr != nil {
			o.logg.Error(ctx, "release reply lock", releaseErr)
		}
	}()

	profile := o.tone.Resolve(ctx, account.ID)
	history, err := o.conversations.RecentHistory(ctx, ingested.Conversation.ID, historyLimit)
	if err != nil {
		return err
	}

	started := time.Now()
	reply, err := o.generator.Generate(ctx, GenerateParams{
		Profile:           profile,
		History:           history,
		CustomerFirstName: firstName(msg.SenderName),
	})
	o.metrics.ObserveGeneration(time.Since(started))
	if err != nil {
		o.metrics.IncOutcome("failed")
		return err
	}

	// replies are metered once generated, fallback or not; a failed delivery
	// still consumed the account's turn
	if _, err := o.quota.Consume(ctx, account.ID); err != nil {
		o.metrics.IncOutcome("failed")
		return err
	}

	aiMessage, err := o.conversations.RecordAIMessage(ctx, ingested.Conversation.ID, reply.Content, profile.Tone)
	if err != nil {
		o.metrics.IncOutcome("failed")
		return err
	}

	externalID, err := o.sender.Send(ctx, msg.SenderID, reply.Content)
	if err != nil {
		o.logg.Error(ctx, "outbound delivery failed", err)
		if markErr := o.conversations.MarkMessageStatus(ctx, aiMessage.ID, enums.ResponseStatusNeedsAttention); markErr != nil {
			o.logg.Error(ctx, "mark reply needs_attention", markErr)
		}
		o.metrics.IncOutcome("failed")
		return nil
	}

	if err := o.conversations.AttachExternalID(ctx, aiMessage.ID, externalID); err != nil {
		o.logg.Error(ctx, "attach external id to reply", err)
	}
	if err := o.conversations.MarkMessageStatus(ctx, aiMessage.ID, enums.ResponseStatusSent); err != nil {
		o.logg.Error(ctx, "mark reply sent", err)
	}

	if reply.Fallback {
		o.metrics.IncOutcome("fallback")
	} else {
		o.metrics.IncOutcome("sent")
	}
	return nil
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
