package autoreply

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/angelmondragon/dmpilot-backend/internal/conversations"
	"github.com/angelmondragon/dmpilot-backend/internal/quota"
	"github.com/angelmondragon/dmpilot-backend/internal/tone"
	"github.com/angelmondragon/dmpilot-backend/internal/trials"
	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

type stubConversations struct {
	account       *models.Account
	conversation  *models.Conversation
	duplicate     bool
	ingested      []conversations.IngestParams
	history       []models.Message
	aiMessages    []string
	statusByID    map[uuid.UUID]enums.ResponseStatus
	lastAIMessage *models.Message
	externalIDs   map[uuid.UUID]string
}

func (s *stubConversations) AccountByInstagramUserID(ctx context.Context, id string) (*models.Account, error) {
	return s.account, nil
}

func (s *stubConversations) Ingest(ctx context.Context, params conversations.IngestParams) (*conversations.IngestResult, error) {
	s.ingested = append(s.ingested, params)
	message := &models.Message{ID: uuid.New(), ConversationID: s.conversation.ID, SenderType: enums.SenderTypeCustomer, Content: params.Content}
	return &conversations.IngestResult{Conversation: s.conversation, Message: message, Duplicate: s.duplicate}, nil
}

func (s *stubConversations) RecentHistory(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	return s.history, nil
}

func (s *stubConversations) Messages(ctx context.Context, accountID, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	return s.history, nil
}

func (s *stubConversations) ToggleAutoReply(ctx context.Context, accountID, conversationID uuid.UUID, enabled bool) (*models.Conversation, error) {
	return s.conversation, nil
}

func (s *stubConversations) RecordAIMessage(ctx context.Context, conversationID uuid.UUID, content string, toneUsed enums.Tone) (*models.Message, error) {
	s.aiMessages = append(s.aiMessages, content)
	status := enums.ResponseStatusPending
	s.lastAIMessage = &models.Message{ID: uuid.New(), ConversationID: conversationID, Content: content, ResponseStatus: &status}
	return s.lastAIMessage, nil
}

func (s *stubConversations) MarkMessageStatus(ctx context.Context, messageID uuid.UUID, status enums.ResponseStatus) error {
	if s.statusByID == nil {
		s.statusByID = map[uuid.UUID]enums.ResponseStatus{}
	}
	s.statusByID[messageID] = status
	return nil
}

func (s *stubConversations) AttachExternalID(ctx context.Context, messageID uuid.UUID, externalID string) error {
	if s.externalIDs == nil {
		s.externalIDs = map[uuid.UUID]string{}
	}
	s.externalIDs[messageID] = externalID
	return nil
}

type stubTrials struct {
	info trials.Info
}

func (s *stubTrials) Derive(ctx context.Context, accountID uuid.UUID) (*trials.Info, error) {
	return &s.info, nil
}

func (s *stubTrials) EndTrialEarly(ctx context.Context, accountID uuid.UUID) (*trials.Info, error) {
	return &s.info, nil
}

func (s *stubTrials) SendExpiryReminders(ctx context.Context, withinDays int) (int, error) {
	return 0, nil
}

type stubQuota struct {
	usage    quota.Usage
	consumed int
}

func (s *stubQuota) GetUsage(ctx context.Context, accountID uuid.UUID) (*quota.Usage, error) {
	usage := s.usage
	return &usage, nil
}

func (s *stubQuota) Consume(ctx context.Context, accountID uuid.UUID) (*quota.Usage, error) {
	s.consumed++
	usage := s.usage
	usage.CurrentUsage++
	return &usage, nil
}

func (s *stubQuota) EnsureCurrentPeriod(ctx context.Context, accountID uuid.UUID) error {
	return nil
}

func (s *stubQuota) AccountIDs(ctx context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

type stubTone struct {
	profile tone.Profile
}

func (s *stubTone) Resolve(ctx context.Context, accountID uuid.UUID) tone.Profile {
	return s.profile
}

func (s *stubTone) Get(ctx context.Context, accountID uuid.UUID) (tone.Profile, error) {
	return s.profile, nil
}

func (s *stubTone) Save(ctx context.Context, params tone.SaveParams) (tone.Profile, error) {
	return s.profile, nil
}

type stubGenerator struct {
	reply Reply
	err   error
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, params GenerateParams) (*Reply, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	reply := s.reply
	return &reply, nil
}

type stubSender struct {
	sent []string
	err  error
}

func (s *stubSender) Send(ctx context.Context, recipientID, text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, text)
	return "mid_" + recipientID, nil
}

type stubLimiter struct {
	held     bool
	err      error
	acquired int
	released int
}

func (s *stubLimiter) Acquire(ctx context.Context, conversationID uuid.UUID) (bool, error) {
	s.acquired++
	if s.err != nil {
		return false, s.err
	}
	return !s.held, nil
}

func (s *stubLimiter) Release(ctx context.Context, conversationID uuid.UUID) error {
	s.released++
	return nil
}

type fixture struct {
	convs     *stubConversations
	trials    *stubTrials
	quota     *stubQuota
	tone      *stubTone
	generator *stubGenerator
	sender    *stubSender
	limiter   *stubLimiter
	orch      Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accountID := uuid.New()
	f := &fixture{
		convs: &stubConversations{
			account:      &models.Account{ID: accountID, Email: "owner@example.com"},
			conversation: &models.Conversation{ID: uuid.New(), AccountID: accountID, AutoReplyEnabled: true},
			history:      []models.Message{{SenderType: enums.SenderTypeCustomer, Content: "hi"}},
		},
		trials:    &stubTrials{info: trials.Info{Status: enums.SubscriptionStatusActive, AutoReplyAllowed: true}},
		quota:     &stubQuota{usage: quota.Usage{CurrentUsage: 10, QuotaLimit: 500}},
		tone:      &stubTone{profile: tone.DefaultProfile()},
		generator: &stubGenerator{reply: Reply{Content: "Thanks for reaching out! Happy to help you."}},
		sender:    &stubSender{},
		limiter:   &stubLimiter{},
	}

	orch, err := NewOrchestrator(OrchestratorParams{
		Conversations: f.convs,
		Trials:        f.trials,
		Quota:         f.quota,
		Tone:          f.tone,
		Generator:     f.generator,
		Sender:        f.sender,
		Limiter:       f.limiter,
		Logger:        logger.New(logger.Options{Level: zerolog.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	f.orch = orch
	return f
}

func inbound() InboundMessage {
	return InboundMessage{
		RecipientInstagramID: "ig_biz",
		SenderID:             "ig_cust",
		MessageID:            "m_1",
		SenderName:           "Dana Lee",
		Text:                 "is the program open?",
	}
}

func TestHandleInboundHappyPath(t *testing.T) {
	f := newFixture(t)

	if err := f.orch.HandleInbound(context.Background(), inbound()); err != nil {
		t.Fatalf("handle inbound: %v", err)
	}

	if len(f.convs.ingested) != 1 {
		t.Fatalf("customer message must be persisted")
	}
	if f.quota.consumed != 1 {
		t.Fatalf("quota consumed = %d, want 1", f.quota.consumed)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("reply must be delivered")
	}
	if f.convs.lastAIMessage == nil {
		t.Fatalf("ai message must be recorded")
	}
	if got := f.convs.statusByID[f.convs.lastAIMessage.ID]; got != enums.ResponseStatusSent {
		t.Fatalf("reply status = %s, want sent", got)
	}
	if f.convs.externalIDs[f.convs.lastAIMessage.ID] != "mid_ig_cust" {
		t.Fatalf("external id must be attached")
	}
}

func TestHandleInboundUnknownAccountIgnored(t *testing.T) {
	f := newFixture(t)
	f.convs.account = nil

	if err := f.orch.HandleInbound(context.Background(), inbound()); err != nil {
		t.Fatalf("unknown account must not error: %v", err)
	}
	if len(f.convs.ingested) != 0 {
		t.Fatalf("nothing should be persisted for unknown accounts")
	}
}

func TestHandleInboundDuplicateStopsPipeline(t *testing.T) {
	f := newFixture(t)
	f.convs.duplicate = true

	if err := f.orch.HandleInbound(context.Background(), inbound()); err != nil {
		t.Fatalf("handle inbound: %v", err)
	}
	if f.generator.calls != 0 || f.quota.consumed != 0 || len(f.sender.sent) != 0 {
		t.Fatalf("duplicate delivery must not generate, meter or send")
	}
}

func TestHandleInboundDeniedPersistsMessageOnly(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"conversation disabled", func(f *fixture) { f.convs.conversation.AutoReplyEnabled = false }},
		{"subscription inactive", func(f *fixture) {
			f.trials.info = trials.Info{Status: enums.SubscriptionStatusPastDue}
		}},
		{"quota exceeded", func(f *fixture) {
			f.quota.usage = quota.Usage{CurrentUsage: 500, QuotaLimit: 500, Exceeded: true}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.setup(f)

			if err := f.orch.HandleInbound(context.Background(), inbound()); err != nil {
				t.Fatalf("denial must not error: %v", err)
			}
			if len(f.convs.ingested) != 1 {
				t.Fatalf("customer message must be persisted before gating")
			}
			if f.generator.calls != 0 {
				t.Fatalf("denied pipeline must not generate")
			}
			if f.quota.consumed != 0 {
				t.Fatalf("denied pipeline must not consume quota")
			}
		})
	}
}

func TestHandleInboundSkipsWhenReplyInFlight(t *testing.T) {
	f := newFixture(t)
	f.limiter.held = true

	if err := f.orch.HandleInbound(context.Background(), inbound()); err != nil {
		t.Fatalf("held lock must not error: %v", err)
	}
	if len(f.convs.ingested) != 1 {
		t.Fatalf("customer message must still be persisted")
	}
	if f.generator.calls != 0 || f.quota.consumed != 0 || len(f.sender.sent) != 0 {
		t.Fatalf("in-flight conversation must not generate, meter or send")
	}
	if f.limiter.released != 0 {
		t.Fatalf("a lock this caller never held must not be released")
	}
}

func TestHandleInboundReleasesReplyLock(t *testing.T) {
	f := newFixture(t)

	if err := f.orch.HandleInbound(context.Background(), inbound()); err != nil {
		t.Fatalf("handle inbound: %v", err)
	}
	if f.limiter.acquired != 1 || f.limiter.released != 1 {
		t.Fatalf("lock acquire/release = %d/%d, want 1/1", f.limiter.acquired, f.limiter.released)
	}
}

func TestHandleInboundReleasesReplyLockOnSendFailure(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("graph api 500")

	if err := f.orch.HandleInbound(context.Background(), inbound()); err != nil {
		t.Fatalf("handle inbound: %v", err)
	}
	if f.limiter.released != 1 {
		t.Fatalf("lock must be released after a failed delivery")
	}
}

func TestHandleInboundLimiterFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.limiter.err = errors.New("redis down")

	if err := f.orch.HandleInbound(context.Background(), inbound()); err == nil {
		t.Fatalf("limiter failure must surface so the webhook can be retried")
	}
	if f.generator.calls != 0 {
		t.Fatalf("generation must not run without the lock")
	}
}

func TestHandleInboundFallbackStillDelivered(t *testing.T) {
	f := newFixture(t)
	f.generator.reply = Reply{Content: FallbackReply(enums.ToneFriendly, enums.BusinessProfileFitlifeCoaching), Fallback: true}

	if err := f.orch.HandleInbound(context.Background(), inbound()); err != nil {
		t.Fatalf("handle inbound: %v", err)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("fallback reply must still be delivered")
	}
	if f.quota.consumed != 1 {
		t.Fatalf("fallback reply still consumes quota")
	}
}

func TestHandleInboundSendFailureMarksNeedsAttention(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("graph api 500")

	if err := f.orch.HandleInbound(context.Background(), inbound()); err != nil {
		t.Fatalf("send failure is handled, not returned: %v", err)
	}
	if f.convs.lastAIMessage == nil {
		t.Fatalf("ai message must still be recorded")
	}
	if got := f.convs.statusByID[f.convs.lastAIMessage.ID]; got != enums.ResponseStatusNeedsAttention {
		t.Fatalf("reply status = %s, want needs_attention", got)
	}
}
