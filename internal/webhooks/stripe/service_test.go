package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/dmpilot-backend/internal/billing"
	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

type stubBillingRepo struct {
	account *models.Account
	stored  *models.Subscription
	created []*models.Subscription
	updated []*models.Subscription
}

func (s *stubBillingRepo) WithTx(tx *gorm.DB) billing.Repository { return s }

func (s *stubBillingRepo) FindSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	return s.stored, nil
}

func (s *stubBillingRepo) CreateSubscription(ctx context.Context, subscription *models.Subscription) error {
	s.created = append(s.created, subscription)
	return nil
}

func (s *stubBillingRepo) UpdateSubscription(ctx context.Context, subscription *models.Subscription) error {
	s.updated = append(s.updated, subscription)
	return nil
}

func (s *stubBillingRepo) AccountByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*models.Account, error) {
	return s.account, nil
}

type stubFetcher struct {
	sub    *stripe.Subscription
	called []string
}

func (s *stubFetcher) Get(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	s.called = append(s.called, id)
	return s.sub, nil
}

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *stubBillingRepo, fetcher *stubFetcher) *Service {
	t.Helper()
	if fetcher == nil {
		fetcher = &stubFetcher{}
	}
	svc, err := NewService(ServiceParams{
		BillingRepo:       repo,
		StripeClient:      fetcher,
		TransactionRunner: &stubTxRunner{},
		Logger:            logger.New(logger.Options{Level: zerolog.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func subscriptionEvent(t *testing.T, eventType stripe.EventType, sub map[string]any) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("marshal subscription: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_1",
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventSubscriptionCreated(t *testing.T) {
	trialEnd := time.Now().Add(7 * 24 * time.Hour).Unix()
	repo := &stubBillingRepo{account: &models.Account{ID: uuid.New()}}
	svc := newTestService(t, repo, nil)

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionCreated, map[string]any{
		"id":        "sub_123",
		"status":    "trialing",
		"trial_end": trialEnd,
		"customer":  map[string]any{"id": "cus_123"},
		"items": map[string]any{
			"data": []map[string]any{{"current_period_end": trialEnd}},
		},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one created subscription, got %d", len(repo.created))
	}
	row := repo.created[0]
	if row.Status != enums.SubscriptionStatusTrialing {
		t.Fatalf("status = %s, want trialing", row.Status)
	}
	if row.StripeSubscriptionID != "sub_123" || row.StripeCustomerID != "cus_123" {
		t.Fatalf("identifiers not mapped: %+v", row)
	}
	if row.TrialEnd == nil || row.TrialEnd.Unix() != trialEnd {
		t.Fatalf("trial end not mapped")
	}
	if row.AccountID != repo.account.ID {
		t.Fatalf("account not linked")
	}
}

func TestHandleEventSubscriptionUpdatedLastWriteWins(t *testing.T) {
	accountID := uuid.New()
	oldEnd := time.Now().UTC()
	repo := &stubBillingRepo{
		account: &models.Account{ID: accountID},
		stored: &models.Subscription{
			ID:                   uuid.New(),
			AccountID:            accountID,
			StripeSubscriptionID: "sub_123",
			StripeCustomerID:     "cus_123",
			Status:               enums.SubscriptionStatusTrialing,
			TrialEnd:             &oldEnd,
		},
	}
	svc := newTestService(t, repo, nil)

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, map[string]any{
		"id":       "sub_123",
		"status":   "active",
		"customer": map[string]any{"id": "cus_123"},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(repo.updated) != 1 {
		t.Fatalf("expected one update")
	}
	row := repo.updated[0]
	if row.Status != enums.SubscriptionStatusActive {
		t.Fatalf("status = %s, want active", row.Status)
	}
	if row.TrialEnd != nil {
		t.Fatalf("provider state must replace local state entirely")
	}
}

func TestHandleEventUnknownCustomerAcked(t *testing.T) {
	repo := &stubBillingRepo{account: nil}
	svc := newTestService(t, repo, nil)

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionCreated, map[string]any{
		"id":       "sub_999",
		"status":   "active",
		"customer": map[string]any{"id": "cus_unknown"},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown customer must be acked, got %v", err)
	}
	if len(repo.created) != 0 && len(repo.updated) != 0 {
		t.Fatalf("nothing should be written for unknown customers")
	}
}

func TestHandleEventInvoicePaymentFailedRefetches(t *testing.T) {
	accountID := uuid.New()
	repo := &stubBillingRepo{
		account: &models.Account{ID: accountID},
		stored: &models.Subscription{
			ID:                   uuid.New(),
			AccountID:            accountID,
			StripeSubscriptionID: "sub_123",
			StripeCustomerID:     "cus_123",
			Status:               enums.SubscriptionStatusActive,
		},
	}
	fetcher := &stubFetcher{sub: &stripe.Subscription{
		ID:       "sub_123",
		Status:   stripe.SubscriptionStatusPastDue,
		Customer: &stripe.Customer{ID: "cus_123"},
	}}
	svc := newTestService(t, repo, fetcher)

	raw, _ := json.Marshal(map[string]any{"subscription": "sub_123"})
	data := &stripe.EventData{Raw: raw}
	if err := json.Unmarshal(raw, &data.Object); err != nil {
		t.Fatalf("unmarshal event object: %v", err)
	}
	event := &stripe.Event{
		ID:   "evt_2",
		Type: stripe.EventTypeInvoicePaymentFailed,
		Data: data,
	}

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(fetcher.called) != 1 || fetcher.called[0] != "sub_123" {
		t.Fatalf("expected provider refetch of sub_123, got %v", fetcher.called)
	}
	if len(repo.updated) != 1 || repo.updated[0].Status != enums.SubscriptionStatusPastDue {
		t.Fatalf("subscription must flip to past_due")
	}
}

func TestHandleEventUnhandledTypeIgnored(t *testing.T) {
	repo := &stubBillingRepo{}
	svc := newTestService(t, repo, nil)

	event := &stripe.Event{
		ID:   "evt_3",
		Type: stripe.EventType("charge.refunded"),
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	}

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unhandled event must be acked: %v", err)
	}
	if len(repo.created) != 0 && len(repo.updated) != 0 {
		t.Fatalf("unhandled event must not write")
	}
}

func TestHandleEventNilDataRejected(t *testing.T) {
	svc := newTestService(t, &stubBillingRepo{}, nil)
	if err := svc.HandleEvent(context.Background(), &stripe.Event{ID: "evt_4"}); err == nil {
		t.Fatalf("expected validation error for missing data")
	}
}
