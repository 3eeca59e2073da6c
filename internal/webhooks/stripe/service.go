package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/dmpilot-backend/internal/billing"
	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires webhook handling dependencies.
type ServiceParams struct {
	BillingRepo       billing.Repository
	StripeClient      StripeSubscriptionFetcher
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service applies Stripe events to the local subscription mirror.
type Service struct {
	billingRepo billing.Repository
	stripe      StripeSubscriptionFetcher
	txRunner    txRunner
	logg        *logger.Logger
}

// NewService validates dependencies and builds the webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		billingRepo: params.BillingRepo,
		stripe:      params.StripeClient,
		txRunner:    params.TransactionRunner,
		logg:        params.Logger,
	}, nil
}

// HandleEvent routes one verified Stripe event. Event types outside the
// handled set are acknowledged and ignored so Stripe stops redelivering them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted,
		stripe.EventTypeCustomerSubscriptionTrialWillEnd:
		var stripeSub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
		}
		return s.syncSubscription(ctx, &stripeSub)
	case stripe.EventTypeInvoicePaid, stripe.EventTypeInvoicePaymentFailed:
		subscriptionID := event.GetObjectValue("subscription")
		if subscriptionID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
		}
		stripeSub, err := s.stripe.Get(ctx, subscriptionID, &stripe.SubscriptionParams{})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
		}
		return s.syncSubscription(ctx, stripeSub)
	default:
		s.logg.Info(s.logg.WithField(ctx, "event_type", string(event.Type)), "ignoring unhandled stripe event")
		return nil
	}
}

// syncSubscription upserts the local mirror row from provider state.
// Last write wins: whatever Stripe says now replaces what we had.
func (s *Service) syncSubscription(ctx context.Context, stripeSub *stripe.Subscription) error {
	if stripeSub == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription is required")
	}
	customerID := stripeCustomerID(stripeSub)
	if customerID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription has no customer")
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)

		account, err := repo.AccountByStripeCustomerID(ctx, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup account")
		}
		if account == nil {
			// checkout for a customer we never onboarded; ack so Stripe stops retrying
			s.logg.Warn(s.logg.WithField(ctx, "stripe_customer_id", customerID), "stripe event for unknown customer")
			return nil
		}

		stored, err := repo.FindSubscriptionByStripeID(ctx, stripeSub.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}

		if stored == nil {
			row := &models.Subscription{
				AccountID:            account.ID,
				StripeSubscriptionID: stripeSub.ID,
				StripeCustomerID:     customerID,
			}
			applyStripeState(row, stripeSub)
			if err := repo.CreateSubscription(ctx, row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
			}
			return nil
		}

		applyStripeState(stored, stripeSub)
		if err := repo.UpdateSubscription(ctx, stored); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
		}
		return nil
	})
}

func applyStripeState(target *models.Subscription, stripeSub *stripe.Subscription) {
	status, err := enums.ParseSubscriptionStatus(string(stripeSub.Status))
	if err != nil {
		status = enums.SubscriptionStatusNone
	}
	target.Status = status
	target.TrialEnd = unixPtr(stripeSub.TrialEnd)
	target.CanceledAt = unixPtr(stripeSub.CanceledAt)
	target.CurrentPeriodEnd = unixPtr(periodEndFromSubscription(stripeSub))
}

func stripeCustomerID(sub *stripe.Subscription) string {
	if sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}

func periodEndFromSubscription(sub *stripe.Subscription) int64 {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return 0
	}
	return sub.Items.Data[0].CurrentPeriodEnd
}

func unixPtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
