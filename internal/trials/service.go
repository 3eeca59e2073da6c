package trials

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

// Info is the derived trial/subscription snapshot for one account.
type Info struct {
	Status           enums.SubscriptionStatus `json:"status"`
	SubscriptionID   *string                  `json:"subscription_id,omitempty"`
	IsInTrial        bool                     `json:"is_in_trial"`
	TrialEnd         *time.Time               `json:"trial_end,omitempty"`
	DaysRemaining    int                      `json:"days_remaining"`
	AutoReplyAllowed bool                     `json:"auto_reply_allowed"`
}

// Notifier sends trial expiry reminder emails.
type Notifier interface {
	SendTrialEnding(ctx context.Context, email string, daysRemaining int) error
}

// Service derives trial state from mirrored subscription rows.
type Service interface {
	Derive(ctx context.Context, accountID uuid.UUID) (*Info, error)
	EndTrialEarly(ctx context.Context, accountID uuid.UUID) (*Info, error)
	SendExpiryReminders(ctx context.Context, withinDays int) (int, error)
}

type service struct {
	repo         Repository
	stripeClient StripeSubscriptionClient
	notifier     Notifier
	logg         *logger.Logger
	now          func() time.Time
}

// ServiceParams wires trial dependencies.
type ServiceParams struct {
	Repo         Repository
	StripeClient StripeSubscriptionClient
	Notifier     Notifier
	Logger       *logger.Logger
	Now          func() time.Time
}

// NewService validates dependencies and builds the trial service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trials repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trials logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         params.Repo,
		stripeClient: params.StripeClient,
		notifier:     params.Notifier,
		logg:         params.Logger,
		now:          now,
	}, nil
}

// statusPriority orders competing subscription rows for one account.
// Trialing wins over active so a trial started alongside a comped plan still
// shows countdown UI; anything below past_due never drives trial state.
func statusPriority(status enums.SubscriptionStatus) int {
	switch status {
	case enums.SubscriptionStatusTrialing:
		return 3
	case enums.SubscriptionStatusActive:
		return 2
	case enums.SubscriptionStatusPastDue:
		return 1
	default:
		return 0
	}
}

func (s *service) Derive(ctx context.Context, accountID uuid.UUID) (*Info, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}

	subs, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}

	effective := s.pickEffective(ctx, accountID, subs)
	if effective == nil {
		return &Info{
			Status:           enums.SubscriptionStatusNone,
			AutoReplyAllowed: false,
		}, nil
	}

	info := &Info{
		Status:           effective.Status,
		TrialEnd:         effective.TrialEnd,
		AutoReplyAllowed: effective.Status.AllowsAutoReply(),
	}
	if effective.StripeSubscriptionID != "" {
		subscriptionID := effective.StripeSubscriptionID
		info.SubscriptionID = &subscriptionID
	}
	// a trialing row without trial_end has nothing to count down
	if effective.Status == enums.SubscriptionStatusTrialing && effective.TrialEnd != nil {
		info.IsInTrial = true
		info.DaysRemaining = daysUntil(effective.TrialEnd, s.now())
	}
	return info, nil
}

// EndTrialEarly converts the trial to a paid subscription immediately. The
// provider is the source of truth; the local row is only nudged so the UI
// stops showing a countdown before the webhook lands.
func (s *service) EndTrialEarly(ctx context.Context, accountID uuid.UUID) (*Info, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if s.stripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe client not configured")
	}

	subs, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}

	effective := s.pickEffective(ctx, accountID, subs)
	if effective == nil || effective.Status != enums.SubscriptionStatusTrialing {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account has no active trial")
	}

	params := &stripe.SubscriptionParams{TrialEndNow: stripe.Bool(true)}
	if _, err := s.stripeClient.Update(ctx, effective.StripeSubscriptionID, params); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "end trial with provider")
	}

	now := s.now().UTC()
	if err := s.repo.SetTrialEnd(ctx, effective.ID, now); err != nil {
		// webhook sync will repair the row
		s.logg.Error(s.logg.WithAccountID(ctx, accountID.String()), "update local trial end", err)
	}

	return s.Derive(ctx, accountID)
}

// SendExpiryReminders emails accounts whose trial ends within the window and
// that have not been reminded yet. Returns how many reminders were sent.
func (s *service) SendExpiryReminders(ctx context.Context, withinDays int) (int, error) {
	if s.notifier == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "trials notifier not configured")
	}
	if withinDays <= 0 {
		withinDays = 3
	}

	now := s.now().UTC()
	cutoff := now.Add(time.Duration(withinDays) * 24 * time.Hour)

	subs, err := s.repo.ListTrialsEndingBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expiring trials")
	}

	sent := 0
	for _, sub := range subs {
		rowCtx := s.logg.WithAccountID(ctx, sub.AccountID.String())

		days := daysUntil(sub.TrialEnd, now)
		email, err := s.repo.AccountEmail(rowCtx, sub.AccountID)
		if err != nil {
			s.logg.Error(rowCtx, "lookup account email for trial reminder", err)
			continue
		}
		if err := s.notifier.SendTrialEnding(rowCtx, email, days); err != nil {
			s.logg.Error(rowCtx, "send trial reminder", err)
			continue
		}
		if err := s.repo.MarkReminderSent(rowCtx, sub.ID, now); err != nil {
			s.logg.Error(rowCtx, "mark trial reminder sent", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *service) pickEffective(ctx context.Context, accountID uuid.UUID, subs []models.Subscription) *models.Subscription {
	var best *models.Subscription
	ties := 0
	for i := range subs {
		sub := &subs[i]
		switch {
		case best == nil:
			best = sub
		case statusPriority(sub.Status) > statusPriority(best.Status):
			best = sub
			ties = 0
		case statusPriority(sub.Status) == statusPriority(best.Status) && statusPriority(sub.Status) > 0:
			ties++
			if sub.UpdatedAt.After(best.UpdatedAt) {
				best = sub
			}
		}
	}
	if ties > 0 {
		ctx = s.logg.WithAccountID(ctx, accountID.String())
		s.logg.Warn(ctx, fmt.Sprintf("account has %d competing subscriptions with equal status priority", ties+1))
	}
	return best
}

// daysUntil reports whole days left before end, rounding partial days up and
// never going negative. A trialing row without trial_end counts as expired.
func daysUntil(end *time.Time, now time.Time) int {
	if end == nil {
		return 0
	}
	remaining := end.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}
