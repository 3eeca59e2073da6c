package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

// warningThresholds are the usage percentages that trigger an email, in
// ascending order. Only the highest newly-crossed one fires per consume.
var warningThresholds = []int{75, 85, 90, 95}

// Usage is the point-in-time quota snapshot surfaced to callers.
type Usage struct {
	AccountID    uuid.UUID `json:"account_id"`
	PeriodStart  time.Time `json:"period_start"`
	CurrentUsage int       `json:"current_usage"`
	QuotaLimit   int       `json:"quota_limit"`
	Remaining    int       `json:"remaining"`
	Percentage   int       `json:"percentage"`
	Exceeded     bool      `json:"exceeded"`
}

// Notifier sends quota warning emails.
type Notifier interface {
	SendQuotaWarning(ctx context.Context, email string, percentage, current, limit int) error
}

// Service tracks per-account AI reply consumption.
type Service interface {
	GetUsage(ctx context.Context, accountID uuid.UUID) (*Usage, error)
	Consume(ctx context.Context, accountID uuid.UUID) (*Usage, error)
	EnsureCurrentPeriod(ctx context.Context, accountID uuid.UUID) error
	AccountIDs(ctx context.Context) ([]uuid.UUID, error)
}

type service struct {
	repo                 Repository
	notifier             Notifier
	logg                 *logger.Logger
	defaultLimit         int
	notificationsEnabled bool
	now                  func() time.Time
}

// ServiceParams wires quota dependencies.
type ServiceParams struct {
	Repo                 Repository
	Notifier             Notifier
	Logger               *logger.Logger
	DefaultLimit         int
	NotificationsEnabled bool
	Now                  func() time.Time
}

// NewService validates dependencies and builds the quota service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quota repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quota logger required")
	}
	if params.DefaultLimit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quota default limit must be positive")
	}
	if params.NotificationsEnabled && params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quota notifier required when notifications enabled")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:                 params.Repo,
		notifier:             params.Notifier,
		logg:                 params.Logger,
		defaultLimit:         params.DefaultLimit,
		notificationsEnabled: params.NotificationsEnabled,
		now:                  now,
	}, nil
}

// PeriodStart returns the UTC month boundary the given instant falls in.
func PeriodStart(at time.Time) time.Time {
	utc := at.UTC()
	return time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (s *service) GetUsage(ctx context.Context, accountID uuid.UUID) (*Usage, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}

	counter, err := s.repo.GetOrCreate(ctx, accountID, PeriodStart(s.now()), s.defaultLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage counter")
	}
	return snapshot(counter), nil
}

// Consume records one AI reply against the current period and fires the
// highest newly-crossed warning threshold, if any. Notification failures are
// logged and never fail the consume.
func (s *service) Consume(ctx context.Context, accountID uuid.UUID) (*Usage, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}

	counter, err := s.repo.Increment(ctx, accountID, PeriodStart(s.now()), s.defaultLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment usage counter")
	}

	usage := snapshot(counter)
	s.checkAndNotify(ctx, counter, usage)
	return usage, nil
}

func (s *service) EnsureCurrentPeriod(ctx context.Context, accountID uuid.UUID) error {
	if accountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if _, err := s.repo.GetOrCreate(ctx, accountID, PeriodStart(s.now()), s.defaultLimit); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure usage counter")
	}
	return nil
}

func (s *service) AccountIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.repo.AccountIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list account ids")
	}
	return ids, nil
}

func (s *service) checkAndNotify(ctx context.Context, counter *models.UsageCounter, usage *Usage) {
	if !s.notificationsEnabled {
		return
	}

	threshold := 0
	for _, candidate := range warningThresholds {
		if usage.Percentage >= candidate && !counter.WarningRecorded(candidate) {
			threshold = candidate
		}
	}
	if threshold == 0 {
		return
	}

	ctx = s.logg.WithAccountID(ctx, counter.AccountID.String())

	recorded, err := s.repo.RecordWarning(ctx, counter.ID, threshold)
	if err != nil {
		s.logg.Error(ctx, "record quota warning", err)
		return
	}
	if !recorded {
		// another reply crossed the threshold first
		return
	}

	email, err := s.repo.AccountEmail(ctx, counter.AccountID)
	if err != nil {
		s.logg.Error(ctx, "lookup account email for quota warning", err)
		return
	}

	if err := s.notifier.SendQuotaWarning(ctx, email, threshold, usage.CurrentUsage, usage.QuotaLimit); err != nil {
		s.logg.Error(ctx, fmt.Sprintf("send quota warning at %d%%", threshold), err)
		return
	}
	s.logg.Info(ctx, fmt.Sprintf("quota warning sent at %d%%", threshold))
}

func snapshot(counter *models.UsageCounter) *Usage {
	percentage := 100
	if counter.QuotaLimit > 0 {
		// rounded, not truncated, so 749/1000 reads 75 and fires the warning
		percentage = (counter.CurrentUsage*100 + counter.QuotaLimit/2) / counter.QuotaLimit
	}
	remaining := counter.QuotaLimit - counter.CurrentUsage
	if remaining < 0 {
		remaining = 0
	}
	return &Usage{
		AccountID:    counter.AccountID,
		PeriodStart:  counter.PeriodStart,
		CurrentUsage: counter.CurrentUsage,
		QuotaLimit:   counter.QuotaLimit,
		Remaining:    remaining,
		Percentage:   percentage,
		Exceeded:     counter.CurrentUsage >= counter.QuotaLimit,
	}
}
