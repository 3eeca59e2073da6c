package trials

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
)

// Repository exposes persistence helpers for subscription rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Subscription, error)
	ListTrialsEndingBefore(ctx context.Context, cutoff time.Time) ([]models.Subscription, error)
	SetTrialEnd(ctx context.Context, subscriptionID uuid.UUID, trialEnd time.Time) error
	MarkReminderSent(ctx context.Context, subscriptionID uuid.UUID, now time.Time) error
	AccountEmail(ctx context.Context, accountID uuid.UUID) (string, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a trials repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("updated_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ListTrialsEndingBefore returns trialing subscriptions whose trial expires by
// the cutoff and that have not received a reminder yet.
func (r *repositoryImpl) ListTrialsEndingBefore(ctx context.Context, cutoff time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.SubscriptionStatusTrialing).
		Where("trial_end IS NOT NULL AND trial_end <= ?", cutoff).
		Where("trial_reminder_sent_at IS NULL").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repositoryImpl) SetTrialEnd(ctx context.Context, subscriptionID uuid.UUID, trialEnd time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		UpdateColumn("trial_end", trialEnd).Error
}

func (r *repositoryImpl) MarkReminderSent(ctx context.Context, subscriptionID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND trial_reminder_sent_at IS NULL", subscriptionID).
		UpdateColumn("trial_reminder_sent_at", now).Error
}

func (r *repositoryImpl) AccountEmail(ctx context.Context, accountID uuid.UUID) (string, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Select("email").First(&account, "id = ?", accountID).Error; err != nil {
		return "", err
	}
	return account.Email, nil
}
