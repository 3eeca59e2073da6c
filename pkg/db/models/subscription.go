package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
)

// Subscription is a read-mostly mirror of Stripe subscription state per
// account. Status is only written from webhook payloads or explicit provider
// refreshes, never computed locally.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID            uuid.UUID                `gorm:"column:account_id;type:uuid;not null;index"`
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;not null;unique"`
	StripeCustomerID     string                   `gorm:"column:stripe_customer_id;not null;index"`
	Status               enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'none'"`
	TrialEnd             *time.Time               `gorm:"column:trial_end"`
	CurrentPeriodEnd     *time.Time               `gorm:"column:current_period_end"`
	CanceledAt           *time.Time               `gorm:"column:canceled_at"`
	TrialReminderSentAt  *time.Time               `gorm:"column:trial_reminder_sent_at"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
