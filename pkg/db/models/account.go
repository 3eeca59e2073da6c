package models

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a tenant business connected to the platform.
type Account struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email             string    `gorm:"column:email;not null;unique"`
	StripeCustomerID  *string   `gorm:"column:stripe_customer_id;uniqueIndex"`
	InstagramUserID   *string   `gorm:"column:instagram_user_id;uniqueIndex"`
	InstagramUsername *string   `gorm:"column:instagram_username"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
