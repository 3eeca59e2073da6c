package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is one DM thread with a customer. AutoReplyEnabled is a
// per-thread override that gates, but never replaces, account-level policy.
type Conversation struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID           uuid.UUID  `gorm:"column:account_id;type:uuid;not null;index:idx_conversations_thread,unique"`
	ExternalThreadID    string     `gorm:"column:external_thread_id;not null;index:idx_conversations_thread,unique"`
	ParticipantID       string     `gorm:"column:participant_id;not null"`
	ParticipantName     *string    `gorm:"column:participant_name"`
	ParticipantUsername *string    `gorm:"column:participant_username"`
	AutoReplyEnabled    bool       `gorm:"column:auto_reply_enabled;not null;default:true"`
	LastMessageAt       *time.Time `gorm:"column:last_message_at"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
