package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
)

// Message is immutable once persisted except for the ResponseStatus
// transition pending -> sent|edited|needs_attention. SentAt is always
// assigned server-side; ordering within a conversation relies on it.
type Message struct {
	ID                uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID    uuid.UUID             `gorm:"column:conversation_id;type:uuid;not null;index:idx_messages_conversation_sent_at"`
	ExternalMessageID *string               `gorm:"column:external_message_id;uniqueIndex"`
	SenderType        enums.SenderType      `gorm:"column:sender_type;type:sender_type;not null"`
	Content           string                `gorm:"column:content;not null"`
	AIGenerated       bool                  `gorm:"column:ai_generated;not null;default:false"`
	ToneUsed          *enums.Tone           `gorm:"column:tone_used;type:tone"`
	ResponseStatus    *enums.ResponseStatus `gorm:"column:response_status;type:response_status"`
	SentAt            time.Time             `gorm:"column:sent_at;not null;index:idx_messages_conversation_sent_at"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
}
