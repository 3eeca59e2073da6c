package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
)

// ToneConfiguration holds the persona an account's replies are generated
// with. Saves replace the whole row; callers merge before persisting.
type ToneConfiguration struct {
	ID                 uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID          uuid.UUID             `gorm:"column:account_id;type:uuid;not null;unique"`
	Tone               enums.Tone            `gorm:"column:tone;type:tone;not null"`
	BusinessProfile    enums.BusinessProfile `gorm:"column:business_profile;type:business_profile;not null"`
	CustomInstructions *string               `gorm:"column:custom_instructions"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
