package conversations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
)

// Repository exposes persistence helpers for conversations and messages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	AccountByInstagramUserID(ctx context.Context, instagramUserID string) (*models.Account, error)
	FindOrCreate(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error)
	GetByID(ctx context.Context, accountID, conversationID uuid.UUID) (*models.Conversation, error)
	SetAutoReply(ctx context.Context, accountID, conversationID uuid.UUID, enabled bool) (bool, error)
	TouchLastMessage(ctx context.Context, conversationID uuid.UUID, at time.Time) error
	CreateMessage(ctx context.Context, message *models.Message) error
	MessageByExternalID(ctx context.Context, externalID string) (*models.Message, error)
	RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error)
	UpdateMessageStatus(ctx context.Context, messageID uuid.UUID, status enums.ResponseStatus) (bool, error)
	UpdateMessageExternalID(ctx context.Context, messageID uuid.UUID, externalID string) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a conversations repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) AccountByInstagramUserID(ctx context.Context, instagramUserID string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, "instagram_user_id = ?", instagramUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindOrCreate races safely on the (account_id, external_thread_id) unique
// index: concurrent webhook deliveries for a brand-new thread converge on one
// row.
func (r *repositoryImpl) FindOrCreate(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "external_thread_id"}},
			DoNothing: true,
		}).
		Create(conversation).Error
	if err != nil {
		return nil, err
	}

	var existing models.Conversation
	err = r.db.WithContext(ctx).
		First(&existing, "account_id = ? AND external_thread_id = ?", conversation.AccountID, conversation.ExternalThreadID).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *repositoryImpl) GetByID(ctx context.Context, accountID, conversationID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		First(&conversation, "id = ? AND account_id = ?", conversationID, accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *repositoryImpl) SetAutoReply(ctx context.Context, accountID, conversationID uuid.UUID, enabled bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ? AND account_id = ?", conversationID, accountID).
		UpdateColumn("auto_reply_enabled", enabled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) TouchLastMessage(ctx context.Context, conversationID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		UpdateColumn("last_message_at", at).Error
}

func (r *repositoryImpl) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repositoryImpl) MessageByExternalID(ctx context.Context, externalID string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).First(&message, "external_message_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// RecentMessages returns the newest messages first; callers reverse for
// chronological prompts.
func (r *repositoryImpl) RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *repositoryImpl) UpdateMessageStatus(ctx context.Context, messageID uuid.UUID, status enums.ResponseStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND response_status IS NOT NULL", messageID).
		UpdateColumn("response_status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) UpdateMessageExternalID(ctx context.Context, messageID uuid.UUID, externalID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ?", messageID).
		UpdateColumn("external_message_id", externalID).Error
}
