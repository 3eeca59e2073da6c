package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
)

// Repository exposes persistence helpers for usage counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrCreate(ctx context.Context, accountID uuid.UUID, periodStart time.Time, defaultLimit int) (*models.UsageCounter, error)
	Increment(ctx context.Context, accountID uuid.UUID, periodStart time.Time, defaultLimit int) (*models.UsageCounter, error)
	RecordWarning(ctx context.Context, counterID uuid.UUID, threshold int) (bool, error)
	AccountEmail(ctx context.Context, accountID uuid.UUID) (string, error)
	AccountIDs(ctx context.Context) ([]uuid.UUID, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a quota repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) GetOrCreate(ctx context.Context, accountID uuid.UUID, periodStart time.Time, defaultLimit int) (*models.UsageCounter, error) {
	var counter models.UsageCounter
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO usage_counters (account_id, period_start, current_usage, quota_limit, warnings_sent)
		VALUES (?, ?, 0, ?, '{}')
		ON CONFLICT (account_id, period_start)
		DO UPDATE SET updated_at = usage_counters.updated_at
		RETURNING *`,
		accountID, periodStart, defaultLimit,
	).Scan(&counter).Error
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

// Increment bumps the counter for the period in a single statement so
// concurrent replies never lose an increment. The row is created on first use.
func (r *repositoryImpl) Increment(ctx context.Context, accountID uuid.UUID, periodStart time.Time, defaultLimit int) (*models.UsageCounter, error) {
	var counter models.UsageCounter
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO usage_counters (account_id, period_start, current_usage, quota_limit, warnings_sent)
		VALUES (?, ?, 1, ?, '{}')
		ON CONFLICT (account_id, period_start)
		DO UPDATE SET current_usage = usage_counters.current_usage + 1, updated_at = now()
		RETURNING *`,
		accountID, periodStart, defaultLimit,
	).Scan(&counter).Error
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

// RecordWarning appends the threshold to warnings_sent unless it is already
// present. Returns whether this call recorded it.
func (r *repositoryImpl) RecordWarning(ctx context.Context, counterID uuid.UUID, threshold int) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE usage_counters
		SET warnings_sent = array_append(warnings_sent, ?), updated_at = now()
		WHERE id = ? AND NOT (? = ANY(warnings_sent))`,
		threshold, counterID, threshold,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) AccountEmail(ctx context.Context, accountID uuid.UUID) (string, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Select("email").First(&account, "id = ?", accountID).Error; err != nil {
		return "", err
	}
	return account.Email, nil
}

func (r *repositoryImpl) AccountIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
