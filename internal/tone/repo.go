package tone

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
)

// Repository exposes persistence helpers for tone configurations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, accountID uuid.UUID) (*models.ToneConfiguration, error)
	Upsert(ctx context.Context, config *models.ToneConfiguration) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a tone repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Get returns nil without error when the account has no configuration yet.
func (r *repositoryImpl) Get(ctx context.Context, accountID uuid.UUID) (*models.ToneConfiguration, error) {
	var config models.ToneConfiguration
	err := r.db.WithContext(ctx).First(&config, "account_id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *repositoryImpl) Upsert(ctx context.Context, config *models.ToneConfiguration) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tone", "business_profile", "custom_instructions", "updated_at"}),
		}).
		Create(config).Error
}
