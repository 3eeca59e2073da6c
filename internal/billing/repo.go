package billing

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
)

// Repository exposes persistence helpers for billing state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, subscription *models.Subscription) error
	UpdateSubscription(ctx context.Context, subscription *models.Subscription) error
	AccountByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*models.Account, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := r.db.WithContext(ctx).First(&subscription, "stripe_subscription_id = ?", stripeSubscriptionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repositoryImpl) CreateSubscription(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Create(subscription).Error
}

func (r *repositoryImpl) UpdateSubscription(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Save(subscription).Error
}

func (r *repositoryImpl) AccountByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, "stripe_customer_id = ?", stripeCustomerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
