package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/repo"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
)

// Repository handles the durable checkout session rows. One row per customer,
// enforced by a unique index on customer_id.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// FindByCustomer returns the customer's session, or nil when none exists.
func (r *Repository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.DB(ctx).First(&session, "customer_id = ?", customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// FindByGatewayRef locates the session that initiated a gateway payment, or
// nil when the reference is unknown.
func (r *Repository) FindByGatewayRef(ctx context.Context, gatewayRef string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.DB(ctx).First(&session, "gateway_ref = ?", gatewayRef).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// Create inserts a session row.
func (r *Repository) Create(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error) {
	if err := r.DB(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// Save persists mutations on a session row.
func (r *Repository) Save(ctx context.Context, session *models.CheckoutSession) error {
	return r.DB(ctx).Save(session).Error
}

// DeleteByCustomer removes the customer's session, if any.
func (r *Repository) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error {
	return r.DB(ctx).
		Where("customer_id = ?", customerID).
		Delete(&models.CheckoutSession{}).
		Error
}

// DeleteExpired removes sessions past their expiry and returns how many rows
// went away.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.DB(ctx).
		Where("expires_at < ?", now).
		Delete(&models.CheckoutSession{})
	return result.RowsAffected, result.Error
}
