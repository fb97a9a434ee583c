package paymentmethods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/repo"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
)

// Repository handles saved payment method persistence.
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

// FindByID loads a payment method row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.DB(ctx).First(&method, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

// ListByCustomer returns the customer's payment methods, default first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.PaymentMethod, error) {
	var rows []models.PaymentMethod
	err := r.DB(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC").
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// Create inserts a payment method row.
func (r *Repository) Create(ctx context.Context, method *models.PaymentMethod) (*models.PaymentMethod, error) {
	if err := r.DB(ctx).Create(method).Error; err != nil {
		return nil, err
	}
	return method, nil
}

// Save persists mutations on a payment method row.
func (r *Repository) Save(ctx context.Context, method *models.PaymentMethod) error {
	return r.DB(ctx).Save(method).Error
}

// Delete removes a payment method row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.PaymentMethod{}).Error
}

// ClearDefault drops the default flag from every method except keepID.
func (r *Repository) ClearDefault(ctx context.Context, customerID, keepID uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.PaymentMethod{}).
		Where("customer_id = ? AND id <> ? AND is_default = ?", customerID, keepID, true).
		Update("is_default", false).
		Error
}

// CountByCustomer returns how many payment methods the customer has.
func (r *Repository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.PaymentMethod{}).
		Where("customer_id = ?", customerID).
		Count(&count).
		Error
	return count, err
}
