package address

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/repo"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
)

// Repository handles customer address persistence.
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

// FindByID loads an address row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.DB(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

// ListByCustomer returns the customer's addresses, default first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.DB(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC").
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// Create inserts an address row.
func (r *Repository) Create(ctx context.Context, address *models.Address) (*models.Address, error) {
	if err := r.DB(ctx).Create(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

// Save persists mutations on an address row.
func (r *Repository) Save(ctx context.Context, address *models.Address) error {
	return r.DB(ctx).Save(address).Error
}

// Delete removes an address row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Address{}).Error
}

// ClearDefault drops the default flag from every address except keepID.
func (r *Repository) ClearDefault(ctx context.Context, customerID, keepID uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Address{}).
		Where("customer_id = ? AND id <> ? AND is_default = ?", customerID, keepID, true).
		Update("is_default", false).
		Error
}

// CountByCustomer returns how many addresses the customer has.
func (r *Repository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Address{}).
		Where("customer_id = ?", customerID).
		Count(&count).
		Error
	return count, err
}

// IsReferencedByOrders reports whether any order ships to the address.
func (r *Repository) IsReferencedByOrders(ctx context.Context, addressID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Order{}).
		Where("address_id = ?", addressID).
		Count(&count).
		Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return count > 0, nil
}
