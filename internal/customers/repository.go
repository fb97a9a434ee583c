package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/repo"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
)

// Repository handles customer account persistence.
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

// FindByID loads a customer row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByEmail loads a customer by normalized email, or nil when unknown.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.DB(ctx).
		First(&customer, "email = ?", strings.ToLower(strings.TrimSpace(email))).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// Create inserts a customer row.
func (r *Repository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.DB(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// Save persists mutations on a customer row.
func (r *Repository) Save(ctx context.Context, customer *models.Customer) error {
	return r.DB(ctx).Save(customer).Error
}
