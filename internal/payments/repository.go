package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/repo"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// Repository handles payment row persistence.
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

// Create inserts a payment row.
func (r *Repository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.DB(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// Save persists mutations on a payment row.
func (r *Repository) Save(ctx context.Context, payment *models.Payment) error {
	return r.DB(ctx).Save(payment).Error
}

// FindByID loads a payment row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.DB(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByTransactionID loads a payment by its gateway transaction reference.
func (r *Repository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.DB(ctx).First(&payment, "transaction_id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindPendingByOrder returns the order's pending payment row, or nil.
func (r *Repository) FindPendingByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.DB(ctx).
		Where("order_id = ? AND status = ?", orderID, enums.PaymentStatusPending).
		Order("created_at ASC").
		First(&payment).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// ListByOrder returns every payment row for the order, oldest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}
