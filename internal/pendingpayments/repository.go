package pendingpayments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/repo"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// Repository handles pending payment persistence.
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

// Create inserts a pending payment row.
func (r *Repository) Create(ctx context.Context, row *models.PendingPayment) (*models.PendingPayment, error) {
	if err := r.DB(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Save persists mutations on a pending payment row.
func (r *Repository) Save(ctx context.Context, row *models.PendingPayment) error {
	return r.DB(ctx).Save(row).Error
}

// FindByID loads a pending payment row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PendingPayment, error) {
	var row models.PendingPayment
	if err := r.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByTransactionID loads a pending payment by its gateway transaction
// reference, or nil when none was recorded.
func (r *Repository) FindByTransactionID(ctx context.Context, transactionID string) (*models.PendingPayment, error) {
	var row models.PendingPayment
	err := r.DB(ctx).First(&row, "transaction_id = ?", transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByStatus returns rows in the given status, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, status enums.PendingPaymentStatus, limit int) ([]models.PendingPayment, error) {
	query := r.DB(ctx).
		Where("status = ?", status).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.PendingPayment
	err := query.Find(&rows).Error
	return rows, err
}

// ListAll returns every row, newest first, for the back-office view.
func (r *Repository) ListAll(ctx context.Context, limit int) ([]models.PendingPayment, error) {
	query := r.DB(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.PendingPayment
	err := query.Find(&rows).Error
	return rows, err
}

// CountByStatus returns how many rows sit in the given status.
func (r *Repository) CountByStatus(ctx context.Context, status enums.PendingPaymentStatus) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.PendingPayment{}).
		Where("status = ?", status).
		Count(&count).
		Error
	return count, err
}
