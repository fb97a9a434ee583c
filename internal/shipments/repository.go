package shipments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/repo"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
)

// Repository handles shipment persistence.
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

// Create inserts a shipment row.
func (r *Repository) Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	if err := r.DB(ctx).Create(shipment).Error; err != nil {
		return nil, err
	}
	return shipment, nil
}

// Save persists mutations on a shipment row.
func (r *Repository) Save(ctx context.Context, shipment *models.Shipment) error {
	return r.DB(ctx).Save(shipment).Error
}

// FindByID loads a shipment row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.DB(ctx).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// FindByTrackingNumber loads a shipment by its carrier tracking number.
func (r *Repository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.DB(ctx).First(&shipment, "tracking_number = ?", trackingNumber).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// FindLatestByOrder returns the newest shipment for the order, or nil.
func (r *Repository) FindLatestByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&shipment).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// ListByOrder returns every shipment for the order, oldest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error) {
	var rows []models.Shipment
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}
