package shipments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
)

// Service walks shipments through the carrier state machine and keeps the
// owning order in step: dispatch marks the order shipped, delivery marks it
// delivered.
type Service interface {
	CreateShipment(ctx context.Context, orderID uuid.UUID, method enums.ShippingMethod) (*models.Shipment, error)
	UpdateStatus(ctx context.Context, shipmentID uuid.UUID, target enums.ShipmentStatus) (*models.Shipment, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error)
}

// orderStatuses is the slice of the order service shipments depend on.
type orderStatuses interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
}

type service struct {
	repo   *Repository
	orders orderStatuses
	now    func() time.Time
}

// NewService constructs a shipment service instance.
func NewService(repo *Repository, orders orderStatuses) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipment repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	return &service{repo: repo, orders: orders, now: time.Now}, nil
}

// NewTrackingNumber mints a carrier tracking number for the method.
func NewTrackingNumber(method enums.ShippingMethod, at time.Time) string {
	return fmt.Sprintf("%s%d", method.TrackingPrefix(), at.UnixMilli())
}

// NewPendingShipment builds the shipment row created alongside an order. The
// caller persists it inside the placement transaction.
func NewPendingShipment(orderID uuid.UUID, method enums.ShippingMethod, at time.Time) *models.Shipment {
	return &models.Shipment{
		ID:                    uuid.New(),
		OrderID:               orderID,
		Provider:              method.Provider(),
		TrackingNumber:        NewTrackingNumber(method, at),
		ShippingCost:          method.Fee(),
		Status:                enums.ShipmentStatusPending,
		EstimatedDeliveryDate: at.AddDate(0, 0, method.DeliveryDays()),
	}
}

// CreateShipment hands the order to a carrier and marks it shipped.
func (s *service) CreateShipment(ctx context.Context, orderID uuid.UUID, method enums.ShippingMethod) (*models.Shipment, error) {
	if _, err := s.orders.UpdateStatus(ctx, orderID, enums.OrderStatusShipped); err != nil {
		return nil, err
	}

	shipment := NewPendingShipment(orderID, method, s.now())
	if _, err := s.repo.Create(ctx, shipment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment")
	}
	return shipment, nil
}

// UpdateStatus moves the shipment through the carrier state machine. Marking
// a shipment delivered stamps the delivery date and forces the order to
// delivered as well. Updating to the current status is a no-op.
func (s *service) UpdateStatus(ctx context.Context, shipmentID uuid.UUID, target enums.ShipmentStatus) (*models.Shipment, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipment status").
			WithDetails(map[string]any{"status": target.String()})
	}

	shipment, err := s.load(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.Status == target {
		return shipment, nil
	}
	if !shipment.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipment status transition not allowed").
			WithDetails(map[string]any{"from": shipment.Status.String(), "to": target.String()})
	}

	shipment.Status = target
	if target == enums.ShipmentStatusDelivered {
		deliveredAt := s.now()
		shipment.DeliveryDate = &deliveredAt
	}
	if err := s.repo.Save(ctx, shipment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment status")
	}

	if target == enums.ShipmentStatusDelivered {
		if _, err := s.orders.UpdateStatus(ctx, shipment.OrderID, enums.OrderStatusDelivered); err != nil {
			return nil, err
		}
	}
	return shipment, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	shipment, err := s.repo.FindLatestByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	if shipment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	return shipment, nil
}

func (s *service) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	shipment, err := s.repo.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

func (s *service) load(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}
