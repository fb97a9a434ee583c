package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/pagination"
)

// Service drives the order lifecycle after placement: the status machine,
// cancellation, discounts and the customer-facing views. Placement itself
// lives in the checkout package.
type Service interface {
	Get(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, customerID, orderID uuid.UUID) error
	Delete(ctx context.Context, customerID, orderID uuid.UUID) error
	ApplyDiscount(ctx context.Context, customerID, orderID uuid.UUID, code string) (*models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	dbClient txRunner
}

// NewService constructs an order service instance.
func NewService(repo *Repository, dbClient txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) Get(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	return s.owned(ctx, customerID, orderID)
}

func (s *service) List(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	rows, next, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, next, nil
}

// UpdateStatus moves the order through the status machine and records a
// timeline event. Updating to the current status is a no-op. This is the
// back-office path; it does not check ownership.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": target.String()})
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == target {
		return order, nil
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
			WithDetails(map[string]any{"from": order.Status.String(), "to": target.String()})
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order.Status = target
		if err := txRepo.Save(ctx, order); err != nil {
			return err
		}
		return txRepo.AppendTimelineEvent(ctx, NewTimelineEvent(order.ID, target))
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return order, nil
}

// Cancel moves a non-terminal order to cancelled. Inventory is not restocked
// on cancellation.
func (s *service) Cancel(ctx context.Context, customerID, orderID uuid.UUID) error {
	order, err := s.owned(ctx, customerID, orderID)
	if err != nil {
		return err
	}
	if order.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": order.Status.String()})
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order.Status = enums.OrderStatusCancelled
		if err := txRepo.Save(ctx, order); err != nil {
			return err
		}
		return txRepo.AppendTimelineEvent(ctx, NewTimelineEvent(order.ID, enums.OrderStatusCancelled))
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	return nil
}

// Delete removes a cancelled order and its child rows.
func (s *service) Delete(ctx context.Context, customerID, orderID uuid.UUID) error {
	order, err := s.owned(ctx, customerID, orderID)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only cancelled orders can be deleted").
			WithDetails(map[string]any{"status": order.Status.String()})
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.DeleteChildren(ctx, order.ID); err != nil {
			return err
		}
		return txRepo.Delete(ctx, order.ID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

// ApplyDiscount resolves the code against the order and recomputes the total.
func (s *service) ApplyDiscount(ctx context.Context, customerID, orderID uuid.UUID, code string) (*models.Order, error) {
	order, err := s.owned(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "discounts cannot be applied to a closed order").
			WithDetails(map[string]any{"status": order.Status.String()})
	}

	order.DiscountAmount = DiscountAmount(code, order.Subtotal, order.ShippingFee)
	order.Total = order.Subtotal.Add(order.ShippingFee).Sub(order.DiscountAmount)
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply discount")
	}
	return order, nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) owned(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
	}
	return order, nil
}
