package pendingpayments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
)

// Service owns the pending payment ledger: gateway money captured without an
// order. Rows are recorded from the gateway return path and settled by the
// reconciliation worker or an operator.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.PendingPayment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PendingPayment, error)
	List(ctx context.Context, limit int) ([]models.PendingPayment, error)
	ListPendingOrderCreation(ctx context.Context, limit int) ([]models.PendingPayment, error)
	RecordAttempt(ctx context.Context, id uuid.UUID, attemptErr error) (*models.PendingPayment, error)
	MarkCompleted(ctx context.Context, id, orderID uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	Backlog(ctx context.Context) (int64, error)
}

// RecordInput captures everything the gateway return handler knows at the
// moment order creation fails. The order fields are pointers: a partial
// context still gets recorded, it just cannot be reconciled automatically.
type RecordInput struct {
	TransactionID    string
	GatewayReference string
	Amount           decimal.Decimal
	CustomerID       *uuid.UUID
	AddressID        *uuid.UUID
	ShippingMethod   *enums.ShippingMethod
	OrderNote        string
	PaymentTime      time.Time
}

// HasOrderContext reports whether a row carries everything the worker needs
// to retry order creation.
func HasOrderContext(row *models.PendingPayment) bool {
	return row != nil && row.CustomerID != nil && row.AddressID != nil &&
		row.ShippingMethod != nil && row.ShippingMethod.IsValid()
}

type service struct {
	repo *Repository
}

// NewService constructs a pending payment service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pending payment repository required")
	}
	return &service{repo: repo}, nil
}

// Record persists a captured gateway payment. Recording the same transaction
// twice returns the existing row so a replayed gateway return cannot double
// the ledger.
func (s *service) Record(ctx context.Context, input RecordInput) (*models.PendingPayment, error) {
	if input.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	existing, err := s.repo.FindByTransactionID(ctx, input.TransactionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up pending payment")
	}
	if existing != nil {
		return existing, nil
	}

	paymentTime := input.PaymentTime
	if paymentTime.IsZero() {
		paymentTime = time.Now()
	}
	row := &models.PendingPayment{
		ID:               uuid.New(),
		TransactionID:    input.TransactionID,
		GatewayReference: input.GatewayReference,
		Amount:           input.Amount,
		CustomerID:       input.CustomerID,
		AddressID:        input.AddressID,
		ShippingMethod:   input.ShippingMethod,
		OrderNote:        input.OrderNote,
		PaymentTime:      paymentTime,
		Status:           enums.PendingPaymentStatusPendingOrderCreation,
	}
	if _, err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record pending payment")
	}
	return row, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PendingPayment, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, limit int) ([]models.PendingPayment, error) {
	rows, err := s.repo.ListAll(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending payments")
	}
	return rows, nil
}

func (s *service) ListPendingOrderCreation(ctx context.Context, limit int) ([]models.PendingPayment, error) {
	rows, err := s.repo.ListByStatus(ctx, enums.PendingPaymentStatusPendingOrderCreation, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending payments")
	}
	return rows, nil
}

// RecordAttempt bumps the attempt counter after a failed reconciliation run
// and keeps the last error for the back office.
func (s *service) RecordAttempt(ctx context.Context, id uuid.UUID, attemptErr error) (*models.PendingPayment, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	row.Attempts++
	if attemptErr != nil {
		row.LastError = attemptErr.Error()
	}
	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record reconciliation attempt")
	}
	return row, nil
}

func (s *service) MarkCompleted(ctx context.Context, id, orderID uuid.UUID) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if row.Status != enums.PendingPaymentStatusPendingOrderCreation {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "pending payment already settled").
			WithDetails(map[string]any{"status": row.Status.String()})
	}

	row.Status = enums.PendingPaymentStatusCompleted
	row.OrderID = &orderID
	row.LastError = ""
	if err := s.repo.Save(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete pending payment")
	}
	return nil
}

func (s *service) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if row.Status != enums.PendingPaymentStatusPendingOrderCreation {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "pending payment already settled").
			WithDetails(map[string]any{"status": row.Status.String()})
	}

	row.Status = enums.PendingPaymentStatusFailed
	row.LastError = reason
	if err := s.repo.Save(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail pending payment")
	}
	return nil
}

// Backlog counts rows still awaiting order creation.
func (s *service) Backlog(ctx context.Context) (int64, error) {
	count, err := s.repo.CountByStatus(ctx, enums.PendingPaymentStatusPendingOrderCreation)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending payments")
	}
	return count, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.PendingPayment, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pending payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending payment")
	}
	return row, nil
}
