package payments

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

// Service manages payment rows attached to orders. Placement creates a
// pending row; completion mutates that row in place instead of inserting a
// second one, and refunds append a negative-amount row so the ledger for an
// order always sums to the money actually kept.
type Service interface {
	ProcessPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*models.Payment, error)
	ConfirmGatewayPayment(ctx context.Context, orderID uuid.UUID, gatewayTransactionID, note string) (*models.Payment, error)
	ConfirmPayment(ctx context.Context, transactionID string) (*models.Payment, error)
	RefundPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*models.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs a payment service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// NewTransactionID derives the placement-time transaction reference for an
// order. Gateway confirmations later replace it with the gateway's own id.
func NewTransactionID(orderID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("TXN%s%d", orderID, at.UnixMilli())
}

// ProcessPayment completes the order's pending payment row. The amount must
// match what was recorded at placement.
func (s *service) ProcessPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*models.Payment, error) {
	payment, err := s.pendingForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !payment.Amount.Equal(amount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount does not match the order").
			WithDetails(map[string]any{
				"expected": payment.Amount.String(),
				"received": amount.String(),
			})
	}

	payment.Status = enums.PaymentStatusCompleted
	if err := s.repo.Save(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
	}
	return payment, nil
}

// ConfirmGatewayPayment completes the order's pending payment row with the
// gateway's transaction reference and note, replacing the placement-time id.
func (s *service) ConfirmGatewayPayment(ctx context.Context, orderID uuid.UUID, gatewayTransactionID, note string) (*models.Payment, error) {
	if gatewayTransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway transaction id is required")
	}

	payment, err := s.pendingForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	payment.TransactionID = gatewayTransactionID
	payment.Status = enums.PaymentStatusCompleted
	payment.Note = note
	if err := s.repo.Save(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm gateway payment")
	}
	return payment, nil
}

// ConfirmPayment completes a payment located by its transaction reference.
// Confirming an already completed payment is a no-op.
func (s *service) ConfirmPayment(ctx context.Context, transactionID string) (*models.Payment, error) {
	payment, err := s.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if payment.Status == enums.PaymentStatusCompleted {
		return payment, nil
	}
	if payment.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not pending").
			WithDetails(map[string]any{"status": payment.Status.String()})
	}

	payment.Status = enums.PaymentStatusCompleted
	if err := s.repo.Save(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm payment")
	}
	return payment, nil
}

// RefundPayment records a refund as a new negative-amount row. The order must
// have a completed payment covering at least the refunded amount.
func (s *service) RefundPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*models.Payment, error) {
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}

	var completed *models.Payment
	paid := decimal.Zero
	for i := range rows {
		switch rows[i].Status {
		case enums.PaymentStatusCompleted:
			if completed == nil {
				completed = &rows[i]
			}
			paid = paid.Add(rows[i].Amount)
		case enums.PaymentStatusRefunded:
			paid = paid.Add(rows[i].Amount)
		}
	}
	if completed == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no completed payment to refund")
	}
	if amount.GreaterThan(paid) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds the amount paid").
			WithDetails(map[string]any{"paid": paid.String(), "requested": amount.String()})
	}

	refund := &models.Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		Method:        completed.Method,
		Amount:        amount.Neg(),
		Status:        enums.PaymentStatusRefunded,
		TransactionID: fmt.Sprintf("RF%s%d", orderID, s.now().UnixNano()),
		Note:          "Hoàn tiền đơn hàng",
	}
	if _, err := s.repo.Create(ctx, refund); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund")
	}
	return refund, nil
}

func (s *service) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	payment, err := s.repo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}

func (s *service) pendingForOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindPendingByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending payment")
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no pending payment")
	}
	return payment, nil
}
