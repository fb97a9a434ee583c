package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/vietcart/vietcart-backend/internal/checkout"
	"github.com/vietcart/vietcart-backend/internal/pendingpayments"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/logger"
	"github.com/vietcart/vietcart-backend/pkg/metrics"
)

const (
	pendingPaymentJobName = "pending_payment_reconcile"
	pendingPaymentBatch   = 100

	gatewayConfirmedNote = "Thanh toán VNPay thành công"
)

// pendingPaymentLedger is the slice of the pending payment service the job
// uses.
type pendingPaymentLedger interface {
	ListPendingOrderCreation(ctx context.Context, limit int) ([]models.PendingPayment, error)
	RecordAttempt(ctx context.Context, id uuid.UUID, attemptErr error) (*models.PendingPayment, error)
	MarkCompleted(ctx context.Context, id, orderID uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	Backlog(ctx context.Context) (int64, error)
}

type reconcileOrderPlacer interface {
	PlaceOrder(ctx context.Context, input checkout.PlaceOrderInput) (*models.Order, error)
}

type reconcilePaymentConfirmer interface {
	ConfirmGatewayPayment(ctx context.Context, orderID uuid.UUID, gatewayTransactionID, note string) (*models.Payment, error)
}

// PendingPaymentJob retries order creation for gateway payments that were
// captured without an order. Each run works through the backlog once; rows
// whose surviving context is incomplete, or that exhaust the attempt budget,
// are marked failed for the back office.
type PendingPaymentJob struct {
	ledger      pendingPaymentLedger
	placer      reconcileOrderPlacer
	payments    reconcilePaymentConfirmer
	logg        *logger.Logger
	metrics     *metrics.CronJobMetrics
	maxAttempts int
}

// NewPendingPaymentJob builds the reconciliation job.
func NewPendingPaymentJob(
	ledger pendingPaymentLedger,
	placer reconcileOrderPlacer,
	payments reconcilePaymentConfirmer,
	logg *logger.Logger,
	cronMetrics *metrics.CronJobMetrics,
	maxAttempts int,
) (*PendingPaymentJob, error) {
	if ledger == nil {
		return nil, fmt.Errorf("pending payment service required")
	}
	if placer == nil {
		return nil, fmt.Errorf("order placer required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive")
	}
	return &PendingPaymentJob{
		ledger:      ledger,
		placer:      placer,
		payments:    payments,
		logg:        logg,
		metrics:     cronMetrics,
		maxAttempts: maxAttempts,
	}, nil
}

// Name implements Job.
func (j *PendingPaymentJob) Name() string { return pendingPaymentJobName }

// Run implements Job.
func (j *PendingPaymentJob) Run(ctx context.Context) error {
	rows, err := j.ledger.ListPendingOrderCreation(ctx, pendingPaymentBatch)
	if err != nil {
		return fmt.Errorf("list pending payments: %w", err)
	}

	var errs error
	for i := range rows {
		if err := j.reconcile(ctx, &rows[i]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("pending payment %s: %w", rows[i].ID, err))
		}
	}

	if backlog, err := j.ledger.Backlog(ctx); err == nil {
		if j.metrics != nil {
			j.metrics.SetBacklog(pendingPaymentJobName, int(backlog))
		}
		j.logg.Info(j.logg.WithField(ctx, "backlog", backlog), "pending payment backlog")
	}
	return errs
}

func (j *PendingPaymentJob) reconcile(ctx context.Context, row *models.PendingPayment) error {
	rowCtx := j.logg.WithField(ctx, "pending_payment_id", row.ID.String())

	if !pendingpayments.HasOrderContext(row) {
		// The context a retry needs is gone and will never come back.
		j.logg.Warn(rowCtx, "pending payment has incomplete order context")
		return j.ledger.MarkFailed(ctx, row.ID, "incomplete order context")
	}

	order, err := j.placer.PlaceOrder(ctx, checkout.PlaceOrderInput{
		CustomerID:     *row.CustomerID,
		AddressID:      *row.AddressID,
		PaymentMethod:  "VNPay",
		ShippingMethod: *row.ShippingMethod,
		Note:           row.OrderNote,
		ExpectedTotal:  &row.Amount,
	})
	if err != nil {
		if checkout.IsAmountMismatch(err) {
			// The cart stayed active after the failed placement and the
			// customer has changed it since; an order now would not match the
			// money captured. Hand the row to the back office.
			j.logg.Warn(rowCtx, "cart no longer matches the captured amount")
			return j.ledger.MarkFailed(ctx, row.ID, "cart total does not match captured amount")
		}
		updated, recordErr := j.ledger.RecordAttempt(ctx, row.ID, err)
		if recordErr != nil {
			return recordErr
		}
		if updated.Attempts >= j.maxAttempts {
			j.logg.Warn(rowCtx, "pending payment exhausted reconciliation attempts")
			return j.ledger.MarkFailed(ctx, row.ID, fmt.Sprintf("max attempts exceeded: %s", err))
		}
		j.logg.Error(rowCtx, "pending payment reconciliation attempt failed", err)
		return nil
	}

	if _, err := j.payments.ConfirmGatewayPayment(ctx, order.ID, row.GatewayReference, gatewayConfirmedNote); err != nil {
		j.logg.Error(rowCtx, "failed to confirm reconciled payment", err)
	}
	j.logg.Info(j.logg.WithOrderID(rowCtx, order.ID.String()), "pending payment reconciled into order")
	return j.ledger.MarkCompleted(ctx, row.ID, order.ID)
}
