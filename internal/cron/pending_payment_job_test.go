package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/checkout"
	"github.com/vietcart/vietcart-backend/internal/pendingpayments"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/logger"
)

type recordingPlacer struct {
	inputs []checkout.PlaceOrderInput
	err    error
}

func (r *recordingPlacer) PlaceOrder(_ context.Context, input checkout.PlaceOrderInput) (*models.Order, error) {
	r.inputs = append(r.inputs, input)
	if r.err != nil {
		return nil, r.err
	}
	return &models.Order{ID: uuid.New(), CustomerID: input.CustomerID}, nil
}

type recordingConfirmer struct {
	confirms map[uuid.UUID]string
}

func (r *recordingConfirmer) ConfirmGatewayPayment(_ context.Context, orderID uuid.UUID, gatewayTransactionID, _ string) (*models.Payment, error) {
	if r.confirms == nil {
		r.confirms = map[uuid.UUID]string{}
	}
	r.confirms[orderID] = gatewayTransactionID
	return &models.Payment{OrderID: orderID}, nil
}

func setupPendingJobDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS pending_payments (
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL UNIQUE,
  gateway_reference TEXT,
  amount NUMERIC NOT NULL,
  order_id TEXT,
  customer_id TEXT,
  address_id TEXT,
  shipping_method TEXT,
  order_note TEXT,
  payment_time DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending_order_creation',
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func newPendingJobFixture(t *testing.T, maxAttempts int) (*PendingPaymentJob, pendingpayments.Service, *recordingPlacer, *recordingConfirmer) {
	t.Helper()

	db := setupPendingJobDB(t)
	ledger, err := pendingpayments.NewService(pendingpayments.NewRepository(db))
	require.NoError(t, err)

	placer := &recordingPlacer{}
	confirmer := &recordingConfirmer{}
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	job, err := NewPendingPaymentJob(ledger, placer, confirmer, logg, nil, maxAttempts)
	require.NoError(t, err)
	return job, ledger, placer, confirmer
}

func recordPending(t *testing.T, ledger pendingpayments.Service, txnID string, withContext bool) *models.PendingPayment {
	t.Helper()

	input := pendingpayments.RecordInput{
		TransactionID:    txnID,
		GatewayReference: "GW-" + txnID,
		Amount:           decimal.RequireFromString("270000"),
		PaymentTime:      time.Now(),
	}
	if withContext {
		customerID := uuid.New()
		addressID := uuid.New()
		method := enums.ShippingMethodStandard
		input.CustomerID = &customerID
		input.AddressID = &addressID
		input.ShippingMethod = &method
		input.OrderNote = "Giao buổi chiều"
	}
	row, err := ledger.Record(context.Background(), input)
	require.NoError(t, err)
	return row
}

func TestPendingPaymentJobReconcilesFullContextRows(t *testing.T) {
	job, ledger, placer, confirmer := newPendingJobFixture(t, 3)
	ctx := context.Background()
	row := recordPending(t, ledger, "VC1", true)

	require.NoError(t, job.Run(ctx))

	require.Len(t, placer.inputs, 1)
	assert.Equal(t, *row.CustomerID, placer.inputs[0].CustomerID)
	assert.Equal(t, "VNPay", placer.inputs[0].PaymentMethod)
	assert.Equal(t, "Giao buổi chiều", placer.inputs[0].Note)
	require.NotNil(t, placer.inputs[0].ExpectedTotal, "placement must be pinned to the captured amount")
	assert.True(t, placer.inputs[0].ExpectedTotal.Equal(row.Amount))

	settled, err := ledger.Get(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PendingPaymentStatusCompleted, settled.Status)
	require.NotNil(t, settled.OrderID)
	assert.Equal(t, "GW-VC1", confirmer.confirms[*settled.OrderID])

	backlog, err := ledger.Backlog(ctx)
	require.NoError(t, err)
	assert.Zero(t, backlog)
}

func TestPendingPaymentJobFailsIncompleteContext(t *testing.T) {
	job, ledger, placer, _ := newPendingJobFixture(t, 3)
	ctx := context.Background()
	row := recordPending(t, ledger, "VC2", false)

	require.NoError(t, job.Run(ctx))

	assert.Empty(t, placer.inputs, "rows without context must not reach placement")
	settled, err := ledger.Get(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PendingPaymentStatusFailed, settled.Status)
	assert.Equal(t, "incomplete order context", settled.LastError)
}

func TestPendingPaymentJobFailsRowWhenCartDriftedFromCapturedAmount(t *testing.T) {
	job, ledger, placer, _ := newPendingJobFixture(t, 5)
	ctx := context.Background()
	row := recordPending(t, ledger, "VC4", true)
	placer.err = pkgerrors.New(pkgerrors.CodeStateConflict, "cart total does not match captured amount")

	require.NoError(t, job.Run(ctx))

	// No point retrying: the customer changed the cart after capture, so the
	// row goes straight to the back office instead of burning attempts.
	settled, err := ledger.Get(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PendingPaymentStatusFailed, settled.Status)
	assert.Equal(t, "cart total does not match captured amount", settled.LastError)
	assert.Len(t, placer.inputs, 1)
}

func TestPendingPaymentJobCountsAttemptsUntilFailed(t *testing.T) {
	job, ledger, placer, _ := newPendingJobFixture(t, 2)
	ctx := context.Background()
	row := recordPending(t, ledger, "VC3", true)
	placer.err = errors.New("insufficient stock")

	// First attempt: still pending.
	require.NoError(t, job.Run(ctx))
	pending, err := ledger.Get(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PendingPaymentStatusPendingOrderCreation, pending.Status)
	assert.Equal(t, 1, pending.Attempts)
	assert.Contains(t, pending.LastError, "insufficient stock")

	// Second attempt hits the budget and fails the row.
	require.NoError(t, job.Run(ctx))
	settled, err := ledger.Get(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PendingPaymentStatusFailed, settled.Status)
	assert.Equal(t, 2, settled.Attempts)
	assert.Contains(t, settled.LastError, "max attempts exceeded")

	// A third run has nothing left to do.
	require.NoError(t, job.Run(ctx))
	assert.Len(t, placer.inputs, 2)
}
