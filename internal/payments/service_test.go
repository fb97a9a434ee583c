package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  method TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  transaction_id TEXT NOT NULL UNIQUE,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newPaymentsService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func seedPendingPayment(t *testing.T, db *gorm.DB, orderID uuid.UUID, amount string) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		Method:        "vnpay",
		Amount:        decimal.RequireFromString(amount),
		Status:        enums.PaymentStatusPending,
		TransactionID: NewTransactionID(orderID, time.Now()),
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}

func TestNewTransactionIDFormat(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	at := time.UnixMilli(1756600000000)
	got := NewTransactionID(orderID, at)

	assert.True(t, strings.HasPrefix(got, "TXN"+orderID.String()))
	assert.True(t, strings.HasSuffix(got, "1756600000000"))
}

func TestProcessPaymentCompletesPendingRow(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentsService(t, db)
	ctx := context.Background()
	orderID := uuid.New()
	seeded := seedPendingPayment(t, db, orderID, "250000")

	completed, err := svc.ProcessPayment(ctx, orderID, decimal.RequireFromString("250000"))
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, completed.ID, "must update the existing row, not insert")
	assert.Equal(t, enums.PaymentStatusCompleted, completed.Status)

	rows, err := svc.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestProcessPaymentAmountMismatch(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentsService(t, db)
	orderID := uuid.New()
	seedPendingPayment(t, db, orderID, "250000")

	_, err := svc.ProcessPayment(context.Background(), orderID, decimal.RequireFromString("99000"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestProcessPaymentWithoutPendingRow(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentsService(t, db)

	_, err := svc.ProcessPayment(context.Background(), uuid.New(), decimal.RequireFromString("10000"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestConfirmGatewayPaymentOverwritesTransactionID(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentsService(t, db)
	ctx := context.Background()
	orderID := uuid.New()
	seeded := seedPendingPayment(t, db, orderID, "480000")

	confirmed, err := svc.ConfirmGatewayPayment(ctx, orderID, "14588923", "Thanh toán VNPay thành công")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, confirmed.ID)
	assert.Equal(t, "14588923", confirmed.TransactionID)
	assert.Equal(t, enums.PaymentStatusCompleted, confirmed.Status)
	assert.Equal(t, "Thanh toán VNPay thành công", confirmed.Note)

	_, err = svc.GetByTransactionID(ctx, seeded.TransactionID)
	require.Error(t, err, "placement-time transaction id must be gone")
}

func TestConfirmPaymentByTransactionID(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentsService(t, db)
	ctx := context.Background()
	orderID := uuid.New()
	seeded := seedPendingPayment(t, db, orderID, "100000")

	confirmed, err := svc.ConfirmPayment(ctx, seeded.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, confirmed.Status)

	// Re-confirming is a no-op.
	again, err := svc.ConfirmPayment(ctx, seeded.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, again.Status)

	_, err = svc.ConfirmPayment(ctx, "TXNmissing")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRefundInsertsNegativeRow(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentsService(t, db)
	ctx := context.Background()
	orderID := uuid.New()
	seedPendingPayment(t, db, orderID, "300000")

	_, err := svc.ProcessPayment(ctx, orderID, decimal.RequireFromString("300000"))
	require.NoError(t, err)

	refund, err := svc.RefundPayment(ctx, orderID, decimal.RequireFromString("300000"))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, refund.Status)
	assert.True(t, refund.Amount.Equal(decimal.RequireFromString("-300000")))
	assert.True(t, strings.HasPrefix(refund.TransactionID, "RF"+orderID.String()))

	rows, err := svc.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "refund appends a row, never mutates the original")
}

func TestRefundGuards(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentsService(t, db)
	ctx := context.Background()
	orderID := uuid.New()
	seedPendingPayment(t, db, orderID, "150000")

	// No completed payment yet.
	_, err := svc.RefundPayment(ctx, orderID, decimal.RequireFromString("150000"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = svc.ProcessPayment(ctx, orderID, decimal.RequireFromString("150000"))
	require.NoError(t, err)

	// Over-refund.
	_, err = svc.RefundPayment(ctx, orderID, decimal.RequireFromString("200000"))
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	// Partial refund then the remainder only.
	_, err = svc.RefundPayment(ctx, orderID, decimal.RequireFromString("100000"))
	require.NoError(t, err)
	_, err = svc.RefundPayment(ctx, orderID, decimal.RequireFromString("100000"))
	require.Error(t, err, "refunds must not exceed what remains paid")
	_, err = svc.RefundPayment(ctx, orderID, decimal.RequireFromString("50000"))
	require.NoError(t, err)
}
