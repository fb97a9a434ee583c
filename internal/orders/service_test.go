package orders

import (
	"context"
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
	"github.com/vietcart/vietcart-backend/pkg/pagination"
)

type fakeTxRunner struct {
	db *gorm.DB
}

func (f *fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(f.db)
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  order_date DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'new',
  address_id TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  shipping_method TEXT NOT NULL,
  shipping_fee NUMERIC NOT NULL,
  subtotal NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  estimated_delivery_date DATETIME NOT NULL,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS order_details (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  subtotal NUMERIC NOT NULL,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS order_timeline_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  description TEXT,
  icon TEXT,
  icon_bg TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newOrdersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), &fakeTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func seedOrder(t *testing.T, db *gorm.DB, customerID uuid.UUID, status enums.OrderStatus) *models.Order {
	t.Helper()

	method := enums.ShippingMethodStandard
	subtotal := decimal.RequireFromString("200000")
	fee := method.Fee()
	order := &models.Order{
		ID:                    uuid.New(),
		CustomerID:            customerID,
		OrderDate:             time.Now(),
		Status:                status,
		AddressID:             uuid.New(),
		PaymentMethod:         "cod",
		ShippingMethod:        method,
		ShippingFee:           fee,
		Subtotal:              subtotal,
		DiscountAmount:        decimal.Zero,
		Total:                 subtotal.Add(fee),
		EstimatedDeliveryDate: time.Now().AddDate(0, 0, method.DeliveryDays()),
	}
	require.NoError(t, db.Omit("Details", "Timeline").Create(order).Error)
	require.NoError(t, db.Create(NewTimelineEvent(order.ID, enums.OrderStatusNew)).Error)
	return order
}

func TestDiscountAmountTable(t *testing.T) {
	t.Parallel()

	subtotal := decimal.RequireFromString("200000")
	fee := decimal.RequireFromString("30000")

	cases := []struct {
		code string
		want string
	}{
		{"FREESHIP", "30000"},
		{"freeship", "30000"},
		{"WELCOME10", "20000"},
		{"BLACKFRIDAY", "40000"},
		{"SOMETHINGELSE", "10000"},
		{"", "10000"},
	}
	for _, tc := range cases {
		got := DiscountAmount(tc.code, subtotal, fee)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
			"code %q: got %s want %s", tc.code, got, tc.want)
	}
}

func TestUpdateStatusAppendsTimeline(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusNew)

	updated, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, updated.Status)

	reloaded, err := svc.Get(ctx, customerID, order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Timeline, 2)
	assert.Equal(t, enums.OrderStatusProcessing, reloaded.Timeline[1].Status)
	assert.Equal(t, "fa-cog", reloaded.Timeline[1].Icon)
}

func TestUpdateStatusSameStatusIsNoOp(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusNew)

	_, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusNew)
	require.NoError(t, err)

	reloaded, err := svc.Get(ctx, customerID, order.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Timeline, 1, "no-op must not append an event")
}

func TestUpdateStatusRejectsBackwardTransition(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusShipped)

	_, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusProcessing)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCancelOwnerAndStateGuards(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusProcessing)

	err := svc.Cancel(ctx, uuid.New(), order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	require.NoError(t, svc.Cancel(ctx, customerID, order.ID))

	reloaded, err := svc.Get(ctx, customerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Timeline[len(reloaded.Timeline)-1].Status)

	err = svc.Cancel(ctx, customerID, order.ID)
	require.Error(t, err, "terminal orders cannot be cancelled again")
}

func TestDeleteOnlyCancelledOrders(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusNew)

	err := svc.Delete(ctx, customerID, order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	require.NoError(t, svc.Cancel(ctx, customerID, order.ID))
	require.NoError(t, svc.Delete(ctx, customerID, order.ID))

	_, err = svc.Get(ctx, customerID, order.ID)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	var events int64
	require.NoError(t, db.Model(&models.OrderTimelineEvent{}).Where("order_id = ?", order.ID).Count(&events).Error)
	assert.Zero(t, events, "timeline rows must be removed with the order")
}

func TestApplyDiscountRecomputesTotal(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusNew)

	updated, err := svc.ApplyDiscount(ctx, customerID, order.ID, "FREESHIP")
	require.NoError(t, err)
	assert.True(t, updated.DiscountAmount.Equal(order.ShippingFee))
	assert.True(t, updated.Total.Equal(order.Subtotal), "free shipping leaves the bare subtotal")

	updated, err = svc.ApplyDiscount(ctx, customerID, order.ID, "BLACKFRIDAY")
	require.NoError(t, err)
	want := order.Subtotal.Add(order.ShippingFee).Sub(order.Subtotal.Mul(decimal.New(20, -2)))
	assert.True(t, updated.Total.Equal(want))
}

func TestApplyDiscountRejectsClosedOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusDelivered)

	_, err := svc.ApplyDiscount(context.Background(), customerID, order.ID, "FREESHIP")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestListOrdersPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	ctx := context.Background()
	customerID := uuid.New()

	for i := 0; i < 3; i++ {
		order := seedOrder(t, db, customerID, enums.OrderStatusNew)
		// Distinct created_at values keep the cursor ordering deterministic.
		createdAt := time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, db.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("created_at", createdAt).Error)
	}
	seedOrder(t, db, uuid.New(), enums.OrderStatusNew)

	page, cursor, err := svc.List(ctx, customerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
	require.NotEmpty(t, cursor)

	rest, cursor, err := svc.List(ctx, customerID, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.Empty(t, cursor)
}
