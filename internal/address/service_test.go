package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
)

type fakeTxRunner struct {
	db *gorm.DB
}

func (f *fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(f.db)
}

func setupAddressTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  recipient TEXT NOT NULL,
  phone TEXT NOT NULL,
  line1 TEXT NOT NULL,
  ward TEXT,
  district TEXT,
  city TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS addresses_customer_default_uidx
  ON addresses (customer_id) WHERE is_default;`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  order_date DATETIME,
  status TEXT NOT NULL DEFAULT 'new',
  address_id TEXT NOT NULL,
  payment_method TEXT,
  shipping_method TEXT,
  shipping_fee NUMERIC,
  subtotal NUMERIC,
  discount_amount NUMERIC,
  total NUMERIC,
  estimated_delivery_date DATETIME,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newAddressService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), &fakeTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func validInput(isDefault bool) AddressInput {
	return AddressInput{
		Recipient: "Nguyen Van A",
		Phone:     "0901234567",
		Line1:     "12 Le Loi",
		Ward:      "Ben Nghe",
		District:  "Quan 1",
		City:      "Ho Chi Minh",
		IsDefault: isDefault,
	}
}

func TestCreateFirstAddressBecomesDefault(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := newAddressService(t, db)
	ctx := context.Background()
	customerID := uuid.New()

	first, err := svc.Create(ctx, customerID, validInput(false))
	require.NoError(t, err)
	assert.True(t, first.IsDefault, "first address must become the default")

	second, err := svc.Create(ctx, customerID, validInput(false))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	third, err := svc.Create(ctx, customerID, validInput(true))
	require.NoError(t, err)
	assert.True(t, third.IsDefault)

	rows, err := svc.List(ctx, customerID)
	require.NoError(t, err)
	defaults := 0
	for _, row := range rows {
		if row.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults, "exactly one default at all times")
	assert.Equal(t, third.ID, rows[0].ID, "default sorts first")
}

func TestSetDefaultFlipsOthers(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := newAddressService(t, db)
	ctx := context.Background()
	customerID := uuid.New()

	first, err := svc.Create(ctx, customerID, validInput(false))
	require.NoError(t, err)
	second, err := svc.Create(ctx, customerID, validInput(false))
	require.NoError(t, err)

	require.NoError(t, svc.SetDefault(ctx, customerID, second.ID))

	reloaded, err := svc.Get(ctx, customerID, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)

	reloaded, err = svc.Get(ctx, customerID, second.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsDefault)

	// Setting the current default again is a no-op.
	require.NoError(t, svc.SetDefault(ctx, customerID, second.ID))
}

func TestDeleteGuards(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := newAddressService(t, db)
	ctx := context.Background()
	customerID := uuid.New()

	def, err := svc.Create(ctx, customerID, validInput(true))
	require.NoError(t, err)
	other, err := svc.Create(ctx, customerID, validInput(false))
	require.NoError(t, err)

	err = svc.Delete(ctx, customerID, def.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// An address referenced by an order cannot be deleted either.
	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		AddressID:  other.ID,
	}
	require.NoError(t, db.Create(order).Error)

	err = svc.Delete(ctx, customerID, other.ID)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	require.NoError(t, db.Delete(&models.Order{}, "id = ?", order.ID).Error)
	require.NoError(t, svc.Delete(ctx, customerID, other.ID))
}

func TestOwnershipChecks(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := newAddressService(t, db)
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()

	created, err := svc.Create(ctx, owner, validInput(true))
	require.NoError(t, err)

	_, err = svc.Get(ctx, stranger, created.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	_, err = svc.Get(ctx, owner, uuid.New())
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateCannotUnsetDefault(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := newAddressService(t, db)
	ctx := context.Background()
	customerID := uuid.New()

	created, err := svc.Create(ctx, customerID, validInput(true))
	require.NoError(t, err)

	input := validInput(false)
	_, err = svc.Update(ctx, customerID, created.ID, input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	input.Recipient = "Tran Thi B"
	input.IsDefault = true
	updated, err := svc.Update(ctx, customerID, created.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Tran Thi B", updated.Recipient)
	assert.True(t, updated.IsDefault)
}

func TestCreateValidation(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := newAddressService(t, db)
	ctx := context.Background()

	input := validInput(false)
	input.Recipient = " "
	_, err := svc.Create(ctx, uuid.New(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
