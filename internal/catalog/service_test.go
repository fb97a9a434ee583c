package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
)

type fakeTxRunner struct {
	db *gorm.DB
}

func (f *fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(f.db)
}

func newCatalogService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupCatalogTestDB(t)
	svc, err := NewService(NewRepository(db), &fakeTxRunner{db: db})
	require.NoError(t, err)
	return svc, db
}

func TestNewServiceValidatesDeps(t *testing.T) {
	t.Parallel()
	if _, err := NewService(nil, &fakeTxRunner{}); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if _, err := NewService(&Repository{}, nil); err == nil {
		t.Fatal("expected error for nil db client")
	}
}

func TestServiceQuantityInStockMissingRecordIsZero(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	product := createProduct(t, db, "tui-xach", 300000)

	qty, err := svc.QuantityInStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)

	createInventory(t, db, product.ID, 12)
	qty, err = svc.QuantityInStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, qty)
}

func TestServiceEffectivePrice(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	product := createProduct(t, db, "dong-ho", 1200000)
	createInventory(t, db, product.ID, 4)

	price, err := svc.EffectivePrice(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(1200000)), "no discount falls back to list price")

	discount := decimal.NewFromInt(990000)
	require.NoError(t, svc.SetDiscountPrice(ctx, product.ID, &discount))

	price, err = svc.EffectivePrice(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(discount))

	zero := decimal.Zero
	require.NoError(t, svc.SetDiscountPrice(ctx, product.ID, &zero))
	price, err = svc.EffectivePrice(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(1200000)), "zero discount is ignored")
}

func TestServiceSetDiscountPriceValidation(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	product := createProduct(t, db, "balo", 450000)
	createInventory(t, db, product.ID, 2)

	negative := decimal.NewFromInt(-1)
	err := svc.SetDiscountPrice(ctx, product.ID, &negative)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	tooHigh := decimal.NewFromInt(500000)
	err = svc.SetDiscountPrice(ctx, product.ID, &tooHigh)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	err = svc.SetDiscountPrice(ctx, uuid.New(), &negative)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceGetProductNotFound(t *testing.T) {
	svc, _ := newCatalogService(t)

	_, err := svc.GetProduct(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceCreateProductValidation(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"missing name", CreateProductInput{Slug: "s", Price: decimal.NewFromInt(1)}},
		{"missing slug", CreateProductInput{Name: "n", Price: decimal.NewFromInt(1)}},
		{"negative price", CreateProductInput{Name: "n", Slug: "s", Price: decimal.NewFromInt(-5)}},
		{"negative stock", CreateProductInput{Name: "n", Slug: "s", Price: decimal.NewFromInt(5), QuantityInStock: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tc.input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestServiceGetProductBySlug(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	product := createProduct(t, db, "mu-bao-hiem", 250000)
	createInventory(t, db, product.ID, 9)

	dto, err := svc.GetProductBySlug(ctx, product.Slug)
	require.NoError(t, err)
	assert.Equal(t, product.ID, dto.ID)
	assert.Equal(t, 9, dto.QuantityInStock)
	assert.True(t, dto.InStock)

	_, err = svc.GetProductBySlug(ctx, "")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
