package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  price NUMERIC NOT NULL,
  image_urls TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	inventory := `
CREATE TABLE IF NOT EXISTS inventory_records (
  product_id TEXT PRIMARY KEY,
  quantity_in_stock INTEGER NOT NULL DEFAULT 0,
  reorder_level INTEGER NOT NULL DEFAULT 0,
  discount_price NUMERIC,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(inventory).Error)
	return db
}

func createProduct(t *testing.T, db *gorm.DB, name string, price int64) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Slug:     fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
		Price:    decimal.NewFromInt(price),
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func createInventory(t *testing.T, db *gorm.DB, productID uuid.UUID, qty int) *models.InventoryRecord {
	t.Helper()

	record := &models.InventoryRecord{ProductID: productID, QuantityInStock: qty}
	require.NoError(t, db.Create(record).Error)
	return record
}

func TestRepositoryDecreaseStock(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := createProduct(t, db, "ao-thun", 150000)
	createInventory(t, db, product.ID, 5)

	require.NoError(t, repo.DecreaseStock(ctx, product.ID, 3))

	record, err := repo.GetInventory(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, record.QuantityInStock)

	err = repo.DecreaseStock(ctx, product.ID, 3)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	record, err = repo.GetInventory(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, record.QuantityInStock, "failed decrement must not touch the row")

	err = repo.DecreaseStock(ctx, product.ID, -1)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	require.NoError(t, repo.DecreaseStock(ctx, product.ID, 0))
}

func TestRepositoryIncreaseStockCreatesMissingRow(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := createProduct(t, db, "non-la", 80000)

	require.NoError(t, repo.IncreaseStock(ctx, product.ID, 7))

	record, err := repo.GetInventory(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 7, record.QuantityInStock)

	require.NoError(t, repo.IncreaseStock(ctx, product.ID, 3))
	record, err = repo.GetInventory(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, record.QuantityInStock)
}

func TestRepositoryGetInventoryMissingIsNil(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	record, err := repo.GetInventory(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRepositorySetDiscountPrice(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := createProduct(t, db, "giay-da", 500000)
	createInventory(t, db, product.ID, 1)

	discount := decimal.NewFromInt(400000)
	require.NoError(t, repo.SetDiscountPrice(ctx, product.ID, &discount))

	record, err := repo.GetInventory(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, record.DiscountPrice)
	assert.True(t, record.DiscountPrice.Equal(discount))

	require.NoError(t, repo.SetDiscountPrice(ctx, product.ID, nil))
	record, err = repo.GetInventory(ctx, product.ID)
	require.NoError(t, err)
	assert.Nil(t, record.DiscountPrice)
}

func TestRepositoryListProductsPaginationAndSearch(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		createProduct(t, db, fmt.Sprintf("ao-khoac-%d", i), 200000)
	}
	inactive := createProduct(t, db, "hidden", 1000)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	page, cursor, err := repo.ListProducts(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 2},
		ActiveOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotEmpty(t, cursor)

	rest, nextCursor, err := repo.ListProducts(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 2, Cursor: cursor},
		ActiveOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, nextCursor)

	filtered, _, err := repo.ListProducts(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 10},
		Query:      "khoac-1",
		ActiveOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "ao-khoac-1", filtered[0].Name)
}
