package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/repo"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/pagination"
)

// Repository wires together product and inventory persistence.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// FindProductByID loads the product without associations.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductBySlug loads the product by its URL slug.
func (r *Repository) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.DB(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

type productListQuery struct {
	Pagination pagination.Params
	Query      string
	ActiveOnly bool
}

// ListProducts returns a page of products newest-first with cursor pagination.
func (r *Repository) ListProducts(ctx context.Context, query productListQuery) ([]models.Product, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.DB(ctx).Model(&models.Product{})
	if query.ActiveOnly {
		qb = qb.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(query.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(slug) LIKE ?)", pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// GetInventory returns the inventory row for the product, or nil when absent.
func (r *Repository) GetInventory(ctx context.Context, productID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := r.DB(ctx).First(&record, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// UpsertInventory creates or updates the inventory row for a product.
func (r *Repository) UpsertInventory(ctx context.Context, record *models.InventoryRecord) (*models.InventoryRecord, error) {
	if err := r.DB(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// DecreaseStock decrements quantity_in_stock atomically. The conditional
// UPDATE never lets the quantity go negative even under concurrent orders.
func (r *Repository) DecreaseStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	if qty == 0 {
		return nil
	}

	result := r.DB(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ? AND quantity_in_stock >= ?", productID, qty).
		UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock")
	}
	return nil
}

// IncreaseStock raises quantity_in_stock unconditionally.
func (r *Repository) IncreaseStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	if qty == 0 {
		return nil
	}

	result := r.DB(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ?", productID).
		UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		record := &models.InventoryRecord{ProductID: productID, QuantityInStock: qty}
		return r.DB(ctx).Create(record).Error
	}
	return nil
}

// SetDiscountPrice stores the promotional price on the inventory row.
func (r *Repository) SetDiscountPrice(ctx context.Context, productID uuid.UUID, price *decimal.Decimal) error {
	result := r.DB(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ?", productID).
		UpdateColumn("discount_price", price)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		record := &models.InventoryRecord{ProductID: productID, DiscountPrice: price}
		return r.DB(ctx).Create(record).Error
	}
	return nil
}
