package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/repo"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// Repository handles cart and cart item persistence.
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

// FindActiveCart loads the customer's active cart with items, or nil.
func (r *Repository) FindActiveCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	return r.findCartByStatus(ctx, customerID, enums.CartStatusActive)
}

// FindLatestCartByStatus returns the most recently updated cart in the given
// status, or nil when the customer has none.
func (r *Repository) FindLatestCartByStatus(ctx context.Context, customerID uuid.UUID, status enums.CartStatus) (*models.Cart, error) {
	return r.findCartByStatus(ctx, customerID, status)
}

func (r *Repository) findCartByStatus(ctx context.Context, customerID uuid.UUID, status enums.CartStatus) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB(ctx).
		Preload("Items").
		Where("customer_id = ? AND status = ?", customerID, status).
		Order("updated_at DESC").
		First(&cart).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// CreateCart inserts a new cart row.
func (r *Repository) CreateCart(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.DB(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// SaveCart persists mutations on the cart row (not its items).
func (r *Repository) SaveCart(ctx context.Context, cart *models.Cart) error {
	return r.DB(ctx).Omit("Items").Save(cart).Error
}

// AbandonOtherActiveCarts marks every active cart except keepID abandoned.
// Used as best-effort cleanup when duplicates predate the unique index.
func (r *Repository) AbandonOtherActiveCarts(ctx context.Context, customerID, keepID uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Cart{}).
		Where("customer_id = ? AND status = ? AND id <> ?", customerID, enums.CartStatusActive, keepID).
		Update("status", enums.CartStatusAbandoned).
		Error
}

// FindItem returns the cart line for the product, or nil.
func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindItemByID returns the cart line by primary key.
func (r *Repository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.DB(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// SaveItem persists mutations on a cart line.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.DB(ctx).Save(item).Error
}

// DeleteItem removes a cart line.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

// DeleteItems removes every line from the cart.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.DB(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// ListItems returns all lines for the cart.
func (r *Repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&items).
		Error
	return items, err
}

// ListIdleActiveCarts returns active carts untouched since the cutoff.
func (r *Repository) ListIdleActiveCarts(ctx context.Context, cutoff time.Time, limit int) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.DB(ctx).
		Where("status = ? AND updated_at < ?", enums.CartStatusActive, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&carts).
		Error
	return carts, err
}
