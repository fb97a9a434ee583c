package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/catalog"
	"github.com/vietcart/vietcart-backend/pkg/db"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/logger"
)

// Service exposes cart operations for the storefront.
type Service interface {
	GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, customerID, productID uuid.UUID, qty int) (*CartDTO, error)
	UpdateItemQuantity(ctx context.Context, customerID, itemID uuid.UUID, qty int) (*CartDTO, error)
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error)
	UpdateItemSelection(ctx context.Context, customerID, itemID uuid.UUID, selected bool) (*CartDTO, error)
	SaveForLater(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error)
	MoveToCart(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error)
	ClearCart(ctx context.Context, customerID uuid.UUID) error
}

type productCatalog interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*catalog.ProductDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	dbClient txRunner
	catalog  productCatalog
	logg     *logger.Logger
}

// NewService constructs a cart service instance.
func NewService(repo *Repository, dbClient txRunner, productCatalog productCatalog, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if productCatalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, catalog: productCatalog, logg: logg}, nil
}

// GetCart returns the customer's cart, creating one when needed.
func (s *service) GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.getOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, cart), nil
}

// AddItem merges the product into the cart, snapshotting the effective price.
func (s *service) AddItem(ctx context.Context, customerID, productID uuid.UUID, qty int) (*CartDTO, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	cart, err := s.getOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	mergedQty := qty
	if existing != nil {
		mergedQty += existing.Quantity
	}
	if mergedQty > product.QuantityInStock {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
			WithDetails(map[string]any{"available": product.QuantityInStock, "requested": mergedQty})
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if existing != nil {
			existing.Quantity = mergedQty
			existing.IsSelected = true
			if err := txRepo.SaveItem(ctx, existing); err != nil {
				return err
			}
		} else {
			item := &models.CartItem{
				ID:         uuid.New(),
				CartID:     cart.ID,
				ProductID:  productID,
				Quantity:   qty,
				UnitPrice:  product.EffectivePrice,
				IsSelected: true,
			}
			if _, err := txRepo.CreateItem(ctx, item); err != nil {
				return err
			}
		}
		return recalculateTotal(ctx, txRepo, cart)
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}

	return s.reload(ctx, customerID)
}

// UpdateItemQuantity sets the quantity on an owned cart line.
func (s *service) UpdateItemQuantity(ctx context.Context, customerID, itemID uuid.UUID, qty int) (*CartDTO, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, item, err := s.ownedItem(ctx, customerID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if qty > product.QuantityInStock {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
			WithDetails(map[string]any{"available": product.QuantityInStock, "requested": qty})
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		item.Quantity = qty
		if err := txRepo.SaveItem(ctx, item); err != nil {
			return err
		}
		return recalculateTotal(ctx, txRepo, cart)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}

	return s.reload(ctx, customerID)
}

// RemoveItem deletes an owned cart line.
func (s *service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error) {
	cart, item, err := s.ownedItem(ctx, customerID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		return recalculateTotal(ctx, txRepo, cart)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}

	return s.reload(ctx, customerID)
}

// UpdateItemSelection toggles whether the line counts toward checkout.
func (s *service) UpdateItemSelection(ctx context.Context, customerID, itemID uuid.UUID, selected bool) (*CartDTO, error) {
	cart, item, err := s.ownedItem(ctx, customerID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		item.IsSelected = selected
		if err := txRepo.SaveItem(ctx, item); err != nil {
			return err
		}
		return recalculateTotal(ctx, txRepo, cart)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item selection")
	}

	return s.reload(ctx, customerID)
}

// SaveForLater drops the line out of the checkout total.
func (s *service) SaveForLater(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error) {
	return s.UpdateItemSelection(ctx, customerID, itemID, false)
}

// MoveToCart brings a saved line back into the checkout total.
func (s *service) MoveToCart(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error) {
	return s.UpdateItemSelection(ctx, customerID, itemID, true)
}

// ClearCart removes every line; clearing an already-empty cart is an error.
func (s *service) ClearCart(ctx context.Context, customerID uuid.UUID) error {
	cart, err := s.getOrCreateCart(ctx, customerID)
	if err != nil {
		return err
	}
	if len(cart.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is already empty")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.DeleteItems(ctx, cart.ID); err != nil {
			return err
		}
		cart.TotalAmount = decimal.Zero
		return txRepo.SaveCart(ctx, cart)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// getOrCreateCart resolves the single active cart: active first, then a
// reactivated abandoned cart, then a fresh row, then as a last resort a
// reactivated converted cart. The partial unique index makes concurrent
// creates safe; a conflict re-reads the winner.
func (s *service) getOrCreateCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	active, err := s.repo.FindActiveCart(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	if active != nil {
		s.cleanupStrays(ctx, customerID, active.ID)
		return active, nil
	}

	if cart, err := s.reactivate(ctx, customerID, enums.CartStatusAbandoned); err != nil || cart != nil {
		return cart, err
	}

	created := &models.Cart{
		ID:          uuid.New(),
		CustomerID:  customerID,
		Status:      enums.CartStatusActive,
		TotalAmount: decimal.Zero,
	}
	if _, err := s.repo.CreateCart(ctx, created); err != nil {
		if db.IsUniqueViolation(err, "carts_customer_active_uidx") {
			winner, rerr := s.repo.FindActiveCart(ctx, customerID)
			if rerr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, rerr, "re-read active cart")
			}
			if winner != nil {
				return winner, nil
			}
		}
		if cart, rerr := s.reactivate(ctx, customerID, enums.CartStatusConverted); rerr == nil && cart != nil {
			return cart, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) reactivate(ctx context.Context, customerID uuid.UUID, from enums.CartStatus) (*models.Cart, error) {
	cart, err := s.repo.FindLatestCartByStatus(ctx, customerID, from)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart for reactivation")
	}
	if cart == nil {
		return nil, nil
	}
	cart.Status = enums.CartStatusActive
	cart.ConvertedAt = nil
	if from == enums.CartStatusConverted {
		// The lines on a converted cart were already ordered; resurrecting it
		// with them attached would re-order paid-for items on the next
		// checkout. Start it empty.
		if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			if err := txRepo.DeleteItems(ctx, cart.ID); err != nil {
				return err
			}
			cart.TotalAmount = decimal.Zero
			return txRepo.SaveCart(ctx, cart)
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reactivate cart")
		}
		cart.Items = nil
		return cart, nil
	}
	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reactivate cart")
	}
	return cart, nil
}

// cleanupStrays is best-effort: duplicates can only predate the unique index.
func (s *service) cleanupStrays(ctx context.Context, customerID, keepID uuid.UUID) {
	if err := s.repo.AbandonOtherActiveCarts(ctx, customerID, keepID); err != nil {
		s.logg.Warn(s.logg.WithCartID(ctx, keepID.String()), "stray cart cleanup failed: "+err.Error())
	}
}

func (s *service) ownedItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.Cart, *models.CartItem, error) {
	cart, err := s.repo.FindActiveCart(ctx, customerID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	if cart == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}

	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if item.CartID != cart.ID {
		// A line in someone else's cart reads the same as a missing one.
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return cart, item, nil
}

func recalculateTotal(ctx context.Context, repo *Repository, cart *models.Cart) error {
	items, err := repo.ListItems(ctx, cart.ID)
	if err != nil {
		return err
	}
	cart.TotalAmount = SelectedTotal(items)
	return repo.SaveCart(ctx, cart)
}

func (s *service) reload(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindActiveCart(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}
	return s.toDTO(ctx, cart), nil
}

func (s *service) toDTO(ctx context.Context, cart *models.Cart) *CartDTO {
	names := make(map[uuid.UUID]string, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			continue
		}
		names[item.ProductID] = product.Name
	}
	return NewCartDTO(cart, names)
}
