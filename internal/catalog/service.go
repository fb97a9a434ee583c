package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/pagination"
)

// Service exposes catalog reads and the inventory ledger operations.
type Service interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	QuantityInStock(ctx context.Context, productID uuid.UUID) (int, error)
	EffectivePrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	IncreaseStock(ctx context.Context, productID uuid.UUID, qty int) error
	SetDiscountPrice(ctx context.Context, productID uuid.UUID, price *decimal.Decimal) error
}

// ListProductsInput holds list filters from the API layer.
type ListProductsInput struct {
	Pagination pagination.Params
	Query      string
	// IncludeInactive is reserved for back-office listings.
	IncludeInactive bool
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name            string
	Slug            string
	Description     string
	Price           decimal.Decimal
	ImageURLs       []string
	IsActive        bool
	QuantityInStock int
	ReorderLevel    int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageURLs   *[]string
	IsActive    *bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	dbClient txRunner
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, dbClient txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// GetProduct returns the product with its inventory read model.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	inventory, err := s.repo.GetInventory(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return NewProductDTO(product, inventory), nil
}

// GetProductBySlug resolves a storefront URL slug.
func (s *service) GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	inventory, err := s.repo.GetInventory(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return NewProductDTO(product, inventory), nil
}

// ListProducts returns the storefront catalog page.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	rows, nextCursor, err := s.repo.ListProducts(ctx, productListQuery{
		Pagination: input.Pagination,
		Query:      input.Query,
		ActiveOnly: !input.IncludeInactive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		inventory, err := s.repo.GetInventory(ctx, rows[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
		}
		dtos = append(dtos, *NewProductDTO(&rows[i], inventory))
	}
	return &ProductListResult{Products: dtos, NextCursor: nextCursor}, nil
}

// CreateProduct inserts the product with its starting inventory.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if input.QuantityInStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity_in_stock must be non-negative")
	}

	var createdID uuid.UUID
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product := &models.Product{
			Name:        strings.TrimSpace(input.Name),
			Slug:        strings.TrimSpace(input.Slug),
			Description: input.Description,
			Price:       input.Price,
			ImageURLs:   input.ImageURLs,
			IsActive:    input.IsActive,
		}
		created, err := txRepo.CreateProduct(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		createdID = created.ID

		record := &models.InventoryRecord{
			ProductID:       created.ID,
			QuantityInStock: input.QuantityInStock,
			ReorderLevel:    input.ReorderLevel,
		}
		if _, err := txRepo.UpsertInventory(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert inventory")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	return s.GetProduct(ctx, createdID)
}

// UpdateProduct applies partial mutations to a product row.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		product.Price = *input.Price
	}
	if input.ImageURLs != nil {
		product.ImageURLs = append([]string(nil), (*input.ImageURLs)...)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if _, err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return s.GetProduct(ctx, productID)
}

// QuantityInStock reads the current stock level; absent records count as zero.
func (s *service) QuantityInStock(ctx context.Context, productID uuid.UUID) (int, error) {
	inventory, err := s.repo.GetInventory(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	if inventory == nil {
		return 0, nil
	}
	return inventory.QuantityInStock, nil
}

// EffectivePrice returns the discount price when one is set, else list price.
func (s *service) EffectivePrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	inventory, err := s.repo.GetInventory(ctx, productID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return effectivePrice(product, inventory), nil
}

// IncreaseStock raises the stock level, creating the ledger row when missing.
func (s *service) IncreaseStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if err := s.repo.IncreaseStock(ctx, productID, qty); err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increase stock")
	}
	return nil
}

// SetDiscountPrice validates and stores the promotional price.
func (s *service) SetDiscountPrice(ctx context.Context, productID uuid.UUID, price *decimal.Decimal) error {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if price != nil {
		if price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount price must be non-negative")
		}
		if price.GreaterThan(product.Price) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount price cannot exceed list price")
		}
	}

	if err := s.repo.SetDiscountPrice(ctx, productID, price); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set discount price")
	}
	return nil
}
