package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/pkg/db"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
)

// Service manages customer shipping addresses. When a customer has any
// addresses, exactly one carries the default flag.
type Service interface {
	List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error)
	Get(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error)
	Create(ctx context.Context, customerID uuid.UUID, input AddressInput) (*models.Address, error)
	Update(ctx context.Context, customerID, addressID uuid.UUID, input AddressInput) (*models.Address, error)
	Delete(ctx context.Context, customerID, addressID uuid.UUID) error
	SetDefault(ctx context.Context, customerID, addressID uuid.UUID) error
}

// AddressInput holds validated address fields.
type AddressInput struct {
	Recipient string
	Phone     string
	Line1     string
	Ward      string
	District  string
	City      string
	IsDefault bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	dbClient txRunner
}

// NewService constructs an address service instance.
func NewService(repo *Repository, dbClient txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	return s.owned(ctx, customerID, addressID)
}

// Create inserts the address. The first address for a customer always becomes
// the default; an explicit default clears the previous one in the same
// transaction.
func (s *service) Create(ctx context.Context, customerID uuid.UUID, input AddressInput) (*models.Address, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	count, err := s.repo.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
	}

	address := &models.Address{
		ID:         uuid.New(),
		CustomerID: customerID,
		Recipient:  strings.TrimSpace(input.Recipient),
		Phone:      strings.TrimSpace(input.Phone),
		Line1:      strings.TrimSpace(input.Line1),
		Ward:       strings.TrimSpace(input.Ward),
		District:   strings.TrimSpace(input.District),
		City:       strings.TrimSpace(input.City),
		IsDefault:  input.IsDefault || count == 0,
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := txRepo.ClearDefault(ctx, customerID, address.ID); err != nil {
				return err
			}
		}
		_, err := txRepo.Create(ctx, address)
		return err
	}); err != nil {
		if db.IsUniqueViolation(err, "addresses_customer_default_uidx") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "default address changed concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return address, nil
}

func (s *service) Update(ctx context.Context, customerID, addressID uuid.UUID, input AddressInput) (*models.Address, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	address, err := s.owned(ctx, customerID, addressID)
	if err != nil {
		return nil, err
	}

	wasDefault := address.IsDefault
	address.Recipient = strings.TrimSpace(input.Recipient)
	address.Phone = strings.TrimSpace(input.Phone)
	address.Line1 = strings.TrimSpace(input.Line1)
	address.Ward = strings.TrimSpace(input.Ward)
	address.District = strings.TrimSpace(input.District)
	address.City = strings.TrimSpace(input.City)

	// Dropping the default flag directly would leave the customer without
	// one; use SetDefault on another address instead.
	if wasDefault && !input.IsDefault {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot unset the default address; set another address as default")
	}
	address.IsDefault = wasDefault || input.IsDefault

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := txRepo.ClearDefault(ctx, customerID, address.ID); err != nil {
				return err
			}
		}
		return txRepo.Save(ctx, address)
	}); err != nil {
		if db.IsUniqueViolation(err, "addresses_customer_default_uidx") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "default address changed concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	return address, nil
}

// Delete removes the address unless it is the default or an order references
// it.
func (s *service) Delete(ctx context.Context, customerID, addressID uuid.UUID) error {
	address, err := s.owned(ctx, customerID, addressID)
	if err != nil {
		return err
	}
	if address.IsDefault {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete the default address")
	}

	referenced, err := s.repo.IsReferencedByOrders(ctx, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check address references")
	}
	if referenced {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "address is referenced by existing orders")
	}

	if err := s.repo.Delete(ctx, addressID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

// SetDefault makes the address the customer's default and clears all others.
func (s *service) SetDefault(ctx context.Context, customerID, addressID uuid.UUID) error {
	address, err := s.owned(ctx, customerID, addressID)
	if err != nil {
		return err
	}
	if address.IsDefault {
		return nil
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ClearDefault(ctx, customerID, address.ID); err != nil {
			return err
		}
		address.IsDefault = true
		return txRepo.Save(ctx, address)
	}); err != nil {
		if db.IsUniqueViolation(err, "addresses_customer_default_uidx") {
			return pkgerrors.New(pkgerrors.CodeConflict, "default address changed concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default address")
	}
	return nil
}

func (s *service) owned(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to customer")
	}
	return address, nil
}

func validateInput(input AddressInput) error {
	if strings.TrimSpace(input.Recipient) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	if strings.TrimSpace(input.Line1) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address line is required")
	}
	if strings.TrimSpace(input.City) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}
	return nil
}
