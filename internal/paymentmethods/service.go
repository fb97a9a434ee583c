package paymentmethods

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

// Service manages saved payment methods. Card numbers are masked before they
// ever reach a row; the default-flag invariant mirrors addresses.
type Service interface {
	List(ctx context.Context, customerID uuid.UUID) ([]models.PaymentMethod, error)
	Get(ctx context.Context, customerID, methodID uuid.UUID) (*models.PaymentMethod, error)
	Create(ctx context.Context, customerID uuid.UUID, input CreateInput) (*models.PaymentMethod, error)
	SaveCard(ctx context.Context, customerID uuid.UUID, cardNumber string) (*models.PaymentMethod, error)
	Delete(ctx context.Context, customerID, methodID uuid.UUID) error
	SetDefault(ctx context.Context, customerID, methodID uuid.UUID) error
}

// CreateInput holds validated payment method fields. AccountNumber must
// already be masked by the caller for card inputs; SaveCard handles raw card
// numbers.
type CreateInput struct {
	Name          string
	Provider      string
	AccountNumber string
	IsDefault     bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	dbClient txRunner
}

// NewService constructs a payment method service instance.
func NewService(repo *Repository, dbClient txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment method repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]models.PaymentMethod, error) {
	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, customerID, methodID uuid.UUID) (*models.PaymentMethod, error) {
	return s.owned(ctx, customerID, methodID)
}

func (s *service) Create(ctx context.Context, customerID uuid.UUID, input CreateInput) (*models.PaymentMethod, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	count, err := s.repo.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count payment methods")
	}

	method := &models.PaymentMethod{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Name:          strings.TrimSpace(input.Name),
		Provider:      strings.TrimSpace(input.Provider),
		AccountNumber: strings.TrimSpace(input.AccountNumber),
		IsDefault:     input.IsDefault || count == 0,
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if method.IsDefault {
			if err := txRepo.ClearDefault(ctx, customerID, method.ID); err != nil {
				return err
			}
		}
		_, err := txRepo.Create(ctx, method)
		return err
	}); err != nil {
		if db.IsUniqueViolation(err, "payment_methods_customer_default_uidx") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "default payment method changed concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment method")
	}
	return method, nil
}

// SaveCard masks the raw card number and stores it unless an equivalent card
// (same display name and last four digits) already exists.
func (s *service) SaveCard(ctx context.Context, customerID uuid.UUID, cardNumber string) (*models.PaymentMethod, error) {
	last4 := CardLast4(cardNumber)
	if last4 == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card number is too short")
	}

	provider := CardProvider(cardNumber)
	name := fmt.Sprintf("%s %s", provider, last4)

	existing, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	for i := range existing {
		if existing[i].Name == name && strings.HasSuffix(existing[i].AccountNumber, last4) {
			return &existing[i], nil
		}
	}

	return s.Create(ctx, customerID, CreateInput{
		Name:          name,
		Provider:      provider,
		AccountNumber: MaskCardNumber(cardNumber),
	})
}

func (s *service) Delete(ctx context.Context, customerID, methodID uuid.UUID) error {
	method, err := s.owned(ctx, customerID, methodID)
	if err != nil {
		return err
	}
	if method.IsDefault {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete the default payment method")
	}
	if err := s.repo.Delete(ctx, methodID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete payment method")
	}
	return nil
}

func (s *service) SetDefault(ctx context.Context, customerID, methodID uuid.UUID) error {
	method, err := s.owned(ctx, customerID, methodID)
	if err != nil {
		return err
	}
	if method.IsDefault {
		return nil
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ClearDefault(ctx, customerID, method.ID); err != nil {
			return err
		}
		method.IsDefault = true
		return txRepo.Save(ctx, method)
	}); err != nil {
		if db.IsUniqueViolation(err, "payment_methods_customer_default_uidx") {
			return pkgerrors.New(pkgerrors.CodeConflict, "default payment method changed concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default payment method")
	}
	return nil
}

func (s *service) owned(ctx context.Context, customerID, methodID uuid.UUID) (*models.PaymentMethod, error) {
	method, err := s.repo.FindByID(ctx, methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	if method.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment method does not belong to customer")
	}
	return method, nil
}
