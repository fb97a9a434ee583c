package customers

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/pkg/config"
	"github.com/vietcart/vietcart-backend/pkg/db"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/security"
)

const minPasswordLength = 8

// Service manages shopper accounts. Passwords are argon2id hashed before
// they reach a row; the plaintext never leaves this package.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Customer, error)
	Get(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	UpdateProfile(ctx context.Context, customerID uuid.UUID, input ProfileInput) (*models.Customer, error)
	VerifyCredentials(ctx context.Context, email, password string) (*models.Customer, error)
}

// RegisterInput holds the signup payload.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// ProfileInput holds the mutable profile fields.
type ProfileInput struct {
	FullName string
	Phone    string
}

type service struct {
	repo *Repository
	cfg  config.PasswordConfig
}

// NewService constructs a customer service instance.
func NewService(repo *Repository, cfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is too short").
			WithDetails(map[string]any{"min_length": minPasswordLength})
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}

	hash, err := security.HashPassword(input.Password, s.cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	customer := &models.Customer{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        strings.TrimSpace(input.Phone),
		IsActive:     true,
	}
	if _, err := s.repo.Create(ctx, customer); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return customer, nil
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) UpdateProfile(ctx context.Context, customerID uuid.UUID, input ProfileInput) (*models.Customer, error) {
	customer, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}

	customer.FullName = strings.TrimSpace(input.FullName)
	customer.Phone = strings.TrimSpace(input.Phone)
	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return customer, nil
}

// VerifyCredentials checks an email/password pair. Unknown emails, disabled
// accounts and wrong passwords all collapse into the same unauthorized error
// so the response does not leak which part failed.
func (s *service) VerifyCredentials(ctx context.Context, email, password string) (*models.Customer, error) {
	invalid := pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")

	customer, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer == nil || !customer.IsActive {
		return nil, invalid
	}

	ok, err := security.VerifyPassword(password, customer.PasswordHash)
	if err != nil || !ok {
		return nil, invalid
	}
	return customer, nil
}
