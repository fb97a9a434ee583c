package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietcart/vietcart-backend/pkg/auth"
	"github.com/vietcart/vietcart-backend/pkg/auth/session"
	"github.com/vietcart/vietcart-backend/pkg/config"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
)

// TokenPair is what a successful login or refresh hands the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Customer     *models.Customer
}

// Service issues and rotates the access/refresh token pair. The JWT's JTI is
// the redis session key; revoking the session invalidates the token before
// its expiry.
type Service interface {
	Login(ctx context.Context, email, password string, rememberMe bool) (*TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string, rememberMe bool) (*TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
}

// credentialVerifier is the slice of the customer service auth depends on.
type credentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (*models.Customer, error)
	Get(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
}

// sessionManager mirrors the redis-backed refresh session manager.
type sessionManager interface {
	Generate(ctx context.Context, accessID string, rememberMe bool) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string, rememberMe bool) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	customers credentialVerifier
	sessions  sessionManager
	cfg       config.JWTConfig
	now       func() time.Time
}

// NewService constructs an auth service instance.
func NewService(customers credentialVerifier, sessions sessionManager, cfg config.JWTConfig) (Service, error) {
	if customers == nil {
		return nil, fmt.Errorf("customer service required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if cfg.Secret == "" || cfg.Issuer == "" {
		return nil, fmt.Errorf("jwt secret and issuer required")
	}
	return &service{customers: customers, sessions: sessions, cfg: cfg, now: time.Now}, nil
}

func (s *service) Login(ctx context.Context, email, password string, rememberMe bool) (*TokenPair, error) {
	customer, err := s.customers.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	accessID := session.NewAccessID()
	accessToken, err := auth.MintAccessToken(s.cfg, s.now(), auth.AccessTokenPayload{
		CustomerID: customer.ID,
		Email:      customer.Email,
		JTI:        accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refreshToken, err := s.sessions.Generate(ctx, accessID, rememberMe)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refresh session")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, Customer: customer}, nil
}

// Refresh rotates the pair. The access token may already be expired; only its
// signature and session binding are checked.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string, rememberMe bool) (*TokenPair, error) {
	claims, err := auth.ParseAccessTokenAllowExpired(s.cfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	newAccessID, newRefreshToken, err := s.sessions.Rotate(ctx, claims.ID, refreshToken, rememberMe)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh session")
	}

	customer, err := s.customers.Get(ctx, claims.CustomerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is disabled")
	}

	newAccessToken, err := auth.MintAccessToken(s.cfg, s.now(), auth.AccessTokenPayload{
		CustomerID: customer.ID,
		Email:      customer.Email,
		JTI:        newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &TokenPair{AccessToken: newAccessToken, RefreshToken: newRefreshToken, Customer: customer}, nil
}

func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := auth.ParseAccessToken(s.cfg, accessToken)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}
