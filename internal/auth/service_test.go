package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/vietcart/vietcart-backend/pkg/auth"
	"github.com/vietcart/vietcart-backend/pkg/auth/session"
	"github.com/vietcart/vietcart-backend/pkg/config"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
)

var testJWTConfig = config.JWTConfig{
	Secret:                 "test-secret",
	Issuer:                 "vietcart-test",
	ExpirationMinutes:      15,
	RefreshTokenTTLMinutes: 30,
	RememberMeTTLMinutes:   43200,
}

type stubCustomers struct {
	customer *models.Customer
	verifyOK bool
}

func (s *stubCustomers) VerifyCredentials(_ context.Context, _, _ string) (*models.Customer, error) {
	if !s.verifyOK {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}
	return s.customer, nil
}

func (s *stubCustomers) Get(_ context.Context, customerID uuid.UUID) (*models.Customer, error) {
	if s.customer == nil || s.customer.ID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return s.customer, nil
}

// stubSessions tracks live session ids and their refresh tokens in memory.
type stubSessions struct {
	tokens   map[string]string // accessID -> refresh token
	remember map[string]bool
}

func newStubSessions() *stubSessions {
	return &stubSessions{tokens: map[string]string{}, remember: map[string]bool{}}
}

func (s *stubSessions) Generate(_ context.Context, accessID string, rememberMe bool) (string, error) {
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	s.remember[accessID] = rememberMe
	return token, nil
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, provided string, rememberMe bool) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newAccessID := session.NewAccessID()
	token := "refresh-" + newAccessID
	s.tokens[newAccessID] = token
	s.remember[newAccessID] = rememberMe
	return newAccessID, token, nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	delete(s.tokens, accessID)
	return nil
}

func newAuthFixture(t *testing.T) (Service, *stubCustomers, *stubSessions) {
	t.Helper()

	customer := &models.Customer{
		ID:       uuid.New(),
		Email:    "lan@example.com",
		FullName: "Lan",
		IsActive: true,
	}
	customers := &stubCustomers{customer: customer, verifyOK: true}
	sessions := newStubSessions()
	svc, err := NewService(customers, sessions, testJWTConfig)
	require.NoError(t, err)
	return svc, customers, sessions
}

func TestLoginIssuesBoundPair(t *testing.T) {
	svc, customers, sessions := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "lan@example.com", "mat-khau-manh", false)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, customers.customer.ID, pair.Customer.ID)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, customers.customer.ID, claims.CustomerID)
	assert.Equal(t, pair.RefreshToken, sessions.tokens[claims.ID], "JTI must key the refresh session")
	assert.False(t, sessions.remember[claims.ID])
}

func TestLoginRememberMe(t *testing.T) {
	svc, _, sessions := newAuthFixture(t)

	pair, err := svc.Login(context.Background(), "lan@example.com", "mat-khau-manh", true)
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig, pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, sessions.remember[claims.ID])
}

func TestLoginBadCredentials(t *testing.T) {
	svc, customers, _ := newAuthFixture(t)
	customers.verifyOK = false

	_, err := svc.Login(context.Background(), "lan@example.com", "sai", false)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestRefreshRotatesPair(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "lan@example.com", "mat-khau-manh", false)
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken, false)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, rotated.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The old pair is dead: replaying it must fail.
	_, err = svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken, false)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	// The rotated pair still works.
	_, err = svc.Refresh(ctx, rotated.AccessToken, rotated.RefreshToken, false)
	require.NoError(t, err)
}

func TestRefreshRejectsDisabledAccount(t *testing.T) {
	svc, customers, _ := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "lan@example.com", "mat-khau-manh", false)
	require.NoError(t, err)

	customers.customer.IsActive = false
	_, err = svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken, false)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "lan@example.com", "mat-khau-manh", false)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, pair.AccessToken))

	claims, err := pkgauth.ParseAccessToken(testJWTConfig, pair.AccessToken)
	require.NoError(t, err)
	_, live := sessions.tokens[claims.ID]
	assert.False(t, live)

	// A refresh after logout must fail.
	_, err = svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken, false)
	require.Error(t, err)
}
