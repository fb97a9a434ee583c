package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/pkg/config"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
)

// Low-cost argon parameters keep the hashing tests fast.
var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func setupCustomersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  phone TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newCustomersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), testPasswordConfig)
	require.NoError(t, err)
	return svc
}

func TestRegisterHashesAndNormalizes(t *testing.T) {
	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db)
	ctx := context.Background()

	customer, err := svc.Register(ctx, RegisterInput{
		Email:    "  Lan.Nguyen@Example.COM ",
		Password: "mat-khau-manh",
		FullName: " Nguyễn Thị Lan ",
		Phone:    "0901234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "lan.nguyen@example.com", customer.Email)
	assert.Equal(t, "Nguyễn Thị Lan", customer.FullName)
	assert.NotEqual(t, "mat-khau-manh", customer.PasswordHash)
	assert.Contains(t, customer.PasswordHash, "$argon2id$")
	assert.True(t, customer.IsActive)
}

func TestRegisterValidation(t *testing.T) {
	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: "mat-khau-manh", FullName: "A"}},
		{"short password", RegisterInput{Email: "a@example.com", Password: "ngan", FullName: "A"}},
		{"missing name", RegisterInput{Email: "a@example.com", Password: "mat-khau-manh"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "minh@example.com", Password: "mat-khau-manh", FullName: "Minh"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "MINH@example.com", Password: "mat-khau-khac", FullName: "Minh Hai"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestVerifyCredentials(t *testing.T) {
	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Email: "thu@example.com", Password: "mat-khau-manh", FullName: "Thu"})
	require.NoError(t, err)

	customer, err := svc.VerifyCredentials(ctx, "thu@example.com", "mat-khau-manh")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, customer.ID)

	_, err = svc.VerifyCredentials(ctx, "thu@example.com", "sai-mat-khau")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	_, err = svc.VerifyCredentials(ctx, "khong-ton-tai@example.com", "mat-khau-manh")
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code(), "unknown email must look like a bad password")

	// Disabled accounts cannot log in.
	registered.IsActive = false
	require.NoError(t, NewRepository(db).Save(ctx, registered))
	_, err = svc.VerifyCredentials(ctx, "thu@example.com", "mat-khau-manh")
	require.Error(t, err)
}

func TestUpdateProfile(t *testing.T) {
	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Email: "an@example.com", Password: "mat-khau-manh", FullName: "An"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, registered.ID, ProfileInput{FullName: "Trần Văn An", Phone: "0987654321"})
	require.NoError(t, err)
	assert.Equal(t, "Trần Văn An", updated.FullName)
	assert.Equal(t, "0987654321", updated.Phone)

	_, err = svc.UpdateProfile(ctx, registered.ID, ProfileInput{FullName: "  "})
	require.Error(t, err)
}
