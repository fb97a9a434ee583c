package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/vietcart/vietcart-backend/pkg/config"
	redisclient "github.com/vietcart/vietcart-backend/pkg/redis"
)

func newTestManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	return &Manager{
		store:       store,
		keyer:       store,
		idleTTL:     30 * time.Minute,
		rememberTTL: 30 * 24 * time.Hour,
	}, store
}

func TestNewManagerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(nil, config.JWTConfig{RefreshTokenTTLMinutes: 30}); err == nil {
		t.Fatal("expected error for nil redis client")
	}

	client := &redisclient.Client{}
	if _, err := NewManager(client, config.JWTConfig{}); err == nil {
		t.Fatal("expected error for zero refresh ttl")
	}
	if _, err := NewManager(client, config.JWTConfig{ExpirationMinutes: 30, RefreshTokenTTLMinutes: 30}); err == nil {
		t.Fatal("expected error when refresh ttl does not exceed access ttl")
	}

	mgr, err := NewManager(client, config.JWTConfig{
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 30,
		RememberMeTTLMinutes:   43200,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mgr.idleTTL != 30*time.Minute {
		t.Fatalf("unexpected idle ttl %s", mgr.idleTTL)
	}
	if mgr.rememberTTL != 43200*time.Minute {
		t.Fatalf("unexpected remember ttl %s", mgr.rememberTTL)
	}
}

func TestGenerateStoresTokenWithTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mgr, store := newTestManager()

	token, err := mgr.Generate(ctx, "jti-1", false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty refresh token")
	}
	entry, ok := store.entries["session:jti-1"]
	if !ok {
		t.Fatal("expected session stored under access key")
	}
	if entry.value != token {
		t.Fatal("stored token does not match returned token")
	}
	if entry.ttl != mgr.idleTTL {
		t.Fatalf("expected idle ttl, got %s", entry.ttl)
	}

	if _, err := mgr.Generate(ctx, "  ", false); err == nil {
		t.Fatal("expected error for blank access id")
	}
}

func TestGenerateRememberMeUsesLongTTL(t *testing.T) {
	t.Parallel()
	mgr, store := newTestManager()

	if _, err := mgr.Generate(context.Background(), "jti-rm", true); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := store.entries["session:jti-rm"].ttl; got != mgr.rememberTTL {
		t.Fatalf("expected remember-me ttl, got %s", got)
	}
}

func TestRotateInvalidatesOldSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mgr, store := newTestManager()

	token, err := mgr.Generate(ctx, "jti-old", false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	newID, newToken, err := mgr.Rotate(ctx, "jti-old", token, false)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newID == "" || newID == "jti-old" {
		t.Fatalf("expected fresh access id, got %q", newID)
	}
	if newToken == "" || newToken == token {
		t.Fatal("expected fresh refresh token")
	}
	if _, ok := store.entries["session:jti-old"]; ok {
		t.Fatal("old session should be deleted")
	}
	if store.entries["session:"+newID].value != newToken {
		t.Fatal("new session not stored")
	}

	// Replay of the consumed token must fail.
	if _, _, err := mgr.Rotate(ctx, "jti-old", token, false); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRotateRejectsMismatchedToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mgr, store := newTestManager()

	if _, err := mgr.Generate(ctx, "jti-x", false); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, _, err := mgr.Rotate(ctx, "jti-x", "forged-token", false); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	if _, ok := store.entries["session:jti-x"]; !ok {
		t.Fatal("session must survive a failed rotation")
	}
}

func TestRevokeAndHasSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mgr, _ := newTestManager()

	if _, err := mgr.Generate(ctx, "jti-live", false); err != nil {
		t.Fatalf("generate: %v", err)
	}
	ok, err := mgr.HasSession(ctx, "jti-live")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if !ok {
		t.Fatal("expected live session")
	}

	if err := mgr.Revoke(ctx, "jti-live"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = mgr.HasSession(ctx, "jti-live")
	if err != nil {
		t.Fatalf("has session after revoke: %v", err)
	}
	if ok {
		t.Fatal("expected session revoked")
	}
}

type storedEntry struct {
	value string
	ttl   time.Duration
}

type fakeStore struct {
	entries map[string]storedEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]storedEntry)}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.entries[key] = storedEntry{value: value.(string), ttl: ttl}
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	entry, ok := f.entries[key]
	if !ok {
		return "", redislib.Nil
	}
	return entry.value, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

func (f *fakeStore) AccessSessionKey(accessID string) string {
	return "session:" + accessID
}
