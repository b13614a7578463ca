package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return "", redislib.Nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) AccessSessionKey(accessID string) string {
	return "mural:session:access:" + accessID
}

func newTestManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	return &Manager{store: store, keyer: fakeKeyer{}, ttl: time.Hour}, store
}

func TestGenerateStoresToken(t *testing.T) {
	mgr, store := newTestManager()

	token, err := mgr.Generate(context.Background(), "access-1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty refresh token")
	}
	if stored := store.values["mural:session:access:access-1"]; stored != token {
		t.Fatalf("stored token %q does not match issued token %q", stored, token)
	}
}

func TestRotateInvalidatesOldSession(t *testing.T) {
	mgr, store := newTestManager()

	token, err := mgr.Generate(context.Background(), "access-1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	newAccessID, newToken, err := mgr.Rotate(context.Background(), "access-1", token)
	if err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}
	if newAccessID == "access-1" || newToken == token {
		t.Fatal("rotation must issue a fresh access id and refresh token")
	}
	if _, ok := store.values["mural:session:access:access-1"]; ok {
		t.Fatal("old session must be removed after rotation")
	}

	if _, _, err := mgr.Rotate(context.Background(), "access-1", token); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken on replay, got %v", err)
	}
}

func TestRotateRejectsMismatchedToken(t *testing.T) {
	mgr, _ := newTestManager()

	if _, err := mgr.Generate(context.Background(), "access-1"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if _, _, err := mgr.Rotate(context.Background(), "access-1", "forged"); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestHasSession(t *testing.T) {
	mgr, _ := newTestManager()

	ok, err := mgr.HasSession(context.Background(), "missing")
	if err != nil {
		t.Fatalf("HasSession returned error: %v", err)
	}
	if ok {
		t.Fatal("unknown access id must not report a session")
	}

	if _, err := mgr.Generate(context.Background(), "access-2"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	ok, err = mgr.HasSession(context.Background(), "access-2")
	if err != nil {
		t.Fatalf("HasSession returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected active session")
	}

	if err := mgr.Revoke(context.Background(), "access-2"); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	ok, _ = mgr.HasSession(context.Background(), "access-2")
	if ok {
		t.Fatal("revoked session must not be reported")
	}
}
