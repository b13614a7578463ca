package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/muralhq/mural-backend/pkg/errors"
)

// GuestDoc is the JSON document stored per guest token in Redis. It mirrors
// the account cart shape so merge-on-login is a straight item walk.
type GuestDoc struct {
	Items     []ItemDTO `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

type guestKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(guestToken string) string
}

// GuestStore holds anonymous carts in Redis under opaque guest tokens.
type GuestStore struct {
	kv  guestKV
	ttl time.Duration
}

// NewGuestStore builds a guest cart store with the configured document TTL.
func NewGuestStore(kv guestKV, ttl time.Duration) (*GuestStore, error) {
	if kv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redis store is required")
	}
	if ttl <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest cart ttl must be positive")
	}
	return &GuestStore{kv: kv, ttl: ttl}, nil
}

// Load returns the cart document for the token, or an empty document when no
// cart has been written yet.
func (s *GuestStore) Load(ctx context.Context, guestToken string) (GuestDoc, error) {
	raw, err := s.kv.Get(ctx, s.kv.GuestCartKey(guestToken))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return GuestDoc{Items: []ItemDTO{}}, nil
		}
		return GuestDoc{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
	}
	var doc GuestDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return GuestDoc{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode guest cart")
	}
	if doc.Items == nil {
		doc.Items = []ItemDTO{}
	}
	return doc, nil
}

// Save writes the document back and refreshes its TTL.
func (s *GuestStore) Save(ctx context.Context, guestToken string, doc GuestDoc) error {
	doc.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode guest cart")
	}
	if err := s.kv.Set(ctx, s.kv.GuestCartKey(guestToken), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save guest cart")
	}
	return nil
}

// Clear drops the guest cart document entirely.
func (s *GuestStore) Clear(ctx context.Context, guestToken string) error {
	if err := s.kv.Del(ctx, s.kv.GuestCartKey(guestToken)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart")
	}
	return nil
}
