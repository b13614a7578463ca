package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muralhq/mural-backend/internal/cart"
	"github.com/muralhq/mural-backend/pkg/db/models"
	"github.com/muralhq/mural-backend/pkg/enums"
	pkgerrors "github.com/muralhq/mural-backend/pkg/errors"
	"github.com/muralhq/mural-backend/pkg/outbox"
	"github.com/muralhq/mural-backend/pkg/pagination"
)

type fakePurchaseRepo struct {
	records []models.PurchaseRecord
}

func (f *fakePurchaseRepo) InsertTx(_ *gorm.DB, records []models.PurchaseRecord) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakePurchaseRepo) ListHistory(_ context.Context, accountID uuid.UUID, _ *pagination.Cursor, limit int) ([]models.PurchaseRecord, error) {
	var out []models.PurchaseRecord
	for _, record := range f.records {
		if record.AccountID == accountID {
			out = append(out, record)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeCartRepo struct {
	lines   map[uuid.UUID][]models.CartItem
	cleared []uuid.UUID
}

func (f *fakeCartRepo) ListTx(_ *gorm.DB, accountID uuid.UUID) ([]models.CartItem, error) {
	return f.lines[accountID], nil
}

func (f *fakeCartRepo) ClearTx(_ *gorm.DB, accountID uuid.UUID) error {
	f.cleared = append(f.cleared, accountID)
	delete(f.lines, accountID)
	return nil
}

type fakeGuestStore struct {
	docs    map[string]cart.GuestDoc
	cleared []string
}

func (f *fakeGuestStore) Load(_ context.Context, token string) (cart.GuestDoc, error) {
	doc, ok := f.docs[token]
	if !ok {
		return cart.GuestDoc{Items: []cart.ItemDTO{}}, nil
	}
	return doc, nil
}

func (f *fakeGuestStore) Clear(_ context.Context, token string) error {
	f.cleared = append(f.cleared, token)
	delete(f.docs, token)
	return nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type harness struct {
	svc      Service
	repo     *fakePurchaseRepo
	cartRepo *fakeCartRepo
	guest    *fakeGuestStore
	emitter  *fakeEmitter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:     &fakePurchaseRepo{},
		cartRepo: &fakeCartRepo{lines: map[uuid.UUID][]models.CartItem{}},
		guest:    &fakeGuestStore{docs: map[string]cart.GuestDoc{}},
		emitter:  &fakeEmitter{},
	}
	svc, err := NewService(ServiceParams{
		Repo:       h.repo,
		CartRepo:   h.cartRepo,
		GuestStore: h.guest,
		Outbox:     h.emitter,
		Tx:         fakeTxRunner{},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	h.svc = svc
	return h
}

func TestAccountCheckoutRecordsAndClears(t *testing.T) {
	h := newHarness(t)
	accountID := uuid.New()
	h.cartRepo.lines[accountID] = []models.CartItem{
		{AccountID: accountID, ArtworkID: uuid.New(), Title: "Blue Field", Price: "250.00", Quantity: 2},
		{AccountID: accountID, ArtworkID: uuid.New(), Title: "Ash Grid", Price: "garbage", Quantity: 1},
	}

	resp, err := h.svc.Checkout(context.Background(), cart.Actor{AccountID: accountID})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if !resp.Recorded {
		t.Fatal("account checkout should be recorded")
	}
	if len(resp.Items) != 2 {
		t.Fatalf("receipt lines = %d, want 2", len(resp.Items))
	}
	if resp.Total != "500.00" {
		t.Fatalf("total = %s, want 500.00 (garbage price counts as zero)", resp.Total)
	}
	if len(h.repo.records) != 2 {
		t.Fatalf("stored records = %d, want 2", len(h.repo.records))
	}
	if len(h.cartRepo.cleared) != 1 || h.cartRepo.cleared[0] != accountID {
		t.Fatal("cart should be cleared in the same flow")
	}
	if len(h.emitter.events) != 1 || h.emitter.events[0].EventType != enums.OutboxEventPurchaseRecorded {
		t.Fatalf("unexpected events: %+v", h.emitter.events)
	}
}

func TestAccountCheckoutEmptyCart(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Checkout(context.Background(), cart.Actor{AccountID: uuid.New()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestGuestCheckoutClearsWithoutRecording(t *testing.T) {
	h := newHarness(t)
	h.guest.docs["guest-1"] = cart.GuestDoc{Items: []cart.ItemDTO{
		{ArtworkID: uuid.New(), Title: "Night Pier", Price: "210.00", Quantity: 1},
	}}

	resp, err := h.svc.Checkout(context.Background(), cart.Actor{GuestToken: "guest-1"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if resp.Recorded {
		t.Fatal("guest checkout must not create history rows")
	}
	if resp.Total != "210.00" {
		t.Fatalf("total = %s", resp.Total)
	}
	if len(h.repo.records) != 0 {
		t.Fatal("no purchase rows for guests")
	}
	if len(h.guest.cleared) != 1 {
		t.Fatal("guest document should be cleared")
	}
	if len(h.emitter.events) != 0 {
		t.Fatal("guest checkout must not emit events")
	}
}

func TestGuestCheckoutEmptyCart(t *testing.T) {
	h := newHarness(t)

	if _, err := h.svc.Checkout(context.Background(), cart.Actor{GuestToken: "guest-empty"}); err == nil {
		t.Fatal("empty guest cart should not check out")
	}
}

func TestHistoryReturnsAccountRows(t *testing.T) {
	h := newHarness(t)
	accountID := uuid.New()
	h.cartRepo.lines[accountID] = []models.CartItem{
		{AccountID: accountID, ArtworkID: uuid.New(), Title: "Blue Field", Price: "250.00", Quantity: 1},
	}
	if _, err := h.svc.Checkout(context.Background(), cart.Actor{AccountID: accountID}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	page, err := h.svc.History(context.Background(), accountID, pagination.Params{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Title != "Blue Field" {
		t.Fatalf("history = %+v", page.Items)
	}
	if page.Items[0].PurchasedAt.After(time.Now().Add(time.Minute)) {
		t.Fatal("purchase timestamp should be now-ish")
	}
}
