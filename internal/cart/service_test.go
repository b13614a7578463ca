package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/muralhq/mural-backend/pkg/db/models"
)

type fakeGuestStore struct {
	docs map[string]GuestDoc
}

func newFakeGuestStore() *fakeGuestStore {
	return &fakeGuestStore{docs: map[string]GuestDoc{}}
}

func (f *fakeGuestStore) Load(_ context.Context, token string) (GuestDoc, error) {
	doc, ok := f.docs[token]
	if !ok {
		return GuestDoc{Items: []ItemDTO{}}, nil
	}
	return doc, nil
}

func (f *fakeGuestStore) Save(_ context.Context, token string, doc GuestDoc) error {
	f.docs[token] = doc
	return nil
}

func (f *fakeGuestStore) Clear(_ context.Context, token string) error {
	delete(f.docs, token)
	return nil
}

type fakeArtworks struct {
	byID map[uuid.UUID]*models.Artwork
}

func (f *fakeArtworks) FindByID(_ context.Context, id uuid.UUID) (*models.Artwork, error) {
	art, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return art, nil
}

type fakeCartRepo struct {
	rows map[uuid.UUID]*models.CartItem
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{rows: map[uuid.UUID]*models.CartItem{}}
}

func (f *fakeCartRepo) List(_ context.Context, accountID uuid.UUID) ([]models.CartItem, error) {
	return f.list(accountID), nil
}

func (f *fakeCartRepo) ListTx(_ *gorm.DB, accountID uuid.UUID) ([]models.CartItem, error) {
	return f.list(accountID), nil
}

func (f *fakeCartRepo) list(accountID uuid.UUID) []models.CartItem {
	var out []models.CartItem
	for _, row := range f.rows {
		if row.AccountID == accountID {
			out = append(out, *row)
		}
	}
	return out
}

func (f *fakeCartRepo) FindTx(_ *gorm.DB, accountID, artworkID uuid.UUID) (*models.CartItem, error) {
	for _, row := range f.rows {
		if row.AccountID == accountID && row.ArtworkID == artworkID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) InsertTx(_ *gorm.DB, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now()
	copied := *item
	f.rows[item.ID] = &copied
	return nil
}

func (f *fakeCartRepo) UpdateQuantityTx(_ *gorm.DB, id uuid.UUID, quantity int) error {
	if row, ok := f.rows[id]; ok {
		row.Quantity = quantity
	}
	return nil
}

func (f *fakeCartRepo) DeleteTx(_ *gorm.DB, accountID, artworkID uuid.UUID) error {
	for id, row := range f.rows {
		if row.AccountID == accountID && row.ArtworkID == artworkID {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeCartRepo) ClearTx(_ *gorm.DB, accountID uuid.UUID) error {
	for id, row := range f.rows {
		if row.AccountID == accountID {
			delete(f.rows, id)
		}
	}
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo accountCartRepository, store guestCartStore, artworks artworkFinder) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:       repo,
		GuestStore: store,
		Artworks:   artworks,
		Tx:         fakeTxRunner{},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testArtwork(title, price string) *models.Artwork {
	dec, _ := decimal.NewFromString(price)
	return &models.Artwork{
		ID:         uuid.New(),
		ArtistID:   uuid.New(),
		Title:      title,
		Price:      dec,
		ImageURL:   "https://cdn.example/art.jpg",
		ArtistName: "Vera Moss",
	}
}

func TestTotalLenientParsing(t *testing.T) {
	items := []ItemDTO{
		{Price: "120.50", Quantity: 2},
		{Price: "$1,000.00", Quantity: 1},
		{Price: "not-a-number", Quantity: 3},
		{Price: "15", Quantity: 0}, // below one counts as a single unit
	}

	got := Total(items)
	want := decimal.RequireFromString("1256.00")
	if !got.Equal(want) {
		t.Fatalf("Total = %s, want %s", got, want)
	}
}

func TestGuestAddItemBumpsQuantity(t *testing.T) {
	art := testArtwork("Blue Field", "250.00")
	svc := newTestService(t, newFakeCartRepo(), newFakeGuestStore(), &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{art.ID: art}})

	actor := Actor{GuestToken: "guest-abc"}
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, actor, AddItemRequest{ArtworkID: art.ID}); err != nil {
		t.Fatalf("first AddItem: %v", err)
	}
	cart, err := svc.AddItem(ctx, actor, AddItemRequest{ArtworkID: art.ID})
	if err != nil {
		t.Fatalf("second AddItem: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", cart.Items[0].Quantity)
	}
	if cart.Total != "500.00" {
		t.Fatalf("total = %s, want 500.00", cart.Total)
	}
}

func TestGuestSetQuantityBelowOneRemoves(t *testing.T) {
	art := testArtwork("Ash Grid", "40.00")
	svc := newTestService(t, newFakeCartRepo(), newFakeGuestStore(), &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{art.ID: art}})

	actor := Actor{GuestToken: "guest-xyz"}
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, actor, AddItemRequest{ArtworkID: art.ID}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := svc.SetQuantity(ctx, actor, SetQuantityRequest{ArtworkID: art.ID, Quantity: 0})
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Items))
	}
}

func TestAddItemUsesUntitledFallback(t *testing.T) {
	art := testArtwork("", "90.00")
	svc := newTestService(t, newFakeCartRepo(), newFakeGuestStore(), &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{art.ID: art}})

	cart, err := svc.AddItem(context.Background(), Actor{GuestToken: "guest-1"}, AddItemRequest{ArtworkID: art.ID})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if cart.Items[0].Title != "Untitled" {
		t.Fatalf("title = %q, want Untitled", cart.Items[0].Title)
	}
}

func TestAddItemUnknownArtwork(t *testing.T) {
	svc := newTestService(t, newFakeCartRepo(), newFakeGuestStore(), &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{}})

	if _, err := svc.AddItem(context.Background(), Actor{GuestToken: "guest-1"}, AddItemRequest{ArtworkID: uuid.New()}); err == nil {
		t.Fatal("expected not found error")
	}
}

func TestAccountAddItemBumpsQuantity(t *testing.T) {
	art := testArtwork("Red Arc", "300.00")
	repo := newFakeCartRepo()
	svc := newTestService(t, repo, newFakeGuestStore(), &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{art.ID: art}})

	actor := Actor{AccountID: uuid.New()}
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, actor, AddItemRequest{ArtworkID: art.ID}); err != nil {
		t.Fatalf("first AddItem: %v", err)
	}
	cart, err := svc.AddItem(ctx, actor, AddItemRequest{ArtworkID: art.ID})
	if err != nil {
		t.Fatalf("second AddItem: %v", err)
	}

	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart: %+v", cart.Items)
	}
}

func TestMergeGuestCartLargerQuantityWins(t *testing.T) {
	art := testArtwork("Dune Study", "75.00")
	other := testArtwork("Night Pier", "210.00")
	repo := newFakeCartRepo()
	store := newFakeGuestStore()
	svc := newTestService(t, repo, store, &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{art.ID: art, other.ID: other}})

	accountID := uuid.New()
	ctx := context.Background()

	// Account already has one unit of art.
	if err := repo.InsertTx(nil, &models.CartItem{
		AccountID: accountID,
		ArtworkID: art.ID,
		Title:     art.Title,
		Price:     "75.00",
		Quantity:  1,
	}); err != nil {
		t.Fatalf("seed account cart: %v", err)
	}

	store.docs["guest-merge"] = GuestDoc{Items: []ItemDTO{
		{ArtworkID: art.ID, Title: art.Title, Price: "75.00", Quantity: 3},
		{ArtworkID: other.ID, Title: other.Title, Price: "210.00", Quantity: 1},
	}}

	if err := svc.MergeGuestCart(ctx, accountID, "guest-merge"); err != nil {
		t.Fatalf("MergeGuestCart: %v", err)
	}

	cart, err := svc.GetCart(ctx, Actor{AccountID: accountID})
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("expected two lines after merge, got %d", len(cart.Items))
	}
	for _, item := range cart.Items {
		if item.ArtworkID == art.ID && item.Quantity != 3 {
			t.Fatalf("merged quantity = %d, want 3 (larger side wins)", item.Quantity)
		}
	}

	if _, ok := store.docs["guest-merge"]; ok {
		t.Fatal("guest document should be cleared after merge")
	}
}

func TestGuestGetCartRevalidatesSnapshots(t *testing.T) {
	art := testArtwork("Dawn Field", "180.00")
	store := newFakeGuestStore()
	svc := newTestService(t, newFakeCartRepo(), store, &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{art.ID: art}})

	goneID := uuid.New()
	store.docs["guest-stale"] = GuestDoc{Items: []ItemDTO{
		{ArtworkID: art.ID, Title: "Old Title", Price: "90.00", Quantity: 2},
		{ArtworkID: goneID, Title: "Deleted Piece", Price: "50.00", Quantity: 1},
	}}

	cart, err := svc.GetCart(context.Background(), Actor{GuestToken: "guest-stale"})
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected orphan line dropped, got %d lines", len(cart.Items))
	}
	if cart.Items[0].Title != "Dawn Field" || cart.Items[0].Price != "180" {
		t.Fatalf("snapshot not refreshed: %+v", cart.Items[0])
	}
	if cart.Items[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2 preserved across refresh", cart.Items[0].Quantity)
	}

	saved := store.docs["guest-stale"]
	if len(saved.Items) != 1 || saved.Items[0].Title != "Dawn Field" {
		t.Fatalf("refreshed document not persisted: %+v", saved.Items)
	}
}

func TestGetCartRequiresOwner(t *testing.T) {
	svc := newTestService(t, newFakeCartRepo(), newFakeGuestStore(), &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{}})

	if _, err := svc.GetCart(context.Background(), Actor{}); err == nil {
		t.Fatal("expected error for missing owner")
	}
}
