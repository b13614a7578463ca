package favorites

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/muralhq/mural-backend/pkg/db/models"
)

type fakeRepo struct {
	rows map[uuid.UUID]*models.FavoriteItem
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[uuid.UUID]*models.FavoriteItem{}}
}

func (f *fakeRepo) List(_ context.Context, accountID uuid.UUID) ([]models.FavoriteItem, error) {
	var out []models.FavoriteItem
	for _, row := range f.rows {
		if row.AccountID == accountID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindTx(_ *gorm.DB, accountID, artworkID uuid.UUID) (*models.FavoriteItem, error) {
	for _, row := range f.rows {
		if row.AccountID == accountID && row.ArtworkID == artworkID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) InsertTx(_ *gorm.DB, item *models.FavoriteItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now()
	copied := *item
	f.rows[item.ID] = &copied
	return nil
}

func (f *fakeRepo) DeleteTx(_ *gorm.DB, accountID, artworkID uuid.UUID) error {
	for id, row := range f.rows {
		if row.AccountID == accountID && row.ArtworkID == artworkID {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeRepo) Exists(_ context.Context, accountID, artworkID uuid.UUID) (bool, error) {
	for _, row := range f.rows {
		if row.AccountID == accountID && row.ArtworkID == artworkID {
			return true, nil
		}
	}
	return false, nil
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

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo favoriteRepository, artworks artworkFinder) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Artworks: artworks, Tx: fakeTxRunner{}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestToggleAddsThenRemoves(t *testing.T) {
	art := &models.Artwork{
		ID:         uuid.New(),
		Title:      "Glass Harbor",
		Price:      decimal.RequireFromString("420.00"),
		ArtistName: "Iris Chen",
	}
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{art.ID: art}})

	accountID := uuid.New()
	ctx := context.Background()

	first, err := svc.Toggle(ctx, accountID, art.ID)
	if err != nil {
		t.Fatalf("first Toggle: %v", err)
	}
	if !first.Favorited {
		t.Fatal("first toggle should favorite")
	}

	favorited, err := svc.IsFavorited(ctx, accountID, art.ID)
	if err != nil || !favorited {
		t.Fatalf("IsFavorited = %v, %v; want true", favorited, err)
	}

	second, err := svc.Toggle(ctx, accountID, art.ID)
	if err != nil {
		t.Fatalf("second Toggle: %v", err)
	}
	if second.Favorited {
		t.Fatal("second toggle should unfavorite")
	}

	list, err := svc.List(ctx, accountID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Count != 0 {
		t.Fatalf("expected empty favorites, got %d", list.Count)
	}
}

func TestToggleSnapshotsArtwork(t *testing.T) {
	size := "60x80"
	art := &models.Artwork{
		ID:         uuid.New(),
		Title:      "",
		Price:      decimal.RequireFromString("99.99"),
		ImageURL:   "https://cdn.example/a.jpg",
		ArtistName: "Iris Chen",
		SizeLabel:  &size,
	}
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{art.ID: art}})

	accountID := uuid.New()
	if _, err := svc.Toggle(context.Background(), accountID, art.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	list, err := svc.List(context.Background(), accountID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected one favorite, got %d", len(list.Items))
	}
	item := list.Items[0]
	if item.Title != "Untitled" {
		t.Fatalf("title = %q, want Untitled fallback", item.Title)
	}
	if item.Price != "99.99" {
		t.Fatalf("price snapshot = %q, want 99.99", item.Price)
	}
	if item.SizeLabel == nil || *item.SizeLabel != "60x80" {
		t.Fatalf("size label snapshot = %v, want 60x80", item.SizeLabel)
	}
}

func TestToggleUnknownArtwork(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{}})

	if _, err := svc.Toggle(context.Background(), uuid.New(), uuid.New()); err == nil {
		t.Fatal("expected not found error")
	}
}

func TestToggleRequiresAccount(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeArtworks{byID: map[uuid.UUID]*models.Artwork{}})

	if _, err := svc.Toggle(context.Background(), uuid.Nil, uuid.New()); err == nil {
		t.Fatal("expected error for missing account")
	}
}
