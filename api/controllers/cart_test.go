package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/muralhq/mural-backend/api/middleware"
	cartsvc "github.com/muralhq/mural-backend/internal/cart"
)

type stubCartService struct {
	cart      cartsvc.CartDTO
	lastActor cartsvc.Actor
	added     []uuid.UUID
	removed   []uuid.UUID
}

func (s *stubCartService) GetCart(_ context.Context, actor cartsvc.Actor) (cartsvc.CartDTO, error) {
	s.lastActor = actor
	return s.cart, nil
}

func (s *stubCartService) AddItem(_ context.Context, actor cartsvc.Actor, req cartsvc.AddItemRequest) (cartsvc.CartDTO, error) {
	s.lastActor = actor
	s.added = append(s.added, req.ArtworkID)
	return s.cart, nil
}

func (s *stubCartService) SetQuantity(_ context.Context, actor cartsvc.Actor, _ cartsvc.SetQuantityRequest) (cartsvc.CartDTO, error) {
	s.lastActor = actor
	return s.cart, nil
}

func (s *stubCartService) RemoveItem(_ context.Context, actor cartsvc.Actor, artworkID uuid.UUID) (cartsvc.CartDTO, error) {
	s.lastActor = actor
	s.removed = append(s.removed, artworkID)
	return s.cart, nil
}

func (s *stubCartService) Clear(_ context.Context, actor cartsvc.Actor) error {
	s.lastActor = actor
	return nil
}

func (s *stubCartService) MergeGuestCart(context.Context, uuid.UUID, string) error {
	return nil
}

func TestCartGetResolvesGuestActor(t *testing.T) {
	svc := &stubCartService{cart: cartsvc.CartDTO{Total: "0.00"}}
	handler := CartGet(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(middleware.WithGuestToken(req.Context(), "guest-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastActor.GuestToken != "guest-1" || !svc.lastActor.IsGuest() {
		t.Fatalf("actor = %+v, want guest", svc.lastActor)
	}
}

func TestCartGetPrefersAccountOverGuest(t *testing.T) {
	svc := &stubCartService{}
	handler := CartGet(svc, nil)
	accountID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	ctx := middleware.WithAccountID(req.Context(), accountID.String())
	ctx = middleware.WithGuestToken(ctx, "guest-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastActor.AccountID != accountID {
		t.Fatalf("actor = %+v, want account %s", svc.lastActor, accountID)
	}
}

func TestCartGetRejectsAnonymousRequest(t *testing.T) {
	handler := CartGet(&stubCartService{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCartAddItemDecodesBody(t *testing.T) {
	svc := &stubCartService{cart: cartsvc.CartDTO{Total: "150.00"}}
	handler := CartAddItem(svc, nil)
	artworkID := uuid.New()

	payload, _ := json.Marshal(map[string]string{"artwork_id": artworkID.String()})
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithGuestToken(req.Context(), "guest-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.added) != 1 || svc.added[0] != artworkID {
		t.Fatalf("added = %v", svc.added)
	}

	var envelope struct {
		Data cartsvc.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Total != "150.00" {
		t.Fatalf("total = %s", envelope.Data.Total)
	}
}

func TestCartRemoveItemParsesURLParam(t *testing.T) {
	svc := &stubCartService{}
	handler := CartRemoveItem(svc, nil)
	artworkID := uuid.New()

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("artworkID", artworkID.String())
	req := httptest.NewRequest(http.MethodDelete, "/cart/items/"+artworkID.String(), nil)
	ctx := middleware.WithGuestToken(req.Context(), "guest-1")
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if len(svc.removed) != 1 || svc.removed[0] != artworkID {
		t.Fatalf("removed = %v", svc.removed)
	}
}

func TestCartRemoveItemRejectsBadID(t *testing.T) {
	handler := CartRemoveItem(&stubCartService{}, nil)

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("artworkID", "not-a-uuid")
	req := httptest.NewRequest(http.MethodDelete, "/cart/items/not-a-uuid", nil)
	ctx := middleware.WithGuestToken(req.Context(), "guest-1")
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
