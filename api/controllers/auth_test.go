package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/muralhq/mural-backend/api/middleware"
	"github.com/muralhq/mural-backend/internal/auth"
	pkgAuth "github.com/muralhq/mural-backend/pkg/auth"
	"github.com/muralhq/mural-backend/pkg/auth/session"
	"github.com/muralhq/mural-backend/pkg/config"
	"github.com/muralhq/mural-backend/pkg/enums"
)

type stubAuthService struct {
	loggedOutAccessID string
	loggedOutGuest    string
	guestToken        string
}

func (s *stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (s *stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (s *stubAuthService) Refresh(context.Context, auth.RefreshRequest) (*auth.TokenPairResponse, error) {
	return &auth.TokenPairResponse{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
}

func (s *stubAuthService) Logout(_ context.Context, accessID, guestToken string) error {
	s.loggedOutAccessID = accessID
	s.loggedOutGuest = guestToken
	return nil
}

func (s *stubAuthService) ContinueAsGuest(context.Context) (*auth.GuestResponse, error) {
	return &auth.GuestResponse{GuestToken: s.guestToken}, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		AccountID: uuid.New(),
		Role:      enums.RoleCollector,
		JTI:       accessID,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return token, accessID
}

func TestAuthLogoutRevokesSessionAndGuestCart(t *testing.T) {
	cfg := testJWTConfig()
	svc := &stubAuthService{}
	handler := AuthLogout(svc, cfg, nil)

	token, jti := mintTestToken(t, cfg)
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(middleware.GuestTokenHeader, "guest-7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.loggedOutAccessID != jti {
		t.Fatalf("expected revoked %s got %s", jti, svc.loggedOutAccessID)
	}
	if svc.loggedOutGuest != "guest-7" {
		t.Fatalf("expected guest token forwarded, got %q", svc.loggedOutGuest)
	}
}

func TestAuthLogoutRequiresBearer(t *testing.T) {
	handler := AuthLogout(&stubAuthService{}, testJWTConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthContinueAsGuestSetsHeader(t *testing.T) {
	svc := &stubAuthService{guestToken: "guest-abc"}
	handler := AuthContinueAsGuest(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/guest", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get(middleware.GuestTokenHeader) != "guest-abc" {
		t.Fatalf("guest token header = %q", rec.Header().Get(middleware.GuestTokenHeader))
	}
}
