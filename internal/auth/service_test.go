package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/muralhq/mural-backend/pkg/auth"
	"github.com/muralhq/mural-backend/pkg/auth/session"
	"github.com/muralhq/mural-backend/pkg/config"
	"github.com/muralhq/mural-backend/pkg/db/models"
	"github.com/muralhq/mural-backend/pkg/enums"
	pkgerrors "github.com/muralhq/mural-backend/pkg/errors"
	"github.com/muralhq/mural-backend/pkg/security"
)

func testJWTCfg() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "mural-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 120,
	}
}

func testPasswordCfg() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
		MinLength:        8,
	}
}

type fakeAccountRepo struct {
	byEmail map[string]*models.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byEmail: map[string]*models.Account{}}
}

func (f *fakeAccountRepo) Create(_ context.Context, account *models.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	copied := *account
	f.byEmail[account.Email] = &copied
	return nil
}

func (f *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	acct, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *acct
	return &copied, nil
}

func (f *fakeAccountRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, acct := range f.byEmail {
		if acct.ID == id {
			acct.LastLoginAt = &at
		}
	}
	return nil
}

type fakeSessionManager struct {
	generated map[string]string // accessID -> refresh
	revoked   []string
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{generated: map[string]string{}}
}

func (f *fakeSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.generated[accessID] = token
	return token, nil
}

func (f *fakeSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.generated[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.generated, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	f.generated[newID] = token
	return newID, token, nil
}

func (f *fakeSessionManager) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	delete(f.generated, accessID)
	return nil
}

type fakeCartMerger struct {
	merged []string
}

func (f *fakeCartMerger) MergeGuestCart(_ context.Context, _ uuid.UUID, guestToken string) error {
	f.merged = append(f.merged, guestToken)
	return nil
}

type fakeGuestCleaner struct {
	cleared []string
}

func (f *fakeGuestCleaner) Clear(_ context.Context, guestToken string) error {
	f.cleared = append(f.cleared, guestToken)
	return nil
}

type testHarness struct {
	svc     Service
	repo    *fakeAccountRepo
	session *fakeSessionManager
	merger  *fakeCartMerger
	cleaner *fakeGuestCleaner
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		repo:    newFakeAccountRepo(),
		session: newFakeSessionManager(),
		merger:  &fakeCartMerger{},
		cleaner: &fakeGuestCleaner{},
	}
	svc, err := NewService(ServiceParams{
		AccountRepo:    h.repo,
		SessionManager: h.session,
		CartMerger:     h.merger,
		GuestCarts:     h.cleaner,
		JWTConfig:      testJWTCfg(),
		PasswordConfig: testPasswordCfg(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	h.svc = svc
	return h
}

func (h *testHarness) seedAccount(t *testing.T, email, password string, role enums.ActorRole) *models.Account {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordCfg())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	acct := &models.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Seeded",
		Role:         role,
		IsActive:     true,
	}
	h.repo.byEmail[email] = acct
	return acct
}

func TestRegisterIssuesTokensAndMergesGuestCart(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Register(context.Background(), RegisterRequest{
		Email:       "  NEW@Example.com ",
		Password:    "longenough",
		DisplayName: "New Collector",
		GuestToken:  "guest-123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}
	if resp.Account.Email != "new@example.com" {
		t.Fatalf("email = %q, want normalized lowercase", resp.Account.Email)
	}
	if resp.Account.Role != enums.RoleCollector {
		t.Fatalf("role = %q, want collector default", resp.Account.Role)
	}
	if len(h.merger.merged) != 1 || h.merger.merged[0] != "guest-123" {
		t.Fatalf("guest cart merge calls = %v", h.merger.merged)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTCfg(), resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.AccountID != resp.Account.ID {
		t.Fatal("claims should carry the new account id")
	}
}

func TestRegisterRejectsShortPasswordAndDuplicateEmail(t *testing.T) {
	h := newHarness(t)
	h.seedAccount(t, "taken@example.com", "longenough", enums.RoleCollector)

	_, err := h.svc.Register(context.Background(), RegisterRequest{
		Email: "x@example.com", Password: "short", DisplayName: "X",
	})
	if err == nil {
		t.Fatal("expected short password rejection")
	}

	_, err = h.svc.Register(context.Background(), RegisterRequest{
		Email: "taken@example.com", Password: "longenough", DisplayName: "X",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterArtistRole(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Register(context.Background(), RegisterRequest{
		Email: "artist@example.com", Password: "longenough", DisplayName: "A", Role: "artist",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.Account.Role != enums.RoleArtist {
		t.Fatalf("role = %q, want artist", resp.Account.Role)
	}

	if _, err := h.svc.Register(context.Background(), RegisterRequest{
		Email: "bad@example.com", Password: "longenough", DisplayName: "B", Role: "admin",
	}); err == nil {
		t.Fatal("unknown role should be rejected")
	}
}

func TestLoginAuthenticatesAndStampsLastLogin(t *testing.T) {
	h := newHarness(t)
	acct := h.seedAccount(t, "vera@example.com", "correct-horse", enums.RoleCollector)

	resp, err := h.svc.Login(context.Background(), LoginRequest{
		Email: "Vera@Example.com", Password: "correct-horse", GuestToken: "guest-9",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Account.ID != acct.ID {
		t.Fatal("wrong account returned")
	}
	if h.repo.byEmail["vera@example.com"].LastLoginAt == nil {
		t.Fatal("last login should be stamped")
	}
	if len(h.merger.merged) != 1 {
		t.Fatal("guest cart should be merged on login")
	}
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	h := newHarness(t)
	h.seedAccount(t, "vera@example.com", "correct-horse", enums.RoleCollector)

	cases := []LoginRequest{
		{Email: "vera@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "correct-horse"},
	}
	for _, req := range cases {
		_, err := h.svc.Login(context.Background(), req)
		if err == nil {
			t.Fatalf("expected rejection for %q", req.Email)
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
		if !strings.Contains(typed.Message(), invalidCredentialsMessage) {
			t.Fatalf("message %q should not leak which check failed", typed.Message())
		}
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	h := newHarness(t)
	acct := h.seedAccount(t, "gone@example.com", "correct-horse", enums.RoleCollector)
	acct.IsActive = false

	if _, err := h.svc.Login(context.Background(), LoginRequest{Email: "gone@example.com", Password: "correct-horse"}); err == nil {
		t.Fatal("inactive account should not sign in")
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	h := newHarness(t)
	h.seedAccount(t, "vera@example.com", "correct-horse", enums.RoleCollector)

	login, err := h.svc.Login(context.Background(), LoginRequest{Email: "vera@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	pair, err := h.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if pair.AccessToken == login.AccessToken {
		t.Fatal("refresh should mint a new access token")
	}

	// The old refresh token is single-use.
	if _, err := h.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	}); err == nil {
		t.Fatal("replayed refresh token should be rejected")
	}
}

func TestLogoutRevokesSessionAndClearsGuestCart(t *testing.T) {
	h := newHarness(t)

	if err := h.svc.Logout(context.Background(), "access-1", "guest-z"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(h.session.revoked) != 1 || h.session.revoked[0] != "access-1" {
		t.Fatalf("revoked = %v", h.session.revoked)
	}
	if len(h.cleaner.cleared) != 1 || h.cleaner.cleared[0] != "guest-z" {
		t.Fatalf("cleared = %v", h.cleaner.cleared)
	}
}

func TestContinueAsGuestMintsOpaqueToken(t *testing.T) {
	h := newHarness(t)

	first, err := h.svc.ContinueAsGuest(context.Background())
	if err != nil {
		t.Fatalf("ContinueAsGuest: %v", err)
	}
	second, err := h.svc.ContinueAsGuest(context.Background())
	if err != nil {
		t.Fatalf("ContinueAsGuest: %v", err)
	}
	if first.GuestToken == "" || first.GuestToken == second.GuestToken {
		t.Fatal("guest tokens must be unique")
	}
	if strings.Count(first.GuestToken, ".") == 2 {
		t.Fatal("guest token must not look like a JWT")
	}
}
