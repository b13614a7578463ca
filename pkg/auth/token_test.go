package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/muralhq/mural-backend/pkg/config"
	"github.com/muralhq/mural-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "mural-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	accountID := uuid.New()
	signed, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		AccountID: accountID,
		Role:      enums.RoleArtist,
		JTI:       "jti-123",
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}

	claims, err := ParseAccessToken(testJWTConfig(), signed)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if claims.AccountID != accountID {
		t.Fatalf("account id mismatch: %s", claims.AccountID)
	}
	if claims.Role != enums.RoleArtist {
		t.Fatalf("role mismatch: %s", claims.Role)
	}
	if claims.ID != "jti-123" {
		t.Fatalf("jti mismatch: %s", claims.ID)
	}
}

func TestMintAccessTokenRejectsInvalidRole(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		AccountID: uuid.New(),
		Role:      enums.ActorRole("admin"),
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	signed, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		AccountID: uuid.New(),
		Role:      enums.RoleCollector,
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}

	badCfg := testJWTConfig()
	badCfg.Secret = "other-secret"
	if _, err := ParseAccessToken(badCfg, signed); err == nil {
		t.Fatal("expected signature validation failure")
	}
}

func TestParseAccessTokenAllowExpired(t *testing.T) {
	cfg := testJWTConfig()
	issued := time.Now().Add(-2 * time.Hour)
	signed, err := MintAccessToken(cfg, issued, AccessTokenPayload{
		AccountID: uuid.New(),
		Role:      enums.RoleCollector,
		JTI:       "expired-jti",
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}

	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to fail strict parsing")
	}

	claims, err := ParseAccessTokenAllowExpired(cfg, signed)
	if err != nil {
		t.Fatalf("ParseAccessTokenAllowExpired returned error: %v", err)
	}
	if claims.ID != "expired-jti" {
		t.Fatalf("jti mismatch: %s", claims.ID)
	}
}
