package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/muralhq/mural-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// Guests never receive JWTs; they carry opaque guest tokens instead.
type AccessTokenPayload struct {
	AccountID uuid.UUID
	Role      enums.ActorRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	AccountID uuid.UUID       `json:"account_id"`
	Role      enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
