package auth

import (
	"github.com/muralhq/mural-backend/internal/accounts"
)

// RegisterRequest creates a new account. GuestToken, when present, folds the
// anonymous cart into the new account.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
	Role        string `json:"role,omitempty"`
	GuestToken  string `json:"guest_token,omitempty"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	GuestToken string `json:"guest_token,omitempty"`
}

// RefreshRequest rotates the session using the expired access token's jti.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse carries a fresh token pair plus the account profile.
type AuthResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	Account      accounts.ProfileDTO `json:"account"`
}

// TokenPairResponse is the refresh result.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// GuestResponse hands out an opaque token for anonymous browsing.
type GuestResponse struct {
	GuestToken string `json:"guest_token"`
}
