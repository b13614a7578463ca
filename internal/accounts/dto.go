package accounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/muralhq/mural-backend/pkg/db/models"
	"github.com/muralhq/mural-backend/pkg/enums"
)

// ProfileDTO is the account as rendered to its owner.
type ProfileDTO struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	DisplayName     string          `json:"display_name"`
	Role            enums.ActorRole `json:"role"`
	Bio             *string         `json:"bio,omitempty"`
	Location        *string         `json:"location,omitempty"`
	PhotoURL        *string         `json:"photo_url,omitempty"`
	ArtistStatement *string         `json:"artist_statement,omitempty"`
	LastLoginAt     *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// UpdateProfileRequest carries partial profile edits; nil fields are untouched.
type UpdateProfileRequest struct {
	DisplayName     *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=100"`
	Bio             *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Location        *string `json:"location,omitempty" validate:"omitempty,max=200"`
	PhotoURL        *string `json:"photo_url,omitempty" validate:"omitempty,max=1000"`
	ArtistStatement *string `json:"artist_statement,omitempty" validate:"omitempty,max=4000"`
}

// ChangePasswordRequest rotates the account credential.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// DeleteAccountRequest re-proves the credential before the account is removed.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// AccountEventPayload is the outbox data emitted on account lifecycle events.
type AccountEventPayload struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// FromModel converts an account row into its profile DTO.
func FromModel(m *models.Account) ProfileDTO {
	return ProfileDTO{
		ID:              m.ID,
		Email:           m.Email,
		DisplayName:     m.DisplayName,
		Role:            m.Role,
		Bio:             m.Bio,
		Location:        m.Location,
		PhotoURL:        m.PhotoURL,
		ArtistStatement: m.ArtistStatement,
		LastLoginAt:     m.LastLoginAt,
		CreatedAt:       m.CreatedAt,
	}
}
