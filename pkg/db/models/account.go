package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/muralhq/mural-backend/pkg/enums"
)

// Account represents the canonical identity entity for collectors and artists.
type Account struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	DisplayName  string          `gorm:"column:display_name;not null"`
	Role         enums.ActorRole `gorm:"column:role;type:text;not null;default:'collector'"`
	Bio          *string         `gorm:"column:bio"`
	Location     *string         `gorm:"column:location"`
	PhotoURL     *string         `gorm:"column:photo_url"`
	// Artist profile fields; empty for collectors.
	ArtistStatement *string    `gorm:"column:artist_statement"`
	IsActive        bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt     *time.Time `gorm:"column:last_login_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsArtist reports whether the account may manage catalog artworks.
func (a *Account) IsArtist() bool {
	return a != nil && a.Role == enums.RoleArtist
}
