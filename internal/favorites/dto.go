package favorites

import (
	"time"

	"github.com/google/uuid"

	"github.com/muralhq/mural-backend/pkg/db/models"
)

// ItemDTO is one favorited artwork with its display snapshot.
type ItemDTO struct {
	ArtworkID  uuid.UUID `json:"artwork_id"`
	Title      string    `json:"title"`
	Price      string    `json:"price"`
	ImageURL   string    `json:"image_url"`
	ArtistName string    `json:"artist_name"`
	SizeLabel  *string   `json:"size_label,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

// ListDTO is the full favorites list for an account.
type ListDTO struct {
	Items []ItemDTO `json:"items"`
	Count int       `json:"count"`
}

// ToggleDTO reports the post-toggle state of an artwork.
type ToggleDTO struct {
	ArtworkID uuid.UUID `json:"artwork_id"`
	Favorited bool      `json:"favorited"`
}

func itemFromModel(m models.FavoriteItem) ItemDTO {
	return ItemDTO{
		ArtworkID:  m.ArtworkID,
		Title:      m.Title,
		Price:      m.Price,
		ImageURL:   m.ImageURL,
		ArtistName: m.ArtistName,
		SizeLabel:  m.SizeLabel,
		AddedAt:    m.CreatedAt,
	}
}
