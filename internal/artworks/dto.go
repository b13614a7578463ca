package artworks

import (
	"time"

	"github.com/google/uuid"

	"github.com/muralhq/mural-backend/pkg/db/models"
)

// CreateArtworkRequest is the payload for publishing a new catalog entry.
type CreateArtworkRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description *string  `json:"description,omitempty"`
	Price       string   `json:"price" validate:"required"`
	ImageURL    string   `json:"image_url"`
	SizeLabel   *string  `json:"size_label,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Publish     bool     `json:"publish"`
}

// UpdateArtworkRequest carries partial catalog edits; nil fields are untouched.
type UpdateArtworkRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty"`
	Price       *string  `json:"price,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	SizeLabel   *string  `json:"size_label,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Publish     *bool    `json:"publish,omitempty"`
}

// ArtworkDTO is the catalog entry as rendered to clients.
type ArtworkDTO struct {
	ID             uuid.UUID  `json:"id"`
	ArtistID       uuid.UUID  `json:"artist_id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	Price          string     `json:"price"`
	ImageURL       string     `json:"image_url"`
	SizeLabel      *string    `json:"size_label,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	ArtistName     string     `json:"artist_name"`
	ArtistPhotoURL *string    `json:"artist_photo_url,omitempty"`
	IsPublished    bool       `json:"is_published"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PageDTO is one page of catalog entries with an opaque cursor.
type PageDTO struct {
	Items      []ArtworkDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ArtworkEventPayload is the outbox data emitted on catalog mutations.
type ArtworkEventPayload struct {
	ArtworkID  uuid.UUID `json:"artwork_id"`
	ArtistID   uuid.UUID `json:"artist_id"`
	Title      string    `json:"title"`
	Price      string    `json:"price"`
	CartRows   int64     `json:"cart_rows"`
	FavRows    int64     `json:"favorite_rows"`
}

// FromModel converts a catalog row into its DTO.
func FromModel(m *models.Artwork) ArtworkDTO {
	return ArtworkDTO{
		ID:             m.ID,
		ArtistID:       m.ArtistID,
		Title:          m.Title,
		Description:    m.Description,
		Price:          m.Price.String(),
		ImageURL:       m.ImageURL,
		SizeLabel:      m.SizeLabel,
		Tags:           []string(m.Tags),
		ArtistName:     m.ArtistName,
		ArtistPhotoURL: m.ArtistPhotoURL,
		IsPublished:    m.IsPublished,
		PublishedAt:    m.PublishedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
