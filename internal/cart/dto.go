package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/muralhq/mural-backend/pkg/db/models"
)

// Actor identifies the cart owner: an authenticated account or an anonymous
// guest token. Exactly one of the two is set.
type Actor struct {
	AccountID  uuid.UUID
	GuestToken string
}

// IsGuest reports whether the cart lives in Redis rather than Postgres.
func (a Actor) IsGuest() bool {
	return a.AccountID == uuid.Nil
}

// AddItemRequest carries the artwork to add. The display snapshot is taken
// server-side from the catalog row at add time.
type AddItemRequest struct {
	ArtworkID uuid.UUID `json:"artwork_id" validate:"required"`
}

// SetQuantityRequest carries the target quantity for an existing line.
type SetQuantityRequest struct {
	ArtworkID uuid.UUID `json:"artwork_id" validate:"required"`
	Quantity  int       `json:"quantity"`
}

// ItemDTO is one cart line as rendered to clients.
type ItemDTO struct {
	ArtworkID  uuid.UUID `json:"artwork_id"`
	Title      string    `json:"title"`
	Price      string    `json:"price"`
	ImageURL   string    `json:"image_url"`
	ArtistName string    `json:"artist_name"`
	SizeLabel  *string   `json:"size_label,omitempty"`
	Quantity   int       `json:"quantity"`
	AddedAt    time.Time `json:"added_at"`
}

// CartDTO is the full cart with its computed total.
type CartDTO struct {
	Items     []ItemDTO `json:"items"`
	ItemCount int       `json:"item_count"`
	Total     string    `json:"total"`
}

func itemFromModel(m models.CartItem) ItemDTO {
	return ItemDTO{
		ArtworkID:  m.ArtworkID,
		Title:      m.Title,
		Price:      m.Price,
		ImageURL:   m.ImageURL,
		ArtistName: m.ArtistName,
		SizeLabel:  m.SizeLabel,
		Quantity:   m.Quantity,
		AddedAt:    m.CreatedAt,
	}
}

func cartFromItems(items []ItemDTO) CartDTO {
	count := 0
	for _, item := range items {
		count += normalizeQuantity(item.Quantity)
	}
	return CartDTO{
		Items:     items,
		ItemCount: count,
		Total:     Total(items).StringFixed(2),
	}
}
