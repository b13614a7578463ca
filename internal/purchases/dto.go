package purchases

import (
	"time"

	"github.com/google/uuid"

	"github.com/muralhq/mural-backend/pkg/db/models"
)

// RecordDTO is one purchase history line.
type RecordDTO struct {
	ID          uuid.UUID `json:"id"`
	ArtworkID   uuid.UUID `json:"artwork_id"`
	Title       string    `json:"title"`
	Price       string    `json:"price"`
	Quantity    int       `json:"quantity"`
	ImageURL    string    `json:"image_url"`
	ArtistName  string    `json:"artist_name"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// CheckoutResponse is the receipt returned after a checkout.
type CheckoutResponse struct {
	Items    []RecordDTO `json:"items"`
	Total    string      `json:"total"`
	Recorded bool        `json:"recorded"`
}

// HistoryPageDTO is one page of purchase history with an opaque cursor.
type HistoryPageDTO struct {
	Items      []RecordDTO `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// PurchaseEventPayload is the outbox data emitted when a checkout is recorded.
type PurchaseEventPayload struct {
	AccountID uuid.UUID   `json:"account_id"`
	Items     []RecordDTO `json:"items"`
	Total     string      `json:"total"`
}

func recordFromModel(m models.PurchaseRecord) RecordDTO {
	return RecordDTO{
		ID:          m.ID,
		ArtworkID:   m.ArtworkID,
		Title:       m.Title,
		Price:       m.Price.String(),
		Quantity:    m.Quantity,
		ImageURL:    m.ImageURL,
		ArtistName:  m.ArtistName,
		PurchasedAt: m.PurchasedAt,
	}
}
