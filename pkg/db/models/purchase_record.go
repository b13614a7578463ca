package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseRecord is an append-only line in an account's purchase history.
// Unlike cart snapshots the price here is coerced to a decimal at checkout.
type PurchaseRecord struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID   uuid.UUID       `gorm:"column:account_id;type:uuid;not null;index"`
	ArtworkID   uuid.UUID       `gorm:"column:artwork_id;type:uuid;not null"`
	Title       string          `gorm:"column:title;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null;default:1"`
	ImageURL    string          `gorm:"column:image_url;not null;default:''"`
	ArtistName  string          `gorm:"column:artist_name;not null;default:''"`
	PurchasedAt time.Time       `gorm:"column:purchased_at;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
