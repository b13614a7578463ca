package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem persists one artwork line in an account cart. Title, price and the
// other display fields are snapshots taken when the line was added; the price
// snapshot is stored as raw text and parsed leniently when totaling.
type CartItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID  uuid.UUID `gorm:"column:account_id;type:uuid;not null;uniqueIndex:ux_cart_items_account_artwork"`
	ArtworkID  uuid.UUID `gorm:"column:artwork_id;type:uuid;not null;uniqueIndex:ux_cart_items_account_artwork;index"`
	Title      string    `gorm:"column:title;not null"`
	Price      string    `gorm:"column:price;not null;default:''"`
	ImageURL   string    `gorm:"column:image_url;not null;default:''"`
	ArtistName string    `gorm:"column:artist_name;not null;default:''"`
	SizeLabel  *string   `gorm:"column:size_label"`
	Quantity   int       `gorm:"column:quantity;not null;default:1"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
