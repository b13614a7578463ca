package models

import (
	"time"

	"github.com/google/uuid"
)

// FavoriteItem is a favorited artwork with its display snapshot.
type FavoriteItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID  uuid.UUID `gorm:"column:account_id;type:uuid;not null;uniqueIndex:ux_favorite_items_account_artwork"`
	ArtworkID  uuid.UUID `gorm:"column:artwork_id;type:uuid;not null;uniqueIndex:ux_favorite_items_account_artwork;index"`
	Title      string    `gorm:"column:title;not null"`
	Price      string    `gorm:"column:price;not null;default:''"`
	ImageURL   string    `gorm:"column:image_url;not null;default:''"`
	ArtistName string    `gorm:"column:artist_name;not null;default:''"`
	SizeLabel  *string   `gorm:"column:size_label"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
