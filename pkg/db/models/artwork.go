package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Artwork is the catalog source of truth; cart and favorite rows carry
// denormalized snapshots of it.
type Artwork struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID    uuid.UUID       `gorm:"column:artist_id;type:uuid;not null;index"`
	Title       string          `gorm:"column:title;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ImageURL    string          `gorm:"column:image_url;not null;default:''"`
	SizeLabel   *string         `gorm:"column:size_label"`
	Tags        pq.StringArray  `gorm:"column:tags;type:text[]"`
	// ArtistName mirrors the owning account's display name so listings render
	// without a join; the mutation relay keeps it current. The photo is only
	// re-snapshotted when the artwork row is written.
	ArtistName     string     `gorm:"column:artist_name;not null;default:''"`
	ArtistPhotoURL *string    `gorm:"column:artist_photo_url"`
	IsPublished    bool       `gorm:"column:is_published;not null;default:false"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
