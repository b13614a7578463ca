package artworks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/muralhq/mural-backend/pkg/db/models"
	"github.com/muralhq/mural-backend/pkg/pagination"
)

// Repository persists catalog rows and the denormalized snapshots that
// reference them.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a new catalog row inside an open transaction.
func (r *Repository) CreateTx(tx *gorm.DB, artwork *models.Artwork) error {
	return tx.Create(artwork).Error
}

// FindByID loads a catalog row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&artwork).Error
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

// FindForUpdateTx loads a catalog row with a row lock inside a mutation tx.
func (r *Repository) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&artwork).Error
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

// UpdateTx applies the column updates to a catalog row.
func (r *Repository) UpdateTx(tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	return tx.Model(&models.Artwork{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteTx removes the catalog row.
func (r *Repository) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Where("id = ?", id).Delete(&models.Artwork{}).Error
}

// ListPublished returns a page of published catalog entries, newest first,
// keyed by (created_at, id) cursor.
func (r *Repository) ListPublished(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Artwork, error) {
	query := r.db.WithContext(ctx).Where("is_published = ?", true)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var rows []models.Artwork
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListByArtist returns every catalog entry owned by the artist, drafts included.
func (r *Repository) ListByArtist(ctx context.Context, artistID uuid.UUID) ([]models.Artwork, error) {
	var rows []models.Artwork
	err := r.db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// UpdateCartSnapshotsTx rewrites the denormalized cart lines that reference
// the artwork and reports how many rows were touched.
func (r *Repository) UpdateCartSnapshotsTx(tx *gorm.DB, artworkID uuid.UUID, updates map[string]any) (int64, error) {
	result := tx.Model(&models.CartItem{}).
		Where("artwork_id = ?", artworkID).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// UpdateFavoriteSnapshotsTx rewrites the favorite snapshots referencing the artwork.
func (r *Repository) UpdateFavoriteSnapshotsTx(tx *gorm.DB, artworkID uuid.UUID, updates map[string]any) (int64, error) {
	result := tx.Model(&models.FavoriteItem{}).
		Where("artwork_id = ?", artworkID).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// DeleteCartSnapshotsTx removes cart lines referencing the artwork.
func (r *Repository) DeleteCartSnapshotsTx(tx *gorm.DB, artworkID uuid.UUID) (int64, error) {
	result := tx.Where("artwork_id = ?", artworkID).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// DeleteFavoriteSnapshotsTx removes favorite rows referencing the artwork.
func (r *Repository) DeleteFavoriteSnapshotsTx(tx *gorm.DB, artworkID uuid.UUID) (int64, error) {
	result := tx.Where("artwork_id = ?", artworkID).Delete(&models.FavoriteItem{})
	return result.RowsAffected, result.Error
}
