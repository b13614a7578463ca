package favorites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/muralhq/mural-backend/pkg/db/models"
)

// Repository persists favorite snapshots per account.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns the account's favorites, newest first.
func (r *Repository) List(ctx context.Context, accountID uuid.UUID) ([]models.FavoriteItem, error) {
	var items []models.FavoriteItem
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

// FindTx loads the favorite row for the artwork under a row lock.
func (r *Repository) FindTx(tx *gorm.DB, accountID, artworkID uuid.UUID) (*models.FavoriteItem, error) {
	var item models.FavoriteItem
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ? AND artwork_id = ?", accountID, artworkID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// InsertTx appends a favorite row.
func (r *Repository) InsertTx(tx *gorm.DB, item *models.FavoriteItem) error {
	return tx.Create(item).Error
}

// DeleteTx drops the favorite row for the artwork.
func (r *Repository) DeleteTx(tx *gorm.DB, accountID, artworkID uuid.UUID) error {
	return tx.
		Where("account_id = ? AND artwork_id = ?", accountID, artworkID).
		Delete(&models.FavoriteItem{}).Error
}

// Exists reports whether the account has favorited the artwork.
func (r *Repository) Exists(ctx context.Context, accountID, artworkID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FavoriteItem{}).
		Where("account_id = ? AND artwork_id = ?", accountID, artworkID).
		Count(&count).Error
	return count > 0, err
}
