package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/muralhq/mural-backend/pkg/db/models"
)

// Repository persists account-owned cart lines.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns all cart lines for the account ordered by insertion time.
func (r *Repository) List(ctx context.Context, accountID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// ListTx reads the account's lines inside an open transaction with row locks,
// so read-modify-write flows do not race concurrent mutations.
func (r *Repository) ListTx(tx *gorm.DB, accountID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// FindTx loads a single line by artwork, returning gorm.ErrRecordNotFound when absent.
func (r *Repository) FindTx(tx *gorm.DB, accountID, artworkID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ? AND artwork_id = ?", accountID, artworkID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// InsertTx appends a new line.
func (r *Repository) InsertTx(tx *gorm.DB, item *models.CartItem) error {
	return tx.Create(item).Error
}

// UpdateQuantityTx rewrites the quantity of an existing line.
func (r *Repository) UpdateQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int) error {
	return tx.Model(&models.CartItem{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

// DeleteTx removes the line for the given artwork.
func (r *Repository) DeleteTx(tx *gorm.DB, accountID, artworkID uuid.UUID) error {
	return tx.
		Where("account_id = ? AND artwork_id = ?", accountID, artworkID).
		Delete(&models.CartItem{}).Error
}

// ClearTx removes every line owned by the account.
func (r *Repository) ClearTx(tx *gorm.DB, accountID uuid.UUID) error {
	return tx.
		Where("account_id = ?", accountID).
		Delete(&models.CartItem{}).Error
}
