package purchases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muralhq/mural-backend/pkg/db/models"
	"github.com/muralhq/mural-backend/pkg/pagination"
)

// Repository persists the append-only purchase history.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertTx appends the purchase rows inside the checkout transaction.
func (r *Repository) InsertTx(tx *gorm.DB, records []models.PurchaseRecord) error {
	if len(records) == 0 {
		return nil
	}
	return tx.Create(&records).Error
}

// ListHistory pages through the account's purchases, newest first.
func (r *Repository) ListHistory(ctx context.Context, accountID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.PurchaseRecord, error) {
	query := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var rows []models.PurchaseRecord
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
