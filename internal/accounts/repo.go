package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/muralhq/mural-backend/pkg/db/models"
)

// Repository persists account rows and the artist-name fan-out that keeps
// denormalized snapshots consistent after a rename.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account.
func (r *Repository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// FindByID loads an account by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmail loads an account by its lowercase email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindForUpdateTx loads an account with a row lock inside a mutation tx.
func (r *Repository) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateTx applies the column updates to the account row.
func (r *Repository) UpdateTx(tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	return tx.Model(&models.Account{}).Where("id = ?", id).Updates(updates).Error
}

// UpdatePassword rewrites only the credential hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}

// UpdateLastLogin stamps the most recent successful login.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

// DeleteTx removes the account; FK cascades drop its artworks, cart lines,
// favorites and purchase records.
func (r *Repository) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Where("id = ?", id).Delete(&models.Account{}).Error
}

// ListArtworkIDsTx returns the catalog IDs owned by the artist.
func (r *Repository) ListArtworkIDsTx(tx *gorm.DB, artistID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.Model(&models.Artwork{}).
		Where("artist_id = ?", artistID).
		Pluck("id", &ids).Error
	return ids, err
}

// RenameArtistTx rewrites the denormalized artist name across the catalog and
// every cart/favorite snapshot referencing the artist's artworks. It returns
// rows touched per surface (artworks, cart_items, favorite_items).
func (r *Repository) RenameArtistTx(tx *gorm.DB, artistID uuid.UUID, name string) (int64, int64, int64, error) {
	artRes := tx.Model(&models.Artwork{}).
		Where("artist_id = ?", artistID).
		Update("artist_name", name)
	if artRes.Error != nil {
		return 0, 0, 0, artRes.Error
	}

	sub := tx.Model(&models.Artwork{}).Select("id").Where("artist_id = ?", artistID)

	cartRes := tx.Model(&models.CartItem{}).
		Where("artwork_id IN (?)", sub).
		Update("artist_name", name)
	if cartRes.Error != nil {
		return artRes.RowsAffected, 0, 0, cartRes.Error
	}

	favRes := tx.Model(&models.FavoriteItem{}).
		Where("artwork_id IN (?)", sub).
		Update("artist_name", name)
	if favRes.Error != nil {
		return artRes.RowsAffected, cartRes.RowsAffected, 0, favRes.Error
	}

	return artRes.RowsAffected, cartRes.RowsAffected, favRes.RowsAffected, nil
}

// DeleteSnapshotsForArtworksTx drops cart and favorite snapshots referencing
// any of the provided artworks. Used when an artist account is removed.
func (r *Repository) DeleteSnapshotsForArtworksTx(tx *gorm.DB, artworkIDs []uuid.UUID) (int64, int64, error) {
	if len(artworkIDs) == 0 {
		return 0, 0, nil
	}
	cartRes := tx.Where("artwork_id IN ?", artworkIDs).Delete(&models.CartItem{})
	if cartRes.Error != nil {
		return 0, 0, cartRes.Error
	}
	favRes := tx.Where("artwork_id IN ?", artworkIDs).Delete(&models.FavoriteItem{})
	if favRes.Error != nil {
		return cartRes.RowsAffected, 0, favRes.Error
	}
	return cartRes.RowsAffected, favRes.RowsAffected, nil
}
