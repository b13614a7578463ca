package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/muralhq/mural-backend/pkg/db/models"
	"github.com/muralhq/mural-backend/pkg/pagination"
)

func setupPurchasesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS purchase_records (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  artwork_id TEXT NOT NULL,
  title TEXT NOT NULL,
  price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  image_url TEXT NOT NULL DEFAULT '',
  artist_name TEXT NOT NULL DEFAULT '',
  purchased_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedRecord(t *testing.T, db *gorm.DB, accountID uuid.UUID, title string, createdAt time.Time) models.PurchaseRecord {
	t.Helper()
	record := models.PurchaseRecord{
		ID:          uuid.New(),
		AccountID:   accountID,
		ArtworkID:   uuid.New(),
		Title:       title,
		Price:       decimal.NewFromInt(100),
		Quantity:    1,
		PurchasedAt: createdAt,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(&record).Error)
	return record
}

func TestListHistoryPagesNewestFirst(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)
	accountID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	oldest := seedRecord(t, db, accountID, "First", base)
	middle := seedRecord(t, db, accountID, "Second", base.Add(time.Hour))
	newest := seedRecord(t, db, accountID, "Third", base.Add(2*time.Hour))
	seedRecord(t, db, uuid.New(), "Other account", base.Add(3*time.Hour))

	rows, err := repo.ListHistory(context.Background(), accountID, nil, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newest.ID, rows[0].ID)
	assert.Equal(t, middle.ID, rows[1].ID)

	cursor := &pagination.Cursor{CreatedAt: rows[1].CreatedAt, ID: rows[1].ID}
	rest, err := repo.ListHistory(context.Background(), accountID, cursor, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, oldest.ID, rest[0].ID)
}

func TestInsertTxSkipsEmptyBatch(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.InsertTx(db, nil))

	var count int64
	require.NoError(t, db.Model(&models.PurchaseRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}
