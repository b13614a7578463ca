package artworks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/muralhq/mural-backend/pkg/db/models"
	"github.com/muralhq/mural-backend/pkg/enums"
	pkgerrors "github.com/muralhq/mural-backend/pkg/errors"
	"github.com/muralhq/mural-backend/pkg/logger"
	"github.com/muralhq/mural-backend/pkg/metrics"
	"github.com/muralhq/mural-backend/pkg/outbox"
	"github.com/muralhq/mural-backend/pkg/pagination"
)

const untitledFallback = "Untitled"

// Service exposes catalog management plus read paths for the storefront.
// Catalog mutations fan out to the cart and favorite snapshots that reference
// the artwork inside the same transaction.
type Service interface {
	Create(ctx context.Context, artistID uuid.UUID, req CreateArtworkRequest) (ArtworkDTO, error)
	Get(ctx context.Context, viewerID, artworkID uuid.UUID) (ArtworkDTO, error)
	ListPublished(ctx context.Context, params pagination.Params) (PageDTO, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID) (PageDTO, error)
	Update(ctx context.Context, artistID, artworkID uuid.UUID, req UpdateArtworkRequest) (ArtworkDTO, error)
	Delete(ctx context.Context, artistID, artworkID uuid.UUID) error
}

type catalogRepository interface {
	CreateTx(tx *gorm.DB, artwork *models.Artwork) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Artwork, error)
	UpdateTx(tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	ListPublished(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Artwork, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID) ([]models.Artwork, error)
	UpdateCartSnapshotsTx(tx *gorm.DB, artworkID uuid.UUID, updates map[string]any) (int64, error)
	UpdateFavoriteSnapshotsTx(tx *gorm.DB, artworkID uuid.UUID, updates map[string]any) (int64, error)
	DeleteCartSnapshotsTx(tx *gorm.DB, artworkID uuid.UUID) (int64, error)
	DeleteFavoriteSnapshotsTx(tx *gorm.DB, artworkID uuid.UUID) (int64, error)
}

type accountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the dependencies for the catalog service.
type ServiceParams struct {
	Repo     catalogRepository
	Accounts accountFinder
	Outbox   eventEmitter
	Tx       txRunner
	Metrics  *metrics.RelayMetrics
	Logger   *logger.Logger
}

type service struct {
	repo     catalogRepository
	accounts accountFinder
	outbox   eventEmitter
	tx       txRunner
	metrics  *metrics.RelayMetrics
	logg     *logger.Logger
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	if params.Accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	return &service{
		repo:     params.Repo,
		accounts: params.Accounts,
		outbox:   params.Outbox,
		tx:       params.Tx,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Create inserts a catalog row owned by the artist. The owning account's
// display name is denormalized onto the row so listings render without a join.
func (s *service) Create(ctx context.Context, artistID uuid.UUID, req CreateArtworkRequest) (ArtworkDTO, error) {
	artist, err := s.requireArtist(ctx, artistID)
	if err != nil {
		return ArtworkDTO{}, err
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		return ArtworkDTO{}, err
	}

	row := models.Artwork{
		ArtistID:       artistID,
		Title:          req.Title,
		Description:    req.Description,
		Price:          price,
		ImageURL:       req.ImageURL,
		SizeLabel:      req.SizeLabel,
		Tags:           pq.StringArray(req.Tags),
		ArtistName:     artist.DisplayName,
		ArtistPhotoURL: artist.PhotoURL,
	}
	if req.Publish {
		now := time.Now().UTC()
		row.IsPublished = true
		row.PublishedAt = &now
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if createErr := s.repo.CreateTx(tx, &row); createErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "insert artwork")
		}
		if !row.IsPublished {
			return nil
		}
		return s.emit(ctx, tx, enums.OutboxEventArtworkPublished, &row, 0, 0)
	})
	if err != nil {
		return ArtworkDTO{}, err
	}
	return FromModel(&row), nil
}

// Get returns the catalog entry. Drafts are only visible to their owner.
func (s *service) Get(ctx context.Context, viewerID, artworkID uuid.UUID) (ArtworkDTO, error) {
	if artworkID == uuid.Nil {
		return ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	}
	row, err := s.repo.FindByID(ctx, artworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ArtworkDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "artwork not found")
		}
		return ArtworkDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
	}
	if !row.IsPublished && row.ArtistID != viewerID {
		return ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
	}
	return FromModel(row), nil
}

// ListPublished pages through published entries newest first.
func (s *service) ListPublished(ctx context.Context, params pagination.Params) (PageDTO, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListPublished(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list artworks")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	items := make([]ArtworkDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return PageDTO{Items: items, NextCursor: next}, nil
}

// ListByArtist returns the artist's full catalog, drafts included.
func (s *service) ListByArtist(ctx context.Context, artistID uuid.UUID) (PageDTO, error) {
	if artistID == uuid.Nil {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}
	rows, err := s.repo.ListByArtist(ctx, artistID)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list artworks")
	}
	items := make([]ArtworkDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return PageDTO{Items: items}, nil
}

// Update applies the edit and, when display fields changed, rewrites every
// cart and favorite snapshot referencing the artwork in the same transaction.
func (s *service) Update(ctx context.Context, artistID, artworkID uuid.UUID, req UpdateArtworkRequest) (ArtworkDTO, error) {
	if artistID == uuid.Nil {
		return ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}
	if artworkID == uuid.Nil {
		return ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	}
	artist, err := s.requireArtist(ctx, artistID)
	if err != nil {
		return ArtworkDTO{}, err
	}

	var updated *models.Artwork
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row, findErr := s.repo.FindForUpdateTx(tx, artworkID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, findErr, "artwork not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load artwork")
		}
		if row.ArtistID != artistID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "artwork belongs to another artist")
		}

		updates, snapshotUpdates, applyErr := buildUpdates(row, req)
		if applyErr != nil {
			return applyErr
		}
		// The artist photo has no relay of its own; it is re-snapshotted
		// whenever the artwork row is written.
		if !photoEqual(row.ArtistPhotoURL, artist.PhotoURL) {
			updates["artist_photo_url"] = artist.PhotoURL
		}
		if len(updates) == 0 {
			updated = row
			return nil
		}

		if updErr := s.repo.UpdateTx(tx, artworkID, updates); updErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, updErr, "update artwork")
		}

		var cartRows, favRows int64
		if len(snapshotUpdates) > 0 {
			var relayErr error
			cartRows, relayErr = s.repo.UpdateCartSnapshotsTx(tx, artworkID, snapshotUpdates)
			if relayErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, relayErr, "relay cart snapshots")
			}
			favUpdates := snapshotUpdates
			favRows, relayErr = s.repo.UpdateFavoriteSnapshotsTx(tx, artworkID, favUpdates)
			if relayErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, relayErr, "relay favorite snapshots")
			}
			s.metrics.AddRowsUpdated("cart_items", cartRows)
			s.metrics.AddRowsUpdated("favorite_items", favRows)
		}
		s.metrics.IncMutation("update")

		fresh, freshErr := s.repo.FindForUpdateTx(tx, artworkID)
		if freshErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, freshErr, "reload artwork")
		}
		updated = fresh
		return s.emit(ctx, tx, enums.OutboxEventArtworkUpdated, fresh, cartRows, favRows)
	})
	if err != nil {
		return ArtworkDTO{}, err
	}
	return FromModel(updated), nil
}

// Delete removes the catalog row together with every snapshot referencing it,
// so carts and favorites never point at a vanished artwork.
func (s *service) Delete(ctx context.Context, artistID, artworkID uuid.UUID) error {
	if artistID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}
	if artworkID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row, findErr := s.repo.FindForUpdateTx(tx, artworkID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, findErr, "artwork not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load artwork")
		}
		if row.ArtistID != artistID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "artwork belongs to another artist")
		}

		cartRows, err := s.repo.DeleteCartSnapshotsTx(tx, artworkID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop cart snapshots")
		}
		favRows, err := s.repo.DeleteFavoriteSnapshotsTx(tx, artworkID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop favorite snapshots")
		}
		if err := s.repo.DeleteTx(tx, artworkID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete artwork")
		}

		s.metrics.AddRowsDeleted("cart_items", cartRows)
		s.metrics.AddRowsDeleted("favorite_items", favRows)
		s.metrics.IncMutation("delete")

		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"artwork_id": artworkID.String(),
				"cart_rows":  cartRows,
				"fav_rows":   favRows,
			})
			s.logg.Info(logCtx, "artwork deleted with snapshot fan-out")
		}
		return s.emit(ctx, tx, enums.OutboxEventArtworkDeleted, row, cartRows, favRows)
	})
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, row *models.Artwork, cartRows, favRows int64) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.OutboxAggregateArtwork,
		AggregateID:   row.ID,
		Actor:         &outbox.ActorRef{AccountID: row.ArtistID, Role: string(enums.RoleArtist)},
		Data: ArtworkEventPayload{
			ArtworkID: row.ID,
			ArtistID:  row.ArtistID,
			Title:     row.Title,
			Price:     row.Price.String(),
			CartRows:  cartRows,
			FavRows:   favRows,
		},
		Version: 1,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit catalog event")
	}
	return nil
}

func (s *service) requireArtist(ctx context.Context, artistID uuid.UUID) (*models.Account, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}
	account, err := s.accounts.FindByID(ctx, artistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	if !account.IsArtist() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "catalog management is restricted to artists")
	}
	return account, nil
}

// buildUpdates translates the partial request into catalog column updates and
// the subset of display fields that must fan out to snapshots.
func buildUpdates(row *models.Artwork, req UpdateArtworkRequest) (map[string]any, map[string]any, error) {
	updates := map[string]any{}
	snapshot := map[string]any{}

	if req.Title != nil && *req.Title != row.Title {
		updates["title"] = *req.Title
		title := *req.Title
		if title == "" {
			title = untitledFallback
		}
		snapshot["title"] = title
	}
	if req.Description != nil {
		updates["description"] = req.Description
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			return nil, nil, err
		}
		if !price.Equal(row.Price) {
			updates["price"] = price
			snapshot["price"] = price.String()
		}
	}
	if req.ImageURL != nil && *req.ImageURL != row.ImageURL {
		updates["image_url"] = *req.ImageURL
		snapshot["image_url"] = *req.ImageURL
	}
	if req.SizeLabel != nil {
		updates["size_label"] = req.SizeLabel
		snapshot["size_label"] = req.SizeLabel
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}
	if req.Publish != nil && *req.Publish != row.IsPublished {
		updates["is_published"] = *req.Publish
		if *req.Publish && row.PublishedAt == nil {
			updates["published_at"] = time.Now().UTC()
		}
	}
	return updates, snapshot, nil
}

func photoEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	return price, nil
}
