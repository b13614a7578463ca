package favorites

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muralhq/mural-backend/pkg/db/models"
	pkgerrors "github.com/muralhq/mural-backend/pkg/errors"
)

const untitledFallback = "Untitled"

// Service exposes favorites management for authenticated accounts. Guests
// cannot favorite; the router never reaches this service without an account.
type Service interface {
	Toggle(ctx context.Context, accountID, artworkID uuid.UUID) (ToggleDTO, error)
	List(ctx context.Context, accountID uuid.UUID) (ListDTO, error)
	IsFavorited(ctx context.Context, accountID, artworkID uuid.UUID) (bool, error)
}

type favoriteRepository interface {
	List(ctx context.Context, accountID uuid.UUID) ([]models.FavoriteItem, error)
	FindTx(tx *gorm.DB, accountID, artworkID uuid.UUID) (*models.FavoriteItem, error)
	InsertTx(tx *gorm.DB, item *models.FavoriteItem) error
	DeleteTx(tx *gorm.DB, accountID, artworkID uuid.UUID) error
	Exists(ctx context.Context, accountID, artworkID uuid.UUID) (bool, error)
}

type artworkFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the dependencies for the favorites service.
type ServiceParams struct {
	Repo     favoriteRepository
	Artworks artworkFinder
	Tx       txRunner
}

type service struct {
	repo     favoriteRepository
	artworks artworkFinder
	tx       txRunner
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorites repo is required")
	}
	if params.Artworks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	return &service{
		repo:     params.Repo,
		artworks: params.Artworks,
		tx:       params.Tx,
	}, nil
}

// Toggle flips the favorite state in one transaction: favorited artworks are
// removed, everything else is snapshotted and added.
func (s *service) Toggle(ctx context.Context, accountID, artworkID uuid.UUID) (ToggleDTO, error) {
	if accountID == uuid.Nil {
		return ToggleDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}
	if artworkID == uuid.Nil {
		return ToggleDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	}

	var favorited bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, findErr := s.repo.FindTx(tx, accountID, artworkID)
		if findErr == nil {
			if delErr := s.repo.DeleteTx(tx, accountID, artworkID); delErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, delErr, "remove favorite")
			}
			favorited = false
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load favorite")
		}

		snapshot, snapErr := s.snapshotArtwork(ctx, artworkID)
		if snapErr != nil {
			return snapErr
		}
		snapshot.AccountID = accountID
		if insErr := s.repo.InsertTx(tx, snapshot); insErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, insErr, "insert favorite")
		}
		favorited = true
		return nil
	})
	if err != nil {
		return ToggleDTO{}, err
	}
	return ToggleDTO{ArtworkID: artworkID, Favorited: favorited}, nil
}

// List returns all favorites for the account, newest first.
func (s *service) List(ctx context.Context, accountID uuid.UUID) (ListDTO, error) {
	if accountID == uuid.Nil {
		return ListDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}
	rows, err := s.repo.List(ctx, accountID)
	if err != nil {
		return ListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	items := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, itemFromModel(row))
	}
	return ListDTO{Items: items, Count: len(items)}, nil
}

// IsFavorited reports the current state for a single artwork.
func (s *service) IsFavorited(ctx context.Context, accountID, artworkID uuid.UUID) (bool, error) {
	if accountID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}
	if artworkID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	}
	exists, err := s.repo.Exists(ctx, accountID, artworkID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check favorite")
	}
	return exists, nil
}

func (s *service) snapshotArtwork(ctx context.Context, artworkID uuid.UUID) (*models.FavoriteItem, error) {
	artwork, err := s.artworks.FindByID(ctx, artworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "artwork not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
	}

	title := artwork.Title
	if title == "" {
		title = untitledFallback
	}
	return &models.FavoriteItem{
		ArtworkID:  artwork.ID,
		Title:      title,
		Price:      artwork.Price.String(),
		ImageURL:   artwork.ImageURL,
		ArtistName: artwork.ArtistName,
		SizeLabel:  artwork.SizeLabel,
	}, nil
}
