package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muralhq/mural-backend/pkg/db/models"
	pkgerrors "github.com/muralhq/mural-backend/pkg/errors"
	"github.com/muralhq/mural-backend/pkg/logger"
)

const untitledFallback = "Untitled"

// Service exposes cart operations for accounts and guests.
type Service interface {
	GetCart(ctx context.Context, actor Actor) (CartDTO, error)
	AddItem(ctx context.Context, actor Actor, req AddItemRequest) (CartDTO, error)
	SetQuantity(ctx context.Context, actor Actor, req SetQuantityRequest) (CartDTO, error)
	RemoveItem(ctx context.Context, actor Actor, artworkID uuid.UUID) (CartDTO, error)
	Clear(ctx context.Context, actor Actor) error
	MergeGuestCart(ctx context.Context, accountID uuid.UUID, guestToken string) error
}

type accountCartRepository interface {
	List(ctx context.Context, accountID uuid.UUID) ([]models.CartItem, error)
	ListTx(tx *gorm.DB, accountID uuid.UUID) ([]models.CartItem, error)
	FindTx(tx *gorm.DB, accountID, artworkID uuid.UUID) (*models.CartItem, error)
	InsertTx(tx *gorm.DB, item *models.CartItem) error
	UpdateQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int) error
	DeleteTx(tx *gorm.DB, accountID, artworkID uuid.UUID) error
	ClearTx(tx *gorm.DB, accountID uuid.UUID) error
}

type guestCartStore interface {
	Load(ctx context.Context, guestToken string) (GuestDoc, error)
	Save(ctx context.Context, guestToken string, doc GuestDoc) error
	Clear(ctx context.Context, guestToken string) error
}

type artworkFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the dependencies for the cart service.
type ServiceParams struct {
	Repo       accountCartRepository
	GuestStore guestCartStore
	Artworks   artworkFinder
	Tx         txRunner
	Logger     *logger.Logger
}

type service struct {
	repo       accountCartRepository
	guestStore guestCartStore
	artworks   artworkFinder
	tx         txRunner
	logg       *logger.Logger
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.GuestStore == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest store is required")
	}
	if params.Artworks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	return &service{
		repo:       params.Repo,
		guestStore: params.GuestStore,
		artworks:   params.Artworks,
		tx:         params.Tx,
		logg:       params.Logger,
	}, nil
}

// GetCart returns the actor's cart with its lenient total.
func (s *service) GetCart(ctx context.Context, actor Actor) (CartDTO, error) {
	if err := validateActor(actor); err != nil {
		return CartDTO{}, err
	}
	if actor.IsGuest() {
		doc, err := s.guestStore.Load(ctx, actor.GuestToken)
		if err != nil {
			return CartDTO{}, err
		}
		doc, changed, err := s.revalidateGuestDoc(ctx, doc)
		if err != nil {
			return CartDTO{}, err
		}
		if changed {
			if err := s.guestStore.Save(ctx, actor.GuestToken, doc); err != nil {
				return CartDTO{}, err
			}
		}
		return cartFromItems(doc.Items), nil
	}

	rows, err := s.repo.List(ctx, actor.AccountID)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	items := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, itemFromModel(row))
	}
	return cartFromItems(items), nil
}

// AddItem snapshots the artwork into the cart. Re-adding an artwork already in
// the cart bumps its quantity by one instead of inserting a duplicate line.
func (s *service) AddItem(ctx context.Context, actor Actor, req AddItemRequest) (CartDTO, error) {
	if err := validateActor(actor); err != nil {
		return CartDTO{}, err
	}
	if req.ArtworkID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	}

	snapshot, err := s.snapshotArtwork(ctx, req.ArtworkID)
	if err != nil {
		return CartDTO{}, err
	}

	if actor.IsGuest() {
		return s.guestMutate(ctx, actor.GuestToken, func(doc *GuestDoc) {
			for i := range doc.Items {
				if doc.Items[i].ArtworkID == req.ArtworkID {
					doc.Items[i].Quantity = normalizeQuantity(doc.Items[i].Quantity) + 1
					return
				}
			}
			doc.Items = append(doc.Items, snapshot)
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		existing, findErr := s.repo.FindTx(tx, actor.AccountID, req.ArtworkID)
		if findErr != nil {
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load cart line")
			}
			row := models.CartItem{
				AccountID:  actor.AccountID,
				ArtworkID:  req.ArtworkID,
				Title:      snapshot.Title,
				Price:      snapshot.Price,
				ImageURL:   snapshot.ImageURL,
				ArtistName: snapshot.ArtistName,
				SizeLabel:  snapshot.SizeLabel,
				Quantity:   1,
			}
			if insErr := s.repo.InsertTx(tx, &row); insErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, insErr, "insert cart line")
			}
			return nil
		}
		next := normalizeQuantity(existing.Quantity) + 1
		if updErr := s.repo.UpdateQuantityTx(tx, existing.ID, next); updErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, updErr, "bump cart quantity")
		}
		return nil
	})
	if err != nil {
		return CartDTO{}, err
	}
	return s.GetCart(ctx, actor)
}

// SetQuantity rewrites a line's quantity. Anything below one removes the line.
func (s *service) SetQuantity(ctx context.Context, actor Actor, req SetQuantityRequest) (CartDTO, error) {
	if err := validateActor(actor); err != nil {
		return CartDTO{}, err
	}
	if req.ArtworkID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	}
	if req.Quantity < 1 {
		return s.RemoveItem(ctx, actor, req.ArtworkID)
	}

	if actor.IsGuest() {
		return s.guestMutate(ctx, actor.GuestToken, func(doc *GuestDoc) {
			for i := range doc.Items {
				if doc.Items[i].ArtworkID == req.ArtworkID {
					doc.Items[i].Quantity = req.Quantity
					return
				}
			}
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		existing, findErr := s.repo.FindTx(tx, actor.AccountID, req.ArtworkID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load cart line")
		}
		if updErr := s.repo.UpdateQuantityTx(tx, existing.ID, req.Quantity); updErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, updErr, "set cart quantity")
		}
		return nil
	})
	if err != nil {
		return CartDTO{}, err
	}
	return s.GetCart(ctx, actor)
}

// RemoveItem drops the line regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, actor Actor, artworkID uuid.UUID) (CartDTO, error) {
	if err := validateActor(actor); err != nil {
		return CartDTO{}, err
	}
	if artworkID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	}

	if actor.IsGuest() {
		return s.guestMutate(ctx, actor.GuestToken, func(doc *GuestDoc) {
			kept := doc.Items[:0]
			for _, item := range doc.Items {
				if item.ArtworkID != artworkID {
					kept = append(kept, item)
				}
			}
			doc.Items = kept
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if delErr := s.repo.DeleteTx(tx, actor.AccountID, artworkID); delErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, delErr, "remove cart line")
		}
		return nil
	})
	if err != nil {
		return CartDTO{}, err
	}
	return s.GetCart(ctx, actor)
}

// Clear empties the cart.
func (s *service) Clear(ctx context.Context, actor Actor) error {
	if err := validateActor(actor); err != nil {
		return err
	}
	if actor.IsGuest() {
		return s.guestStore.Clear(ctx, actor.GuestToken)
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.ClearTx(tx, actor.AccountID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
}

// MergeGuestCart folds the guest document into the account cart and drops the
// document. When both carts hold the same artwork the larger quantity wins.
func (s *service) MergeGuestCart(ctx context.Context, accountID uuid.UUID, guestToken string) error {
	if accountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if guestToken == "" {
		return nil
	}

	doc, err := s.guestStore.Load(ctx, guestToken)
	if err != nil {
		return err
	}
	if len(doc.Items) == 0 {
		return s.guestStore.Clear(ctx, guestToken)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		existing, listErr := s.repo.ListTx(tx, accountID)
		if listErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, listErr, "list cart")
		}
		byArtwork := make(map[uuid.UUID]models.CartItem, len(existing))
		for _, row := range existing {
			byArtwork[row.ArtworkID] = row
		}

		for _, item := range doc.Items {
			guestQty := normalizeQuantity(item.Quantity)
			row, ok := byArtwork[item.ArtworkID]
			if !ok {
				insert := models.CartItem{
					AccountID:  accountID,
					ArtworkID:  item.ArtworkID,
					Title:      item.Title,
					Price:      item.Price,
					ImageURL:   item.ImageURL,
					ArtistName: item.ArtistName,
					SizeLabel:  item.SizeLabel,
					Quantity:   guestQty,
				}
				if insErr := s.repo.InsertTx(tx, &insert); insErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, insErr, "merge cart line")
				}
				continue
			}
			if guestQty > normalizeQuantity(row.Quantity) {
				if updErr := s.repo.UpdateQuantityTx(tx, row.ID, guestQty); updErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, updErr, "merge cart quantity")
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"account_id":   accountID.String(),
			"merged_items": len(doc.Items),
		})
		s.logg.Info(logCtx, "guest cart merged")
	}
	return s.guestStore.Clear(ctx, guestToken)
}

func (s *service) guestMutate(ctx context.Context, guestToken string, mutate func(*GuestDoc)) (CartDTO, error) {
	doc, err := s.guestStore.Load(ctx, guestToken)
	if err != nil {
		return CartDTO{}, err
	}
	mutate(&doc)
	if err := s.guestStore.Save(ctx, guestToken, doc); err != nil {
		return CartDTO{}, err
	}
	return cartFromItems(doc.Items), nil
}

func (s *service) snapshotArtwork(ctx context.Context, artworkID uuid.UUID) (ItemDTO, error) {
	artwork, err := s.artworks.FindByID(ctx, artworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "artwork not found")
		}
		return ItemDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
	}
	return snapshotFromArtwork(artwork), nil
}

// revalidateGuestDoc reconciles guest snapshots with the live catalog. The
// mutation relay rewrites account cart rows in the catalog transaction but
// cannot reach Redis documents, so guest lines are refreshed lazily on read:
// stale snapshots are rewritten and lines whose artwork is gone are dropped.
func (s *service) revalidateGuestDoc(ctx context.Context, doc GuestDoc) (GuestDoc, bool, error) {
	changed := false
	kept := doc.Items[:0]
	for _, item := range doc.Items {
		artwork, err := s.artworks.FindByID(ctx, item.ArtworkID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				changed = true
				continue
			}
			return doc, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revalidate cart line")
		}
		fresh := snapshotFromArtwork(artwork)
		if item.Title != fresh.Title || item.Price != fresh.Price ||
			item.ImageURL != fresh.ImageURL || item.ArtistName != fresh.ArtistName ||
			!sizeLabelsEqual(item.SizeLabel, fresh.SizeLabel) {
			fresh.Quantity = item.Quantity
			fresh.AddedAt = item.AddedAt
			item = fresh
			changed = true
		}
		kept = append(kept, item)
	}
	doc.Items = kept
	return doc, changed, nil
}

func snapshotFromArtwork(artwork *models.Artwork) ItemDTO {
	title := artwork.Title
	if title == "" {
		title = untitledFallback
	}
	return ItemDTO{
		ArtworkID:  artwork.ID,
		Title:      title,
		Price:      artwork.Price.String(),
		ImageURL:   artwork.ImageURL,
		ArtistName: artwork.ArtistName,
		SizeLabel:  artwork.SizeLabel,
		Quantity:   1,
	}
}

func sizeLabelsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func validateActor(actor Actor) error {
	if actor.AccountID == uuid.Nil && actor.GuestToken == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner is required")
	}
	return nil
}
