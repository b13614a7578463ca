package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muralhq/mural-backend/pkg/config"
	"github.com/muralhq/mural-backend/pkg/db/models"
	"github.com/muralhq/mural-backend/pkg/enums"
	pkgerrors "github.com/muralhq/mural-backend/pkg/errors"
	"github.com/muralhq/mural-backend/pkg/logger"
	"github.com/muralhq/mural-backend/pkg/metrics"
	"github.com/muralhq/mural-backend/pkg/outbox"
	"github.com/muralhq/mural-backend/pkg/security"
)

// Service manages account profiles and lifecycle.
type Service interface {
	GetProfile(ctx context.Context, accountID uuid.UUID) (ProfileDTO, error)
	UpdateProfile(ctx context.Context, accountID uuid.UUID, req UpdateProfileRequest) (ProfileDTO, error)
	ChangePassword(ctx context.Context, accountID uuid.UUID, req ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, accountID uuid.UUID, req DeleteAccountRequest) error
}

type accountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Account, error)
	UpdateTx(tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	ListArtworkIDsTx(tx *gorm.DB, artistID uuid.UUID) ([]uuid.UUID, error)
	RenameArtistTx(tx *gorm.DB, artistID uuid.UUID, name string) (int64, int64, int64, error)
	DeleteSnapshotsForArtworksTx(tx *gorm.DB, artworkIDs []uuid.UUID) (int64, int64, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the dependencies for the accounts service.
type ServiceParams struct {
	Repo        accountRepository
	Outbox      eventEmitter
	Tx          txRunner
	PasswordCfg config.PasswordConfig
	Metrics     *metrics.RelayMetrics
	Logger      *logger.Logger
}

type service struct {
	repo        accountRepository
	outbox      eventEmitter
	tx          txRunner
	passwordCfg config.PasswordConfig
	metrics     *metrics.RelayMetrics
	logg        *logger.Logger
}

// NewService builds an accounts service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	return &service{
		repo:        params.Repo,
		outbox:      params.Outbox,
		tx:          params.Tx,
		passwordCfg: params.PasswordCfg,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// GetProfile returns the owner's profile.
func (s *service) GetProfile(ctx context.Context, accountID uuid.UUID) (ProfileDTO, error) {
	account, err := s.load(ctx, accountID)
	if err != nil {
		return ProfileDTO{}, err
	}
	return FromModel(account), nil
}

// UpdateProfile applies the edits. Renaming an artist rewrites the
// denormalized artist name across the catalog and every snapshot in the same
// transaction so listings, carts and favorites never disagree.
func (s *service) UpdateProfile(ctx context.Context, accountID uuid.UUID, req UpdateProfileRequest) (ProfileDTO, error) {
	if accountID == uuid.Nil {
		return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}

	var updated *models.Account
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		account, findErr := s.repo.FindForUpdateTx(tx, accountID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, findErr, "account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load account")
		}

		updates := buildProfileUpdates(account, req)
		renamed := false
		if name, ok := updates["display_name"].(string); ok && account.IsArtist() {
			renamed = name != account.DisplayName
		}

		if len(updates) > 0 {
			if updErr := s.repo.UpdateTx(tx, accountID, updates); updErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, updErr, "update profile")
			}
		}

		if renamed {
			name := updates["display_name"].(string)
			artRows, cartRows, favRows, renameErr := s.repo.RenameArtistTx(tx, accountID, name)
			if renameErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, renameErr, "fan out artist rename")
			}
			s.metrics.AddRowsUpdated("artworks", artRows)
			s.metrics.AddRowsUpdated("cart_items", cartRows)
			s.metrics.AddRowsUpdated("favorite_items", favRows)
			s.metrics.IncMutation("rename")
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"account_id":   accountID.String(),
					"artwork_rows": artRows,
					"cart_rows":    cartRows,
					"fav_rows":     favRows,
				})
				s.logg.Info(logCtx, "artist rename fanned out")
			}
		}

		fresh, freshErr := s.repo.FindForUpdateTx(tx, accountID)
		if freshErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, freshErr, "reload account")
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return ProfileDTO{}, err
	}
	return FromModel(updated), nil
}

// ChangePassword verifies the current credential before storing a new hash.
func (s *service) ChangePassword(ctx context.Context, accountID uuid.UUID, req ChangePasswordRequest) error {
	account, err := s.load(ctx, accountID)
	if err != nil {
		return err
	}

	valid, err := security.VerifyPassword(req.CurrentPassword, account.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}
	if len(req.NewPassword) < s.passwordCfg.MinLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password is too short")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePassword(ctx, accountID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store password")
	}
	return nil
}

// DeleteAccount re-proves the credential, then removes the account. For
// artists it sweeps the snapshots that reference the artist's artworks out of
// other collectors' carts and favorites before the FK cascade drops the
// catalog rows.
func (s *service) DeleteAccount(ctx context.Context, accountID uuid.UUID, req DeleteAccountRequest) error {
	if accountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		account, findErr := s.repo.FindForUpdateTx(tx, accountID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, findErr, "account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load account")
		}

		valid, verifyErr := security.VerifyPassword(req.Password, account.PasswordHash)
		if verifyErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, verifyErr, "verify password")
		}
		if !valid {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "password is incorrect")
		}

		if account.IsArtist() {
			artworkIDs, listErr := s.repo.ListArtworkIDsTx(tx, accountID)
			if listErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, listErr, "list artist artworks")
			}
			cartRows, favRows, sweepErr := s.repo.DeleteSnapshotsForArtworksTx(tx, artworkIDs)
			if sweepErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, sweepErr, "sweep artist snapshots")
			}
			s.metrics.AddRowsDeleted("cart_items", cartRows)
			s.metrics.AddRowsDeleted("favorite_items", favRows)
			s.metrics.IncMutation("delete")
		}

		if delErr := s.repo.DeleteTx(tx, accountID); delErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, delErr, "delete account")
		}

		event := outbox.DomainEvent{
			EventType:     enums.OutboxEventAccountDeleted,
			AggregateType: enums.OutboxAggregateAccount,
			AggregateID:   accountID,
			Actor:         &outbox.ActorRef{AccountID: accountID, Role: string(account.Role)},
			Data: AccountEventPayload{
				AccountID: accountID,
				Email:     account.Email,
				Role:      string(account.Role),
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit account event")
		}
		return nil
	})
}

func (s *service) load(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account, nil
}

func buildProfileUpdates(account *models.Account, req UpdateProfileRequest) map[string]any {
	updates := map[string]any{}
	if req.DisplayName != nil && *req.DisplayName != account.DisplayName {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = req.Bio
	}
	if req.Location != nil {
		updates["location"] = req.Location
	}
	if req.PhotoURL != nil {
		updates["photo_url"] = req.PhotoURL
	}
	if req.ArtistStatement != nil {
		updates["artist_statement"] = req.ArtistStatement
	}
	return updates
}
