package purchases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/muralhq/mural-backend/internal/cart"
	"github.com/muralhq/mural-backend/pkg/db/models"
	"github.com/muralhq/mural-backend/pkg/enums"
	pkgerrors "github.com/muralhq/mural-backend/pkg/errors"
	"github.com/muralhq/mural-backend/pkg/logger"
	"github.com/muralhq/mural-backend/pkg/outbox"
	"github.com/muralhq/mural-backend/pkg/pagination"
)

// Service exposes checkout and purchase history. There is no payment flow:
// checkout converts the cart into history rows and empties the cart.
type Service interface {
	Checkout(ctx context.Context, actor cart.Actor) (CheckoutResponse, error)
	History(ctx context.Context, accountID uuid.UUID, params pagination.Params) (HistoryPageDTO, error)
}

type purchaseRepository interface {
	InsertTx(tx *gorm.DB, records []models.PurchaseRecord) error
	ListHistory(ctx context.Context, accountID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.PurchaseRecord, error)
}

type accountCartRepository interface {
	ListTx(tx *gorm.DB, accountID uuid.UUID) ([]models.CartItem, error)
	ClearTx(tx *gorm.DB, accountID uuid.UUID) error
}

type guestCartStore interface {
	Load(ctx context.Context, guestToken string) (cart.GuestDoc, error)
	Clear(ctx context.Context, guestToken string) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the dependencies for the purchases service.
type ServiceParams struct {
	Repo       purchaseRepository
	CartRepo   accountCartRepository
	GuestStore guestCartStore
	Outbox     eventEmitter
	Tx         txRunner
	Logger     *logger.Logger
}

type service struct {
	repo       purchaseRepository
	cartRepo   accountCartRepository
	guestStore guestCartStore
	outbox     eventEmitter
	tx         txRunner
	logg       *logger.Logger
}

// NewService builds a purchases service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase repo is required")
	}
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.GuestStore == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest store is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	return &service{
		repo:       params.Repo,
		cartRepo:   params.CartRepo,
		guestStore: params.GuestStore,
		outbox:     params.Outbox,
		tx:         params.Tx,
		logg:       params.Logger,
	}, nil
}

// Checkout empties the cart. For accounts the lines become purchase history
// rows in the same transaction; guest checkouts only drop the Redis document,
// since anonymous purchases leave no durable record.
func (s *service) Checkout(ctx context.Context, actor cart.Actor) (CheckoutResponse, error) {
	if actor.IsGuest() {
		if actor.GuestToken == "" {
			return CheckoutResponse{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner is required")
		}
		return s.guestCheckout(ctx, actor.GuestToken)
	}
	return s.accountCheckout(ctx, actor.AccountID)
}

func (s *service) guestCheckout(ctx context.Context, guestToken string) (CheckoutResponse, error) {
	doc, err := s.guestStore.Load(ctx, guestToken)
	if err != nil {
		return CheckoutResponse{}, err
	}
	if len(doc.Items) == 0 {
		return CheckoutResponse{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	now := time.Now().UTC()
	receipt := make([]RecordDTO, 0, len(doc.Items))
	for _, item := range doc.Items {
		receipt = append(receipt, RecordDTO{
			ArtworkID:   item.ArtworkID,
			Title:       item.Title,
			Price:       item.Price,
			Quantity:    item.Quantity,
			ImageURL:    item.ImageURL,
			ArtistName:  item.ArtistName,
			PurchasedAt: now,
		})
	}

	if err := s.guestStore.Clear(ctx, guestToken); err != nil {
		return CheckoutResponse{}, err
	}
	return CheckoutResponse{
		Items:    receipt,
		Total:    cart.Total(doc.Items).StringFixed(2),
		Recorded: false,
	}, nil
}

func (s *service) accountCheckout(ctx context.Context, accountID uuid.UUID) (CheckoutResponse, error) {
	now := time.Now().UTC()
	var receipt []RecordDTO
	var total decimal.Decimal

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lines, listErr := s.cartRepo.ListTx(tx, accountID)
		if listErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, listErr, "list cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}

		records := make([]models.PurchaseRecord, 0, len(lines))
		items := make([]cart.ItemDTO, 0, len(lines))
		for _, line := range lines {
			qty := line.Quantity
			if qty < 1 {
				qty = 1
			}
			records = append(records, models.PurchaseRecord{
				AccountID:   accountID,
				ArtworkID:   line.ArtworkID,
				Title:       line.Title,
				Price:       coercePrice(line.Price),
				Quantity:    qty,
				ImageURL:    line.ImageURL,
				ArtistName:  line.ArtistName,
				PurchasedAt: now,
			})
			items = append(items, cart.ItemDTO{Price: line.Price, Quantity: line.Quantity})
		}

		if insErr := s.repo.InsertTx(tx, records); insErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, insErr, "record purchases")
		}
		if clearErr := s.cartRepo.ClearTx(tx, accountID); clearErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, clearErr, "clear cart")
		}

		receipt = make([]RecordDTO, 0, len(records))
		for _, record := range records {
			receipt = append(receipt, recordFromModel(record))
		}
		total = cart.Total(items)

		event := outbox.DomainEvent{
			EventType:     enums.OutboxEventPurchaseRecorded,
			AggregateType: enums.OutboxAggregatePurchase,
			AggregateID:   accountID,
			Actor:         &outbox.ActorRef{AccountID: accountID, Role: string(enums.RoleCollector)},
			Data: PurchaseEventPayload{
				AccountID: accountID,
				Items:     receipt,
				Total:     total.StringFixed(2),
			},
			Version: 1,
		}
		if emitErr := s.outbox.Emit(ctx, tx, event); emitErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, emitErr, "emit purchase event")
		}
		return nil
	})
	if err != nil {
		return CheckoutResponse{}, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"account_id": accountID.String(),
			"line_count": len(receipt),
			"total":      total.StringFixed(2),
		})
		s.logg.Info(logCtx, "checkout recorded")
	}
	return CheckoutResponse{
		Items:    receipt,
		Total:    total.StringFixed(2),
		Recorded: true,
	}, nil
}

// History pages through the account's purchases, newest first.
func (s *service) History(ctx context.Context, accountID uuid.UUID, params pagination.Params) (HistoryPageDTO, error) {
	if accountID == uuid.Nil {
		return HistoryPageDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return HistoryPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListHistory(ctx, accountID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return HistoryPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	items := make([]RecordDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, recordFromModel(row))
	}
	return HistoryPageDTO{Items: items, NextCursor: next}, nil
}

// coercePrice converts a lenient cart snapshot into the decimal stored on the
// history row; garbage prices become zero just like they do in cart totals.
func coercePrice(raw string) decimal.Decimal {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return value
}
