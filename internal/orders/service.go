package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quexa/spotmatch/internal/ledger"
	"github.com/quexa/spotmatch/pkg/metrics"
	"github.com/quexa/spotmatch/pkg/models"
)

// Matcher is the matching engine as seen from order intake. The service
// invokes it exactly once, synchronously, after an order is committed.
type Matcher interface {
	MatchOrder(ctx context.Context, order *models.Order) (*models.Trade, error)
}

// CreateOrderRequest carries a validated-on-entry order request.
type CreateOrderRequest struct {
	Symbol string
	Side   string
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// Service implements order intake, cancellation and listing. Intake
// reserves cash (buy) or assets (sell) and persists the order in one
// transaction; the matching engine is triggered only after that
// transaction commits.
type Service struct {
	db       *gorm.DB
	store    Store
	accounts *ledger.AccountLedger
	assets   *ledger.AssetLedger
	matcher  Matcher
	symbols  map[string]struct{}
	logger   *zap.Logger
}

// NewService creates a new order service. The matcher is attached
// separately via SetMatcher because the engine itself depends on the
// order store.
func NewService(db *gorm.DB, store Store, accounts *ledger.AccountLedger, assets *ledger.AssetLedger, symbols []string, logger *zap.Logger) *Service {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[s] = struct{}{}
	}
	return &Service{
		db:       db,
		store:    store,
		accounts: accounts,
		assets:   assets,
		symbols:  set,
		logger:   logger,
	}
}

// SetMatcher attaches the matching engine invoked after intake commits.
func (s *Service) SetMatcher(m Matcher) { s.matcher = m }

// CreateOrder validates the request, reserves funds or assets, persists
// the order as open, and triggers one match attempt. Ledger failures
// roll the whole transaction back; a failed match attempt leaves the
// committed open order untouched.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*models.Order, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		ID:        uuid.New(),
		UserID:    userID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Price:     req.Price,
		Amount:    req.Amount,
		Status:    models.OrderStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.IsBuy() {
			if err := s.accounts.Reserve(ctx, tx, userID, order.Cost()); err != nil {
				return err
			}
		} else {
			if err := s.assets.Reserve(ctx, tx, userID, order.Symbol, order.Amount); err != nil {
				return err
			}
		}
		return s.store.Create(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues(order.Side).Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("symbol", order.Symbol),
		zap.String("side", order.Side))

	if s.matcher != nil {
		if _, err := s.matcher.MatchOrder(ctx, order); err != nil {
			// The order is committed and stays open; a later order or an
			// explicit re-scan retries the match.
			s.logger.Warn("Match attempt failed",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		}
	}

	return order, nil
}

// CancelOrder reverses an open order's reservation and marks it
// cancelled. Fails with ErrOrderNotFound for unknown or foreign orders
// and ErrInvalidState for orders no longer open.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var cancelled *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.store.GetOwnedForUpdate(ctx, tx, userID, orderID)
		if err != nil {
			return err
		}
		if !order.IsOpen() {
			return fmt.Errorf("%w: order %s is %s", ErrInvalidState, order.ID, order.Status)
		}

		if order.IsBuy() {
			if err := s.accounts.Release(ctx, tx, userID, order.Cost()); err != nil {
				return err
			}
		} else {
			if err := s.assets.Release(ctx, tx, userID, order.Symbol, order.Amount); err != nil {
				return err
			}
		}

		if err := s.store.UpdateStatus(ctx, tx, order.ID, models.OrderStatusCancelled); err != nil {
			return err
		}
		order.Status = models.OrderStatusCancelled
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCancelled.Inc()
	s.logger.Info("Order cancelled",
		zap.String("order_id", orderID.String()),
		zap.String("user_id", userID.String()))
	return cancelled, nil
}

// ListOrders returns the user's orders newest-first.
func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*models.Order, error) {
	return s.store.List(ctx, userID, filter)
}

// validate rejects malformed requests before any lock is taken.
func (s *Service) validate(req CreateOrderRequest) error {
	if _, ok := s.symbols[req.Symbol]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedSymbol, req.Symbol)
	}
	if req.Side != models.OrderSideBuy && req.Side != models.OrderSideSell {
		return fmt.Errorf("%w: %q", ErrInvalidSide, req.Side)
	}
	if !req.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if !req.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
