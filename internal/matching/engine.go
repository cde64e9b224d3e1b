// Package matching implements the synchronous, single-fill matching
// engine. Each match attempt is one self-contained transaction; the
// engine holds no order book between invocations.
package matching

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quexa/spotmatch/internal/ledger"
	"github.com/quexa/spotmatch/internal/notification"
	"github.com/quexa/spotmatch/internal/orders"
	"github.com/quexa/spotmatch/pkg/metrics"
	"github.com/quexa/spotmatch/pkg/models"
)

// Engine matches a just-created open order against at most one resting
// counter-order and settles both sides atomically.
type Engine struct {
	db         *gorm.DB
	store      orders.Store
	accounts   *ledger.AccountLedger
	assets     *ledger.AssetLedger
	notifier   notification.Notifier
	commission decimal.Decimal
	logger     *zap.Logger
}

// NewEngine creates a matching engine. The commission rate is the
// fraction of trade volume charged to the buyer at settlement.
func NewEngine(db *gorm.DB, store orders.Store, accounts *ledger.AccountLedger, assets *ledger.AssetLedger, notifier notification.Notifier, commission decimal.Decimal, logger *zap.Logger) *Engine {
	if notifier == nil {
		notifier = notification.Noop{}
	}
	return &Engine{
		db:         db,
		store:      store,
		accounts:   accounts,
		assets:     assets,
		notifier:   notifier,
		commission: commission,
		logger:     logger,
	}
}

// MatchOrder attempts one match for the given order. It returns the
// recorded trade, or nil when no eligible counter-order exists or a
// concurrent operation already consumed either leg. A commission
// shortfall aborts the whole attempt with ErrInsufficientFunds, leaving
// both orders open and nothing persisted.
func (e *Engine) MatchOrder(ctx context.Context, order *models.Order) (*models.Trade, error) {
	if !order.IsOpen() {
		return nil, nil
	}

	start := time.Now()
	defer func() { metrics.MatchLatency.Observe(time.Since(start).Seconds()) }()

	var (
		trade    *models.Trade
		buySnap  notification.OrderSnapshot
		sellSnap notification.OrderSnapshot
		buyerID  uuid.UUID
		sellerID uuid.UUID
	)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The search uses only immutable fields of the initiating order,
		// so it runs before any row lock is taken. Both order rows are
		// then locked together in ascending-id order; two concurrent
		// attempts over the same pair always acquire the locks in the
		// same sequence and cannot deadlock.
		counter, err := e.store.FindCounterOrder(ctx, tx, order)
		if err != nil {
			return err
		}
		if counter == nil {
			return nil
		}

		locked, err := e.store.LockPair(ctx, tx, order.ID, counter.ID)
		if err != nil {
			return err
		}
		current, candidate := locked[order.ID], locked[counter.ID]
		if current == nil || !current.IsOpen() {
			// Concurrently cancelled or already consumed by another match.
			return nil
		}
		if candidate == nil || !candidate.IsOpen() {
			// The counter-order lost a race; abandon this attempt.
			return nil
		}

		buy, sell := current, candidate
		if current.IsSell() {
			buy, sell = candidate, current
		}
		if !buy.Amount.Equal(sell.Amount) {
			// Fills never split quantities; the search enforces equal
			// amounts, so unequal legs here mean the candidate is stale.
			return nil
		}

		// The resting sell side sets the execution price.
		volume := sell.Cost()
		commission := volume.Mul(e.commission).Round(models.CashScale)

		if err := e.settle(ctx, tx, buy, sell, volume, commission); err != nil {
			return err
		}

		trade = &models.Trade{
			ID:          uuid.New(),
			BuyOrderID:  buy.ID,
			SellOrderID: sell.ID,
			Symbol:      buy.Symbol,
			Price:       sell.Price,
			Amount:      sell.Amount,
			BuyerID:     buy.UserID,
			SellerID:    sell.UserID,
			Commission:  commission,
			CreatedAt:   time.Now(),
		}
		if err := tx.WithContext(ctx).Create(trade).Error; err != nil {
			return err
		}

		if err := e.store.UpdateStatus(ctx, tx, buy.ID, models.OrderStatusFilled); err != nil {
			return err
		}
		if err := e.store.UpdateStatus(ctx, tx, sell.ID, models.OrderStatusFilled); err != nil {
			return err
		}

		buy.Status = models.OrderStatusFilled
		sell.Status = models.OrderStatusFilled
		buySnap = notification.Snapshot(buy)
		sellSnap = notification.Snapshot(sell)
		buyerID, sellerID = buy.UserID, sell.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, nil
	}

	metrics.TradesExecuted.WithLabelValues(trade.Symbol).Inc()
	e.logger.Info("Trade executed",
		zap.String("trade_id", trade.ID.String()),
		zap.String("symbol", trade.Symbol),
		zap.String("price", trade.Price.String()),
		zap.String("amount", trade.Amount.String()),
		zap.String("commission", trade.Commission.String()))

	// Published only after the transaction committed; delivery failures
	// are the transport's problem.
	e.notifier.NotifyMatch(ctx, notification.MatchEvent{
		BuyOrder:  buySnap,
		SellOrder: sellSnap,
	}, buyerID, sellerID)

	return trade, nil
}

// settle moves cash and assets between the two parties. Account rows
// are locked in ascending user-id order; the buyer pays the commission
// on top of the already-reserved purchase cost, the seller receives the
// full volume.
func (e *Engine) settle(ctx context.Context, tx *gorm.DB, buy, sell *models.Order, volume, commission decimal.Decimal) error {
	debitBuyer := func() error { return e.accounts.Debit(ctx, tx, buy.UserID, commission) }
	creditSeller := func() error { return e.accounts.Credit(ctx, tx, sell.UserID, volume) }

	steps := []func() error{debitBuyer, creditSeller}
	if bytes.Compare(sell.UserID[:], buy.UserID[:]) < 0 {
		steps = []func() error{creditSeller, debitBuyer}
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	return e.assets.TransferOnFill(ctx, tx, sell.UserID, buy.UserID, buy.Symbol, sell.Amount)
}
