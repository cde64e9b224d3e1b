// Package notification defines the outbound match notification boundary.
// The engine publishes one event per successful trade after commit;
// delivery is fire-and-forget.
package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quexa/spotmatch/pkg/models"
)

// OrderSnapshot is the immutable view of an order carried in a match
// event.
type OrderSnapshot struct {
	ID     uuid.UUID       `json:"id"`
	Status string          `json:"status"`
	Symbol string          `json:"symbol"`
	Side   string          `json:"side"`
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// Snapshot captures an order's event view.
func Snapshot(o *models.Order) OrderSnapshot {
	return OrderSnapshot{
		ID:     o.ID,
		Status: o.Status,
		Symbol: o.Symbol,
		Side:   o.Side,
		Price:  o.Price,
		Amount: o.Amount,
	}
}

// MatchEvent is published once per trade, addressed to both owners.
type MatchEvent struct {
	BuyOrder  OrderSnapshot `json:"buy_order"`
	SellOrder OrderSnapshot `json:"sell_order"`
}

// Notifier delivers match events to the owners of both orders. Failed
// delivery is not retried and never affects the committed trade.
type Notifier interface {
	NotifyMatch(ctx context.Context, event MatchEvent, buyerID, sellerID uuid.UUID)
}

// Multi fans one event out to several notifiers.
type Multi []Notifier

// NotifyMatch delivers the event through every member.
func (m Multi) NotifyMatch(ctx context.Context, event MatchEvent, buyerID, sellerID uuid.UUID) {
	for _, n := range m {
		n.NotifyMatch(ctx, event, buyerID, sellerID)
	}
}

// Noop discards every event.
type Noop struct{}

// NotifyMatch implements Notifier.
func (Noop) NotifyMatch(context.Context, MatchEvent, uuid.UUID, uuid.UUID) {}
