package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order sides
const (
	OrderSideBuy  = "buy"
	OrderSideSell = "sell"
)

// Order statuses. Filled and cancelled are terminal.
const (
	OrderStatusOpen      = "open"
	OrderStatusFilled    = "filled"
	OrderStatusCancelled = "cancelled"
)

// Decimal scales: cash amounts are stored at scale 2 in the settlement
// currency, asset quantities at scale 8.
const (
	CashScale  = 2
	AssetScale = 8
)

// User represents a user in the system. Balance is the cash balance in
// the settlement currency and is mutated only by the account ledger
// inside a transaction.
type User struct {
	ID        uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	Email     string          `json:"email" gorm:"uniqueIndex"`
	Username  string          `json:"username" gorm:"uniqueIndex"`
	Balance   decimal.Decimal `json:"balance" gorm:"type:decimal(20,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AssetHolding represents a user's holding for one symbol, split into an
// available and a locked quantity. The total (amount + locked_amount)
// changes only through reserve, release, or transfer-on-fill.
type AssetHolding struct {
	ID           uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	UserID       uuid.UUID       `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_holdings_user_symbol"`
	Symbol       string          `json:"symbol" gorm:"uniqueIndex:idx_holdings_user_symbol"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(30,8);not null"`
	LockedAmount decimal.Decimal `json:"locked_amount" gorm:"type:decimal(30,8);not null"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Order represents a limit order. Price, amount, side, symbol and owner
// are immutable after creation; only the status transitions
// open -> filled or open -> cancelled.
type Order struct {
	ID        uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID       `json:"user_id" gorm:"type:uuid;index"`
	Symbol    string          `json:"symbol" gorm:"index"`
	Side      string          `json:"side" gorm:"index"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(30,8);not null"`
	Status    string          `json:"status" gorm:"index"`
	CreatedAt time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsOpen reports whether the order can still be matched or cancelled.
func (o *Order) IsOpen() bool { return o.Status == OrderStatusOpen }

// IsBuy reports whether the order is a buy order.
func (o *Order) IsBuy() bool { return o.Side == OrderSideBuy }

// IsSell reports whether the order is a sell order.
func (o *Order) IsSell() bool { return o.Side == OrderSideSell }

// Cost returns the cash required to fill the order in full, rounded to
// the cash scale. The same value is reserved at intake and released on
// cancellation.
func (o *Order) Cost() decimal.Decimal {
	return o.Price.Mul(o.Amount).Round(CashScale)
}

// Trade is the immutable record of one match. Commission is the fee
// charged to the buyer in the settlement currency.
type Trade struct {
	ID          uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	BuyOrderID  uuid.UUID       `json:"buy_order_id" gorm:"type:uuid;index"`
	SellOrderID uuid.UUID       `json:"sell_order_id" gorm:"type:uuid;index"`
	Symbol      string          `json:"symbol" gorm:"index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(30,8);not null"`
	BuyerID     uuid.UUID       `json:"buyer_id" gorm:"type:uuid;index"`
	SellerID    uuid.UUID       `json:"seller_id" gorm:"type:uuid;index"`
	Commission  decimal.Decimal `json:"commission" gorm:"type:decimal(20,2);not null"`
	CreatedAt   time.Time       `json:"created_at"`
}
