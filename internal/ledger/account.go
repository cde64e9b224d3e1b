// Package ledger owns user cash balances and per-symbol asset holdings.
// All mutating operations run inside a caller-provided transaction and
// acquire an exclusive lock on the affected row before touching it.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quexa/spotmatch/internal/database"
	"github.com/quexa/spotmatch/pkg/models"
)

// AccountLedger manages cash balances in the settlement currency.
type AccountLedger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAccountLedger creates a new AccountLedger.
func NewAccountLedger(db *gorm.DB, logger *zap.Logger) *AccountLedger {
	return &AccountLedger{db: db, logger: logger}
}

// GetUser returns a user by id, outside of any transaction.
func (l *AccountLedger) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := l.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// Reserve debits amount from the user's balance at order intake. Fails
// with ErrInsufficientFunds when the balance cannot cover it.
func (l *AccountLedger) Reserve(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal) error {
	user, err := l.lockUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	if user.Balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, required %s", ErrInsufficientFunds, user.Balance, amount)
	}
	return l.setBalance(ctx, tx, userID, user.Balance.Sub(amount))
}

// Release credits a previously reserved amount back on cancellation.
func (l *AccountLedger) Release(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal) error {
	return l.Credit(ctx, tx, userID, amount)
}

// Credit unconditionally adds amount to the user's balance.
func (l *AccountLedger) Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal) error {
	user, err := l.lockUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	return l.setBalance(ctx, tx, userID, user.Balance.Add(amount))
}

// Debit removes amount from the user's balance, failing with
// ErrInsufficientFunds when it cannot cover it. Used for the buyer's
// commission at settlement.
func (l *AccountLedger) Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal) error {
	user, err := l.lockUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	if user.Balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, required %s", ErrInsufficientFunds, user.Balance, amount)
	}
	return l.setBalance(ctx, tx, userID, user.Balance.Sub(amount))
}

// lockUser fetches the user row under an exclusive lock held for the
// remainder of tx.
func (l *AccountLedger) lockUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := database.LockForUpdate(tx.WithContext(ctx)).Where("id = ?", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		if database.IsConcurrencyError(err) {
			return nil, fmt.Errorf("%w: user %s", database.ErrConcurrencyAbort, userID)
		}
		return nil, fmt.Errorf("failed to lock user row: %w", err)
	}
	return &user, nil
}

func (l *AccountLedger) setBalance(ctx context.Context, tx *gorm.DB, userID uuid.UUID, balance decimal.Decimal) error {
	result := tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
