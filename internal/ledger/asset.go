package ledger

import (
	"bytes"
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

// AssetLedger manages per-user, per-symbol holdings split into an
// available amount and a locked amount.
type AssetLedger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAssetLedger creates a new AssetLedger.
func NewAssetLedger(db *gorm.DB, logger *zap.Logger) *AssetLedger {
	return &AssetLedger{db: db, logger: logger}
}

// Holdings returns all holdings for a user, outside of any transaction.
func (l *AssetLedger) Holdings(ctx context.Context, userID uuid.UUID) ([]*models.AssetHolding, error) {
	var holdings []*models.AssetHolding
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).Order("symbol").Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("failed to find holdings: %w", err)
	}
	return holdings, nil
}

// Reserve moves amount from available to locked at order intake,
// creating a zero-initialized holding row on first use. Fails with
// ErrInsufficientAsset when the available amount cannot cover it.
func (l *AssetLedger) Reserve(ctx context.Context, tx *gorm.DB, userID uuid.UUID, symbol string, amount decimal.Decimal) error {
	holding, err := l.lockOrCreateHolding(ctx, tx, userID, symbol)
	if err != nil {
		return err
	}
	if holding.Amount.LessThan(amount) {
		return fmt.Errorf("%w: %s available %s, required %s", ErrInsufficientAsset, symbol, holding.Amount, amount)
	}
	return l.setHolding(ctx, tx, holding.ID, holding.Amount.Sub(amount), holding.LockedAmount.Add(amount))
}

// Release moves amount from locked back to available on cancellation.
func (l *AssetLedger) Release(ctx context.Context, tx *gorm.DB, userID uuid.UUID, symbol string, amount decimal.Decimal) error {
	holding, err := l.lockHolding(ctx, tx, userID, symbol)
	if err != nil {
		return err
	}
	if holding.LockedAmount.LessThan(amount) {
		return fmt.Errorf("%w: %s locked %s, release %s", ErrInsufficientAsset, symbol, holding.LockedAmount, amount)
	}
	return l.setHolding(ctx, tx, holding.ID, holding.Amount.Add(amount), holding.LockedAmount.Sub(amount))
}

// TransferOnFill settles the asset leg of a trade: the seller's locked
// amount decreases and the buyer's available amount increases by the
// same quantity. Holding rows are locked in ascending user-id order so
// concurrent settlements cannot form a lock cycle.
func (l *AssetLedger) TransferOnFill(ctx context.Context, tx *gorm.DB, sellerID, buyerID uuid.UUID, symbol string, amount decimal.Decimal) error {
	first, second := sellerID, buyerID
	if bytes.Compare(buyerID[:], sellerID[:]) < 0 {
		first, second = buyerID, sellerID
	}

	if _, err := l.lockOrCreateHolding(ctx, tx, first, symbol); err != nil {
		return err
	}
	if _, err := l.lockOrCreateHolding(ctx, tx, second, symbol); err != nil {
		return err
	}

	seller, err := l.lockHolding(ctx, tx, sellerID, symbol)
	if err != nil {
		return err
	}
	if seller.LockedAmount.LessThan(amount) {
		return fmt.Errorf("%w: seller %s locked %s, fill %s", ErrInsufficientAsset, symbol, seller.LockedAmount, amount)
	}
	if err := l.setHolding(ctx, tx, seller.ID, seller.Amount, seller.LockedAmount.Sub(amount)); err != nil {
		return err
	}

	buyer, err := l.lockHolding(ctx, tx, buyerID, symbol)
	if err != nil {
		return err
	}
	return l.setHolding(ctx, tx, buyer.ID, buyer.Amount.Add(amount), buyer.LockedAmount)
}

// lockHolding fetches an existing holding row under an exclusive lock.
func (l *AssetLedger) lockHolding(ctx context.Context, tx *gorm.DB, userID uuid.UUID, symbol string) (*models.AssetHolding, error) {
	var holding models.AssetHolding
	err := database.LockForUpdate(tx.WithContext(ctx)).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		First(&holding).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: no %s holding for user %s", ErrInsufficientAsset, symbol, userID)
		}
		if database.IsConcurrencyError(err) {
			return nil, fmt.Errorf("%w: holding %s/%s", database.ErrConcurrencyAbort, userID, symbol)
		}
		return nil, fmt.Errorf("failed to lock holding row: %w", err)
	}
	return &holding, nil
}

// lockOrCreateHolding locks the holding row, creating a zero-initialized
// one when the user has never held the symbol.
func (l *AssetLedger) lockOrCreateHolding(ctx context.Context, tx *gorm.DB, userID uuid.UUID, symbol string) (*models.AssetHolding, error) {
	var holding models.AssetHolding
	err := database.LockForUpdate(tx.WithContext(ctx)).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		First(&holding).Error
	if err == nil {
		return &holding, nil
	}
	if err != gorm.ErrRecordNotFound {
		if database.IsConcurrencyError(err) {
			return nil, fmt.Errorf("%w: holding %s/%s", database.ErrConcurrencyAbort, userID, symbol)
		}
		return nil, fmt.Errorf("failed to lock holding row: %w", err)
	}

	holding = models.AssetHolding{
		ID:           uuid.New(),
		UserID:       userID,
		Symbol:       symbol,
		Amount:       decimal.Zero,
		LockedAmount: decimal.Zero,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := tx.WithContext(ctx).Create(&holding).Error; err != nil {
		return nil, fmt.Errorf("failed to create holding row: %w", err)
	}
	return &holding, nil
}

func (l *AssetLedger) setHolding(ctx context.Context, tx *gorm.DB, holdingID uuid.UUID, amount, locked decimal.Decimal) error {
	result := tx.WithContext(ctx).Model(&models.AssetHolding{}).
		Where("id = ?", holdingID).
		Updates(map[string]interface{}{
			"amount":        amount,
			"locked_amount": locked,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update holding: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("holding %s disappeared during update", holdingID)
	}
	return nil
}
