package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quexa/spotmatch/pkg/models"
)

func seedHolding(t *testing.T, db *gorm.DB, userID uuid.UUID, symbol, amount string) {
	t.Helper()
	holding := &models.AssetHolding{
		ID:           uuid.New(),
		UserID:       userID,
		Symbol:       symbol,
		Amount:       decimal.RequireFromString(amount),
		LockedAmount: decimal.Zero,
	}
	require.NoError(t, db.Create(holding).Error)
}

func getHolding(t *testing.T, db *gorm.DB, userID uuid.UUID, symbol string) *models.AssetHolding {
	t.Helper()
	var holding models.AssetHolding
	require.NoError(t, db.First(&holding, "user_id = ? AND symbol = ?", userID, symbol).Error)
	return &holding
}

func TestAssetReserveAndRelease(t *testing.T) {
	db := setupLedgerDB(t)
	assets := NewAssetLedger(db, zap.NewNop())
	ctx := context.Background()
	userID := seedUser(t, db, "0")
	seedHolding(t, db, userID, "BTC", "2")

	require.NoError(t, assets.Reserve(ctx, db, userID, "BTC", decimal.RequireFromString("1.5")))
	holding := getHolding(t, db, userID, "BTC")
	assert.True(t, holding.Amount.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, holding.LockedAmount.Equal(decimal.RequireFromString("1.5")))

	require.NoError(t, assets.Release(ctx, db, userID, "BTC", decimal.RequireFromString("1.5")))
	holding = getHolding(t, db, userID, "BTC")
	assert.True(t, holding.Amount.Equal(decimal.RequireFromString("2")))
	assert.True(t, holding.LockedAmount.IsZero())
}

func TestAssetReserveInsufficient(t *testing.T) {
	db := setupLedgerDB(t)
	assets := NewAssetLedger(db, zap.NewNop())
	ctx := context.Background()
	userID := seedUser(t, db, "0")
	seedHolding(t, db, userID, "BTC", "1")

	err := assets.Reserve(ctx, db, userID, "BTC", decimal.RequireFromString("1.00000001"))
	require.ErrorIs(t, err, ErrInsufficientAsset)

	holding := getHolding(t, db, userID, "BTC")
	assert.True(t, holding.Amount.Equal(decimal.RequireFromString("1")))
	assert.True(t, holding.LockedAmount.IsZero())
}

func TestAssetReserveWithoutHolding(t *testing.T) {
	db := setupLedgerDB(t)
	assets := NewAssetLedger(db, zap.NewNop())
	ctx := context.Background()
	userID := seedUser(t, db, "0")

	// First touch creates an empty holding row, which cannot cover
	// any positive reservation.
	err := assets.Reserve(ctx, db, userID, "ETH", decimal.RequireFromString("0.1"))
	require.ErrorIs(t, err, ErrInsufficientAsset)

	holding := getHolding(t, db, userID, "ETH")
	assert.True(t, holding.Amount.IsZero())
	assert.True(t, holding.LockedAmount.IsZero())
}

func TestTransferOnFill(t *testing.T) {
	db := setupLedgerDB(t)
	assets := NewAssetLedger(db, zap.NewNop())
	ctx := context.Background()
	sellerID := seedUser(t, db, "0")
	buyerID := seedUser(t, db, "0")
	seedHolding(t, db, sellerID, "BTC", "1")

	require.NoError(t, assets.Reserve(ctx, db, sellerID, "BTC", decimal.RequireFromString("1")))
	require.NoError(t, assets.TransferOnFill(ctx, db, sellerID, buyerID, "BTC", decimal.RequireFromString("1")))

	seller := getHolding(t, db, sellerID, "BTC")
	assert.True(t, seller.Amount.IsZero())
	assert.True(t, seller.LockedAmount.IsZero())

	// The buyer's holding row is created on first fill.
	buyer := getHolding(t, db, buyerID, "BTC")
	assert.True(t, buyer.Amount.Equal(decimal.RequireFromString("1")))
	assert.True(t, buyer.LockedAmount.IsZero())
}

func TestHoldingsListing(t *testing.T) {
	db := setupLedgerDB(t)
	assets := NewAssetLedger(db, zap.NewNop())
	ctx := context.Background()
	userID := seedUser(t, db, "0")
	seedHolding(t, db, userID, "BTC", "1")
	seedHolding(t, db, userID, "ETH", "10")

	holdings, err := assets.Holdings(ctx, userID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
}
