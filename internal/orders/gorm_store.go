package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quexa/spotmatch/internal/database"
	"github.com/quexa/spotmatch/pkg/models"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore creates a new GORM-based order store.
func NewGormStore(db *gorm.DB, logger *zap.Logger) *GormStore {
	return &GormStore{db: db, logger: logger}
}

// Create persists a new order within the transaction.
func (s *GormStore) Create(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if err := tx.WithContext(ctx).Create(order).Error; err != nil {
		s.logger.Error("Failed to create order", zap.Error(err), zap.String("order_id", order.ID.String()))
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order without locking it.
func (s *GormStore) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// GetOwnedForUpdate fetches the user's order under an exclusive row lock.
func (s *GormStore) GetOwnedForUpdate(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := database.LockForUpdate(tx.WithContext(ctx)).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		if database.IsConcurrencyError(err) {
			return nil, fmt.Errorf("%w: order %s", database.ErrConcurrencyAbort, orderID)
		}
		return nil, fmt.Errorf("failed to lock order row: %w", err)
	}
	return &order, nil
}

// LockPair locks both order rows with one query ordered by id, so that
// two concurrent match attempts over the same pair always acquire the
// locks in the same sequence.
func (s *GormStore) LockPair(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (map[uuid.UUID]*models.Order, error) {
	var rows []*models.Order
	err := database.LockForUpdate(tx.WithContext(ctx)).
		Where("id IN ?", []uuid.UUID{a, b}).
		Order("id").
		Find(&rows).Error
	if err != nil {
		if database.IsConcurrencyError(err) {
			return nil, fmt.Errorf("%w: orders %s/%s", database.ErrConcurrencyAbort, a, b)
		}
		return nil, fmt.Errorf("failed to lock order pair: %w", err)
	}
	locked := make(map[uuid.UUID]*models.Order, len(rows))
	for _, row := range rows {
		locked[row.ID] = row
	}
	return locked, nil
}

// FindCounterOrder selects the best-priced eligible counter-order, ties
// broken by earliest creation. Only orders with the same amount are
// eligible: fills never split quantities, so both legs must carry equal
// amounts.
func (s *GormStore) FindCounterOrder(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Order, error) {
	query := tx.WithContext(ctx).
		Where("symbol = ? AND status = ? AND amount = ?", order.Symbol, models.OrderStatusOpen, order.Amount)

	if order.IsBuy() {
		query = query.
			Where("side = ? AND price <= ?", models.OrderSideSell, order.Price).
			Order("price asc")
	} else {
		query = query.
			Where("side = ? AND price >= ?", models.OrderSideBuy, order.Price).
			Order("price desc")
	}

	var counter models.Order
	err := query.Order("created_at asc").First(&counter).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find counter order: %w", err)
	}
	return &counter, nil
}

// UpdateStatus transitions an order's status within the transaction.
func (s *GormStore) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status string) error {
	result := tx.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// List returns the user's orders newest-first, optionally filtered by
// symbol, status and side.
func (s *GormStore) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*models.Order, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Symbol != nil {
		query = query.Where("symbol = ?", *filter.Symbol)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Side != nil {
		query = query.Where("side = ?", *filter.Side)
	}

	var list []*models.Order
	if err := query.Order("created_at desc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return list, nil
}
