package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quexa/spotmatch/pkg/models"
)

// ListFilter narrows ListOrders results. Nil fields match everything.
type ListFilter struct {
	Symbol *string
	Status *string
	Side   *string
}

// Store is the durable record of orders. Mutating methods operate
// inside a caller-provided transaction; lock-acquiring methods hold the
// row lock until that transaction ends.
type Store interface {
	Create(ctx context.Context, tx *gorm.DB, order *models.Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// GetOwnedForUpdate fetches the order under an exclusive row lock,
	// scoped to its owner.
	GetOwnedForUpdate(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID) (*models.Order, error)
	// LockPair locks both order rows in ascending-id order within one
	// query and returns whichever of them still exist.
	LockPair(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (map[uuid.UUID]*models.Order, error)
	// FindCounterOrder selects the single best eligible counter-order
	// for the given open order by price-time priority, or nil when the
	// book holds none.
	FindCounterOrder(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Order, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status string) error
	List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*models.Order, error)
}
