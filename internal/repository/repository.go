package repository

import (
	"context"
	"time"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider"
)

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	Status  *string
	Page    int
	PerPage int
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByExternalID retrieves an order by the fulfillment correlation key.
	GetByExternalID(ctx context.Context, externalID string) (*domain.Order, error)

	// GetByCheckoutSession retrieves an order by its checkout session id.
	GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Order, error)

	// List returns orders matching the given filter along with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// ListStaleDrafts returns non-terminal draft orders older than the cutoff.
	ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]domain.Order, error)

	// UpdateStatus changes the status of an order.
	UpdateStatus(ctx context.Context, id string, status string) error

	// UpdateTracking replaces the order's tracking records.
	UpdateTracking(ctx context.Context, id string, tracking []domain.TrackingRecord) error
}

// ProductRepository persists the synced provider catalog.
type ProductRepository interface {
	// Upsert inserts or updates one product and its variants; returns the
	// number of variants written.
	Upsert(ctx context.Context, product *provider.Product) (int, error)

	// DeleteMissing removes products for the given provider whose ids are
	// not in keep; returns the number of products removed.
	DeleteMissing(ctx context.Context, providerName string, keep []string) (int, error)
}

// SyncStateStore persists sync coordinator state keyed by logical
// resource name. Both the sync entry point and status reads go through
// it, so an in-memory implementation can stand in for tests.
type SyncStateStore interface {
	// Get returns the stored state for the key. A key never written
	// returns a zero-value idle state, not an error.
	Get(ctx context.Context, key string) (domain.SyncState, error)

	// Set overwrites the stored state for the key.
	Set(ctx context.Context, key string, state domain.SyncState) error
}
