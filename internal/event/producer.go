package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
	pkgkafka "github.com/NEARBuilders/near-merch-store-sub000/pkg/kafka"
)

// Kafka topic constants for marketplace order events.
const (
	TopicOrderStatusChanged = "marketplace.order.status_changed"
	TopicProductsSynced     = "marketplace.products.synced"
)

// Aggregate type constants.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeCatalog = "catalog"
)

// Source identifier for events originating from this service.
const SourceMerchStore = "merch-store"

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string                  `json:"order_id"`
	OldStatus string                  `json:"old_status"`
	NewStatus string                  `json:"new_status"`
	Provider  string                  `json:"provider,omitempty"`
	Tracking  []domain.TrackingRecord `json:"tracking,omitempty"`
}

// ProductsSyncedData is the payload for a products.synced event.
type ProductsSyncedData struct {
	Count    int    `json:"count"`
	Removed  int    `json:"removed"`
	Duration string `json:"duration"`
}

// Producer publishes marketplace domain events to Kafka. Webhook and sync
// outcomes are published for downstream consumers (notifications, search
// indexing); publish failures are logged by callers and never fail the
// triggering operation.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, data OrderStatusChangedData) error {
	event, err := pkgkafka.NewEvent(TopicOrderStatusChanged, data.OrderID, AggregateTypeOrder, SourceMerchStore, data)
	if err != nil {
		return fmt.Errorf("create order.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderStatusChanged, event); err != nil {
		return fmt.Errorf("publish order.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.String("order_id", data.OrderID),
		slog.String("old_status", data.OldStatus),
		slog.String("new_status", data.NewStatus),
	)
	return nil
}

// PublishProductsSynced publishes a products.synced event after a
// successful catalog sync.
func (p *Producer) PublishProductsSynced(ctx context.Context, data ProductsSyncedData) error {
	event, err := pkgkafka.NewEvent(TopicProductsSynced, domain.SyncStateKeyProducts, AggregateTypeCatalog, SourceMerchStore, data)
	if err != nil {
		return fmt.Errorf("create products.synced event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductsSynced, event); err != nil {
		return fmt.Errorf("publish products.synced event: %w", err)
	}

	p.logger.DebugContext(ctx, "published products.synced event",
		slog.Int("count", data.Count),
		slog.Int("removed", data.Removed),
	)
	return nil
}
