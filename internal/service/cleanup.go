package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/event"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/repository"
)

// CleanupService cancels draft orders whose checkout was abandoned: the
// order never received a payment webhook and has sat in a pre-payment
// state longer than maxAge. Provider-side draft orders are cancelled
// before the local row is marked cancelled so drafts are not orphaned at
// the provider.
type CleanupService struct {
	orders   repository.OrderRepository
	registry *provider.Registry
	producer *event.Producer
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// NewCleanupService creates a cleanup service. maxAge is how old an
// unpaid draft must be before cancellation; interval is the sweep period.
func NewCleanupService(
	orders repository.OrderRepository,
	registry *provider.Registry,
	producer *event.Producer,
	maxAge, interval time.Duration,
	logger *slog.Logger,
) *CleanupService {
	return &CleanupService{
		orders:   orders,
		registry: registry,
		producer: producer,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *CleanupService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "stale draft sweep failed",
					slog.String("error", err.Error()),
				)
			} else if n > 0 {
				s.logger.InfoContext(ctx, "cancelled stale draft orders",
					slog.Int("count", n),
				)
			}
		}
	}
}

// RunOnce cancels all currently stale drafts and returns how many were
// cancelled. Individual order failures are logged and skipped so one bad
// row cannot stall the sweep; a skipped order is retried on the next run.
func (s *CleanupService) RunOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.maxAge)
	stale, err := s.orders.ListStaleDrafts(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, order := range stale {
		if !s.cancelProviderDrafts(ctx, &order) {
			continue
		}
		if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled); err != nil {
			s.logger.WarnContext(ctx, "failed to cancel stale draft",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		cancelled++
		if s.producer != nil {
			if err := s.producer.PublishOrderStatusChanged(ctx, event.OrderStatusChangedData{
				OrderID:   order.ID,
				OldStatus: order.Status,
				NewStatus: domain.OrderStatusCancelled,
			}); err != nil {
				s.logger.WarnContext(ctx, "failed to publish cancellation event",
					slog.String("order_id", order.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return cancelled, nil
}

// cancelProviderDrafts cancels each provider-side draft order. A remote
// cancellation failure leaves the order for the next sweep; an
// unregistered provider is logged and skipped, since no later sweep could
// ever reach it either.
func (s *CleanupService) cancelProviderDrafts(ctx context.Context, order *domain.Order) bool {
	for providerName, draftID := range order.DraftOrderIDs {
		client, ok := s.registry.Get(providerName)
		if !ok {
			s.logger.WarnContext(ctx, "no client for provider draft, skipping remote cancellation",
				slog.String("order_id", order.ID),
				slog.String("provider", providerName),
			)
			continue
		}
		if err := client.CancelOrder(ctx, draftID); err != nil {
			s.logger.WarnContext(ctx, "failed to cancel provider draft order",
				slog.String("order_id", order.ID),
				slog.String("provider", providerName),
				slog.String("draft_order_id", draftID),
				slog.String("error", err.Error()),
			)
			return false
		}
	}
	return true
}
