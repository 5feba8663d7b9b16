package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/event"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/repository"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/webhook"
	apperrors "github.com/NEARBuilders/near-merch-store-sub000/pkg/errors"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/retry"
)

// WebhookSecrets holds the per-provider shared secrets (hex-encoded). An
// empty secret disables signature verification for that provider.
type WebhookSecrets struct {
	Printful string
	Gelato   string
	PingPay  string
}

// WebhookService orchestrates one inbound webhook call: verify, parse,
// resolve, transition, persist, side effects. Every normal completion is
// acknowledged; only a signature failure returns an error, so providers
// never retry-storm over events we cannot apply.
type WebhookService struct {
	orders   repository.OrderRepository
	registry *provider.Registry
	producer *event.Producer
	secrets  WebhookSecrets
	retryCfg retry.Config
	logger   *slog.Logger
}

// NewWebhookService creates a webhook service. retryCfg bounds the
// downstream fulfillment confirmation retries.
func NewWebhookService(
	orders repository.OrderRepository,
	registry *provider.Registry,
	producer *event.Producer,
	secrets WebhookSecrets,
	retryCfg retry.Config,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		orders:   orders,
		registry: registry,
		producer: producer,
		secrets:  secrets,
		retryCfg: retryCfg,
		logger:   logger,
	}
}

// HandleFulfillmentWebhook processes a Printful or Gelato webhook. A nil
// return means the event was acknowledged, whether or not it changed
// anything. The only error returned is Unauthorized for a bad signature.
func (s *WebhookService) HandleFulfillmentWebhook(ctx context.Context, providerName string, rawBody []byte, signature string) error {
	var (
		secret string
		ev     webhook.Event
	)
	switch providerName {
	case webhook.ProviderPrintful:
		secret = s.secrets.Printful
	case webhook.ProviderGelato:
		secret = s.secrets.Gelato
	default:
		return apperrors.NotFound("webhook provider", providerName)
	}

	if secret != "" {
		if err := webhook.VerifySignature(rawBody, secret, signature); err != nil {
			return err
		}
	}

	switch providerName {
	case webhook.ProviderPrintful:
		ev = webhook.NormalizePrintful(rawBody)
	case webhook.ProviderGelato:
		ev = webhook.NormalizeGelato(rawBody)
	}

	if ev.Type == domain.EventUnknown {
		s.logger.InfoContext(ctx, "ignoring unknown webhook event",
			slog.String("provider", providerName),
		)
		return nil
	}
	if ev.ExternalOrderID == "" {
		// Not order-scoped; nothing to apply.
		s.logger.InfoContext(ctx, "webhook event carries no order reference",
			slog.String("provider", providerName),
			slog.String("event", ev.Type),
		)
		return nil
	}

	order, err := s.orders.GetByExternalID(ctx, ev.ExternalOrderID)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook references unknown order",
			slog.String("provider", providerName),
			slog.String("event", ev.Type),
			slog.String("external_order_id", ev.ExternalOrderID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	res := domain.Transition(order.Status, ev.Type, ev.Shipment)
	if !res.StatusChanged && res.Tracking == nil {
		s.logger.InfoContext(ctx, "webhook event produced no transition",
			slog.String("provider", providerName),
			slog.String("event", ev.Type),
			slog.String("order_id", order.ID),
			slog.String("status", order.Status),
		)
		return nil
	}

	if res.StatusChanged {
		if err := s.orders.UpdateStatus(ctx, order.ID, res.Status); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist status transition",
				slog.String("order_id", order.ID),
				slog.String("event", ev.Type),
				slog.String("new_status", res.Status),
				slog.String("error", err.Error()),
			)
			return nil
		}
	}
	if res.Tracking != nil {
		if err := s.orders.UpdateTracking(ctx, order.ID, []domain.TrackingRecord{*res.Tracking}); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist tracking update",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
			return nil
		}
	}

	if res.StatusChanged {
		s.publishStatusChange(ctx, order, res.Status, providerName, res.Tracking)
	}

	s.logger.InfoContext(ctx, "applied fulfillment webhook",
		slog.String("provider", providerName),
		slog.String("event", ev.Type),
		slog.String("order_id", order.ID),
		slog.String("old_status", order.Status),
		slog.String("new_status", res.Status),
	)
	return nil
}

// HandlePaymentWebhook processes a PingPay webhook. Success events are
// guarded against replay, persist the payment fact first, then confirm
// every draft fulfillment order independently with bounded retry.
func (s *WebhookService) HandlePaymentWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if s.secrets.PingPay != "" {
		if err := webhook.VerifySignature(rawBody, s.secrets.PingPay, signature); err != nil {
			return err
		}
	}

	ev := webhook.NormalizePingPay(rawBody)
	if ev.Type == domain.EventUnknown {
		s.logger.InfoContext(ctx, "ignoring unknown payment event")
		return nil
	}

	order := s.resolvePaymentOrder(ctx, ev)
	if order == nil {
		return nil
	}

	switch ev.Type {
	case webhook.PaymentEventFailed:
		if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPaymentFailed); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist payment failure",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		s.publishStatusChange(ctx, order, domain.OrderStatusPaymentFailed, webhook.ProviderPingPay, nil)
		return nil

	case webhook.PaymentEventSuccess:
		return s.handlePaymentSuccess(ctx, order)
	}
	return nil
}

func (s *WebhookService) resolvePaymentOrder(ctx context.Context, ev webhook.PaymentEvent) *domain.Order {
	if ev.OrderID != "" {
		if order, err := s.orders.GetByID(ctx, ev.OrderID); err == nil {
			return order
		}
	}
	if ev.CheckoutSessionID != "" {
		if order, err := s.orders.GetByCheckoutSession(ctx, ev.CheckoutSessionID); err == nil {
			return order
		}
	}
	s.logger.WarnContext(ctx, "payment webhook references unknown order",
		slog.String("event", ev.Type),
		slog.String("order_id", ev.OrderID),
		slog.String("session_id", ev.CheckoutSessionID),
	)
	return nil
}

func (s *WebhookService) handlePaymentSuccess(ctx context.Context, order *domain.Order) error {
	if !domain.PaymentConfirmable(order.Status) {
		// At-least-once delivery: a replayed success event on an order
		// that already moved on must not re-trigger confirmation.
		s.logger.InfoContext(ctx, "payment success already processed",
			slog.String("order_id", order.ID),
			slog.String("status", order.Status),
		)
		return nil
	}

	// The payment fact is certain even if confirmation fails below.
	if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPaid); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist paid status",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	s.publishStatusChange(ctx, order, domain.OrderStatusPaid, webhook.ProviderPingPay, nil)
	order.Status = domain.OrderStatusPaid

	allConfirmed := true
	for providerName, draftID := range order.DraftOrderIDs {
		if err := s.confirmDraft(ctx, providerName, draftID); err != nil {
			allConfirmed = false
			s.logger.ErrorContext(ctx, "draft order confirmation failed",
				slog.String("order_id", order.ID),
				slog.String("provider", providerName),
				slog.String("draft_order_id", draftID),
				slog.String("error_type", provider.ClassifyError(err)),
				slog.String("error", err.Error()),
			)
		}
	}

	finalStatus := domain.OrderStatusProcessing
	if !allConfirmed {
		finalStatus = domain.OrderStatusPaidPendingFulfillment
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, finalStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist post-confirmation status",
			slog.String("order_id", order.ID),
			slog.String("status", finalStatus),
			slog.String("error", err.Error()),
		)
		return nil
	}
	s.publishStatusChange(ctx, order, finalStatus, webhook.ProviderPingPay, nil)

	s.logger.InfoContext(ctx, "payment success processed",
		slog.String("order_id", order.ID),
		slog.String("final_status", finalStatus),
	)
	return nil
}

// confirmDraft confirms one provider's draft order with bounded retry.
// Manual drafts need no remote call and always succeed.
func (s *WebhookService) confirmDraft(ctx context.Context, providerName, draftID string) error {
	if providerName == domain.ManualProvider {
		return nil
	}
	client, ok := s.registry.Get(providerName)
	if !ok {
		return fmt.Errorf("no client configured for provider %q", providerName)
	}
	_, err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, client.ConfirmOrder(ctx, draftID)
	})
	return err
}

func (s *WebhookService) publishStatusChange(ctx context.Context, order *domain.Order, newStatus, providerName string, tracking *domain.TrackingRecord) {
	if s.producer == nil {
		return
	}
	data := event.OrderStatusChangedData{
		OrderID:   order.ID,
		OldStatus: order.Status,
		NewStatus: newStatus,
		Provider:  providerName,
	}
	if tracking != nil {
		data.Tracking = []domain.TrackingRecord{*tracking}
	}
	if err := s.producer.PublishOrderStatusChanged(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "failed to publish status change event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
}
