package webhook

import (
	"encoding/json"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
)

// Normalized payment event types.
const (
	PaymentEventSuccess = "payment_success"
	PaymentEventFailed  = "payment_failed"
)

// PaymentEvent is a normalized payment-provider webhook event. OrderID is
// preferred for order resolution; CheckoutSessionID is the fallback when
// the provider only echoes the session.
type PaymentEvent struct {
	Provider          string
	Type              string
	OrderID           string
	CheckoutSessionID string
}

// pingPayPayload mirrors the subset of PingPay's webhook body we care
// about.
type pingPayPayload struct {
	Event string `json:"event"`
	Data  struct {
		OrderID   string `json:"order_id"`
		SessionID string `json:"session_id"`
	} `json:"data"`
}

// pingPayEvents maps PingPay event names onto the two payment outcomes.
var pingPayEvents = map[string]string{
	"checkout.session.completed": PaymentEventSuccess,
	"payment.success":            PaymentEventSuccess,
	"payment.failed":             PaymentEventFailed,
}

// NormalizePingPay decodes a PingPay webhook body. Never fails; anything
// unrecognized becomes the unknown event and is acknowledged without
// processing.
func NormalizePingPay(raw []byte) PaymentEvent {
	var p pingPayPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return PaymentEvent{Provider: ProviderPingPay, Type: domain.EventUnknown}
	}

	eventType, ok := pingPayEvents[p.Event]
	if !ok {
		eventType = domain.EventUnknown
	}
	return PaymentEvent{
		Provider:          ProviderPingPay,
		Type:              eventType,
		OrderID:           p.Data.OrderID,
		CheckoutSessionID: p.Data.SessionID,
	}
}
