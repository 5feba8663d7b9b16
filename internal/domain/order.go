package domain

import "time"

// Order status constants. The happy path is
// pending → paid → processing → printing → shipped → delivered, but
// webhook-driven transitions may branch sideways at almost any point;
// Transition and ApplyPaymentSuccess are authoritative, not this list.
const (
	OrderStatusPending                = "pending"
	OrderStatusDraftCreated           = "draft_created"
	OrderStatusPaymentPending         = "payment_pending"
	OrderStatusPaid                   = "paid"
	OrderStatusPaidPendingFulfillment = "paid_pending_fulfillment"
	OrderStatusProcessing             = "processing"
	OrderStatusOnHold                 = "on_hold"
	OrderStatusPrinting               = "printing"
	OrderStatusShipped                = "shipped"
	OrderStatusDelivered              = "delivered"
	OrderStatusReturned               = "returned"
	OrderStatusPartiallyCancelled     = "partially_cancelled"
	OrderStatusCancelled              = "cancelled"
	OrderStatusPaymentFailed          = "payment_failed"
	OrderStatusFailed                 = "failed"
	OrderStatusRefunded               = "refunded"
)

// ManualProvider is the draft-order entry for items fulfilled by hand.
// Payment confirmation treats it as already confirmed instead of looking
// up a remote client.
const ManualProvider = "manual"

// TrackingRecord is one shipment tracking entry attached to an order.
type TrackingRecord struct {
	Code    string `json:"code"`
	URL     string `json:"url"`
	Carrier string `json:"carrier"`
}

// Order represents a customer order in the merch store. ExternalID is the
// correlation key fulfillment providers echo back in their webhooks;
// CheckoutSessionID is the key payment providers use.
type Order struct {
	ID                string            `json:"id"`
	ExternalID        string            `json:"external_id"`
	CheckoutSessionID string            `json:"checkout_session_id"`
	Status            string            `json:"status"`
	DraftOrderIDs     map[string]string `json:"draft_order_ids,omitempty"`
	Tracking          []TrackingRecord  `json:"tracking,omitempty"`
	RecipientName     string            `json:"recipient_name,omitempty"`
	RecipientEmail    string            `json:"recipient_email,omitempty"`
	TotalAmount       int64             `json:"total_amount"`
	Currency          string            `json:"currency"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusDraftCreated,
		OrderStatusPaymentPending,
		OrderStatusPaid,
		OrderStatusPaidPendingFulfillment,
		OrderStatusProcessing,
		OrderStatusOnHold,
		OrderStatusPrinting,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusReturned,
		OrderStatusPartiallyCancelled,
		OrderStatusCancelled,
		OrderStatusPaymentFailed,
		OrderStatusFailed,
		OrderStatusRefunded,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further webhook-driven transitions
// are expected for the status. Terminal orders are skipped by the stale
// draft cleanup job.
func IsTerminalStatus(status string) bool {
	switch status {
	case OrderStatusDelivered, OrderStatusReturned, OrderStatusCancelled,
		OrderStatusPaymentFailed, OrderStatusFailed, OrderStatusRefunded:
		return true
	}
	return false
}

// PaymentConfirmable reports whether a payment-success event should still
// be applied to an order in the given status. Success webhooks are
// delivered at least once; anything past these states means the payment
// was already processed and the replay is a no-op.
func PaymentConfirmable(status string) bool {
	switch status {
	case OrderStatusDraftCreated, OrderStatusPending, OrderStatusPaymentPending:
		return true
	}
	return false
}
