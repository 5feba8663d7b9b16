package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Guarded Transitions
// ============================================================================

func TestTransition_OrderCreated_FromPaid(t *testing.T) {
	res := Transition(OrderStatusPaid, EventOrderCreated, nil)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, OrderStatusProcessing, res.Status)
	assert.Nil(t, res.Tracking)
}

func TestTransition_OrderCreated_FromPaidPendingFulfillment(t *testing.T) {
	res := Transition(OrderStatusPaidPendingFulfillment, EventOrderCreated, nil)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, OrderStatusProcessing, res.Status)
}

func TestTransition_OrderCreated_GuardRejectsOtherStates(t *testing.T) {
	for _, current := range []string{
		OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled,
	} {
		res := Transition(current, EventOrderCreated, nil)
		assert.False(t, res.StatusChanged, "order_created should be rejected from %q", current)
	}
}

func TestTransition_RemoveHold_FromOnHold(t *testing.T) {
	for _, event := range []string{EventShipmentRemoveHold, EventOrderRemoveHold} {
		res := Transition(OrderStatusOnHold, event, nil)
		assert.True(t, res.StatusChanged, event)
		assert.Equal(t, OrderStatusProcessing, res.Status, event)
	}
}

func TestTransition_RemoveHold_GuardRejectsShipped(t *testing.T) {
	// remove_hold must never downgrade an already-shipped order.
	res := Transition(OrderStatusShipped, EventShipmentRemoveHold, nil)
	assert.False(t, res.StatusChanged)
	assert.Nil(t, res.Tracking)

	res = Transition(OrderStatusDelivered, EventOrderRemoveHold, nil)
	assert.False(t, res.StatusChanged)
}

// ============================================================================
// Unguarded Provider-Authoritative Transitions
// ============================================================================

func TestTransition_ShipmentSent_SetsTracking(t *testing.T) {
	shipment := &ShipmentInfo{
		TrackingCode: "PF123456789",
		TrackingURL:  "https://track.example.com/PF123456789",
		Carrier:      "DHL",
	}
	res := Transition(OrderStatusProcessing, EventShipmentSent, shipment)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, OrderStatusShipped, res.Status)
	assert.Equal(t, &TrackingRecord{
		Code:    "PF123456789",
		URL:     "https://track.example.com/PF123456789",
		Carrier: "DHL",
	}, res.Tracking)
}

func TestTransition_ShipmentSent_DefaultsCarrier(t *testing.T) {
	shipment := &ShipmentInfo{TrackingCode: "PF1", TrackingURL: "https://t.example/PF1"}
	res := Transition(OrderStatusProcessing, EventShipmentSent, shipment)
	assert.Equal(t, "Standard", res.Tracking.Carrier)
}

func TestTransition_ShipmentSent_NilShipment(t *testing.T) {
	res := Transition(OrderStatusProcessing, EventShipmentSent, nil)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, OrderStatusShipped, res.Status)
	assert.Equal(t, "Standard", res.Tracking.Carrier)
}

func TestTransition_ShipmentSent_Idempotent(t *testing.T) {
	// Applying the same shipment event twice yields the same status and
	// the same single tracking record, since tracking is replaced, not
	// appended.
	shipment := &ShipmentInfo{TrackingCode: "PF42", TrackingURL: "https://t.example/PF42", Carrier: "UPS"}

	first := Transition(OrderStatusProcessing, EventShipmentSent, shipment)
	second := Transition(first.Status, EventShipmentSent, shipment)

	assert.Equal(t, OrderStatusShipped, second.Status)
	assert.Equal(t, first.Tracking, second.Tracking)
}

func TestTransition_UnguardedOverwrites(t *testing.T) {
	cases := []struct {
		event string
		want  string
	}{
		{EventShipmentDelivered, OrderStatusDelivered},
		{EventShipmentReturned, OrderStatusReturned},
		{EventShipmentCanceled, OrderStatusPartiallyCancelled},
		{EventShipmentOutOfStock, OrderStatusOnHold},
		{EventShipmentPutHold, OrderStatusOnHold},
		{EventShipmentPutHoldApproval, OrderStatusOnHold},
		{EventOrderPutHold, OrderStatusOnHold},
		{EventOrderPutHoldApproval, OrderStatusOnHold},
		{EventOrderCanceled, OrderStatusCancelled},
		{EventOrderFailed, OrderStatusFailed},
		{EventOrderRefunded, OrderStatusRefunded},
	}
	for _, tc := range cases {
		// Unguarded events overwrite any current status, even terminal ones.
		for _, current := range []string{OrderStatusPending, OrderStatusProcessing, OrderStatusDelivered} {
			res := Transition(current, tc.event, nil)
			assert.True(t, res.StatusChanged, "%s from %s", tc.event, current)
			assert.Equal(t, tc.want, res.Status, "%s from %s", tc.event, current)
		}
	}
}

func TestTransition_ReplayedShipmentSent_MovesDeliveredBackToShipped(t *testing.T) {
	// The provider is authoritative for shipment facts; a replayed
	// shipment_sent intentionally overwrites delivered.
	res := Transition(OrderStatusDelivered, EventShipmentSent, &ShipmentInfo{TrackingCode: "X"})
	assert.True(t, res.StatusChanged)
	assert.Equal(t, OrderStatusShipped, res.Status)
}

// ============================================================================
// Unknown Events
// ============================================================================

func TestTransition_UnknownEvent_NoOp(t *testing.T) {
	for _, current := range ValidStatuses() {
		for _, event := range []string{EventUnknown, "package_shipped", "order_updated", ""} {
			res := Transition(current, event, nil)
			assert.False(t, res.StatusChanged, "event %q from %q", event, current)
			assert.Nil(t, res.Tracking, "event %q from %q", event, current)
		}
	}
}
