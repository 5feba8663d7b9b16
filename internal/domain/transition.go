package domain

// Fulfillment webhook event types. Printful and Gelato payloads are
// normalized to these before reaching the transition engine.
const (
	EventOrderCreated            = "order_created"
	EventShipmentSent            = "shipment_sent"
	EventShipmentDelivered       = "shipment_delivered"
	EventShipmentReturned        = "shipment_returned"
	EventShipmentCanceled        = "shipment_canceled"
	EventShipmentOutOfStock      = "shipment_out_of_stock"
	EventShipmentPutHold         = "shipment_put_hold"
	EventShipmentPutHoldApproval = "shipment_put_hold_approval"
	EventShipmentRemoveHold      = "shipment_remove_hold"
	EventOrderPutHold            = "order_put_hold"
	EventOrderPutHoldApproval    = "order_put_hold_approval"
	EventOrderRemoveHold         = "order_remove_hold"
	EventOrderCanceled           = "order_canceled"
	EventOrderFailed             = "order_failed"
	EventOrderRefunded           = "order_refunded"

	// EventUnknown is the sentinel for payloads that could not be parsed
	// or carry an event type outside the table. It is always a no-op.
	EventUnknown = "unknown"

	// DefaultCarrier is used when a shipment payload omits the shipping
	// method name.
	DefaultCarrier = "Standard"
)

// ShipmentInfo is the tracking detail extracted from a shipment_sent payload.
type ShipmentInfo struct {
	TrackingCode string
	TrackingURL  string
	Carrier      string
}

// TransitionResult is the outcome of applying one fulfillment event.
// StatusChanged=false means the event was unknown or its guard rejected
// it; nothing should be written. Tracking is non-nil only when the event
// replaces the order's tracking records.
type TransitionResult struct {
	Status        string
	StatusChanged bool
	Tracking      *TrackingRecord
}

// Transition maps (current status, event, shipment payload) to the next
// status and optional tracking update. It is a pure function: no I/O, no
// errors. Guards exist only where an event is meaningless outside certain
// states (remove_hold must not drag a shipped order back to processing);
// unguarded events are provider-authoritative facts and overwrite whatever
// status this system believed, including replays that move delivered back
// to shipped.
func Transition(current, event string, shipment *ShipmentInfo) TransitionResult {
	switch event {
	case EventOrderCreated:
		if current == OrderStatusPaid || current == OrderStatusPaidPendingFulfillment {
			return changed(OrderStatusProcessing)
		}
		return unchanged()

	case EventShipmentSent:
		res := changed(OrderStatusShipped)
		res.Tracking = trackingFromShipment(shipment)
		return res

	case EventShipmentDelivered:
		return changed(OrderStatusDelivered)

	case EventShipmentReturned:
		return changed(OrderStatusReturned)

	case EventShipmentCanceled:
		return changed(OrderStatusPartiallyCancelled)

	case EventShipmentOutOfStock,
		EventShipmentPutHold, EventShipmentPutHoldApproval,
		EventOrderPutHold, EventOrderPutHoldApproval:
		return changed(OrderStatusOnHold)

	case EventShipmentRemoveHold, EventOrderRemoveHold:
		if current == OrderStatusOnHold {
			return changed(OrderStatusProcessing)
		}
		return unchanged()

	case EventOrderCanceled:
		return changed(OrderStatusCancelled)

	case EventOrderFailed:
		return changed(OrderStatusFailed)

	case EventOrderRefunded:
		return changed(OrderStatusRefunded)
	}

	return unchanged()
}

func changed(status string) TransitionResult {
	return TransitionResult{Status: status, StatusChanged: true}
}

func unchanged() TransitionResult {
	return TransitionResult{}
}

// trackingFromShipment builds the single tracking record that replaces an
// order's tracking list on shipment_sent. A nil shipment still produces a
// record with the default carrier so the status change is never dropped
// for lack of tracking detail.
func trackingFromShipment(s *ShipmentInfo) *TrackingRecord {
	rec := &TrackingRecord{Carrier: DefaultCarrier}
	if s == nil {
		return rec
	}
	rec.Code = s.TrackingCode
	rec.URL = s.TrackingURL
	if s.Carrier != "" {
		rec.Carrier = s.Carrier
	}
	return rec
}
