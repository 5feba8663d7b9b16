package webhook

import (
	"encoding/json"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
)

// gelatoPayload mirrors the subset of Gelato's order_status_updated
// webhook body we care about.
type gelatoPayload struct {
	Event             string `json:"event"`
	OrderReferenceID  string `json:"orderReferenceId"`
	FulfillmentStatus string `json:"fulfillmentStatus"`
	Items             []struct {
		Fulfillments []struct {
			TrackingCode       string `json:"trackingCode"`
			TrackingURL        string `json:"trackingUrl"`
			ShipmentMethodName string `json:"shipmentMethodName"`
		} `json:"fulfillments"`
	} `json:"items"`
}

// gelatoStatusEvents maps Gelato fulfillment statuses onto the shared
// event table. Statuses with no mapping fall through to unknown and are
// ignored.
var gelatoStatusEvents = map[string]string{
	"created":   domain.EventOrderCreated,
	"passed":    domain.EventOrderCreated,
	"shipped":   domain.EventShipmentSent,
	"delivered": domain.EventShipmentDelivered,
	"returned":  domain.EventShipmentReturned,
	"canceled":  domain.EventOrderCanceled,
	"on_hold":   domain.EventOrderPutHold,
	"failed":    domain.EventOrderFailed,
	"refunded":  domain.EventOrderRefunded,
}

// NormalizeGelato decodes a Gelato webhook body into the shared event
// shape. Like NormalizePrintful it never fails; anything unrecognized
// becomes the unknown event.
func NormalizeGelato(raw []byte) Event {
	var p gelatoPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Event != "order_status_updated" {
		return Event{Provider: ProviderGelato, Type: domain.EventUnknown}
	}

	eventType, ok := gelatoStatusEvents[p.FulfillmentStatus]
	if !ok {
		return Event{
			Provider:        ProviderGelato,
			Type:            domain.EventUnknown,
			ExternalOrderID: p.OrderReferenceID,
		}
	}

	ev := Event{
		Provider:        ProviderGelato,
		Type:            eventType,
		ExternalOrderID: p.OrderReferenceID,
	}
	if eventType == domain.EventShipmentSent {
		ev.Shipment = &domain.ShipmentInfo{}
		for _, item := range p.Items {
			for _, f := range item.Fulfillments {
				ev.Shipment.TrackingCode = f.TrackingCode
				ev.Shipment.TrackingURL = f.TrackingURL
				ev.Shipment.Carrier = f.ShipmentMethodName
				break
			}
			if ev.Shipment.TrackingCode != "" {
				break
			}
		}
	}
	return ev
}
