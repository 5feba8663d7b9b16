package webhook

import (
	"encoding/json"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
)

// Provider names as used in webhook routing and the provider registry.
const (
	ProviderPrintful = "printful"
	ProviderGelato   = "gelato"
	ProviderPingPay  = "pingpay"
)

// Event is a normalized fulfillment webhook event. ExternalOrderID may be
// empty: some provider events are not order-scoped and that is not an
// error.
type Event struct {
	Provider        string
	Type            string
	ExternalOrderID string
	Shipment        *domain.ShipmentInfo
}

// printfulPayload mirrors the subset of Printful's webhook body we care
// about.
type printfulPayload struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			ExternalID string `json:"external_id"`
		} `json:"order"`
		Shipment struct {
			TrackingNumber string `json:"tracking_number"`
			TrackingURL    string `json:"tracking_url"`
			Carrier        string `json:"carrier"`
			Service        string `json:"service"`
		} `json:"shipment"`
	} `json:"data"`
}

// NormalizePrintful decodes a Printful webhook body. It never fails:
// malformed JSON or a missing type degrade to the unknown event, because
// providers retry webhooks and a transient parse problem must not produce
// a permanent error response.
func NormalizePrintful(raw []byte) Event {
	var p printfulPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Type == "" {
		return Event{Provider: ProviderPrintful, Type: domain.EventUnknown}
	}

	ev := Event{
		Provider:        ProviderPrintful,
		Type:            p.Type,
		ExternalOrderID: p.Data.Order.ExternalID,
	}
	if p.Type == domain.EventShipmentSent {
		carrier := p.Data.Shipment.Carrier
		if carrier == "" {
			carrier = p.Data.Shipment.Service
		}
		ev.Shipment = &domain.ShipmentInfo{
			TrackingCode: p.Data.Shipment.TrackingNumber,
			TrackingURL:  p.Data.Shipment.TrackingURL,
			Carrier:      carrier,
		}
	}
	return ev
}
