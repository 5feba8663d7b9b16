package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
)

// ============================================================================
// Printful
// ============================================================================

func TestNormalizePrintful_ShipmentSent(t *testing.T) {
	raw := []byte(`{
		"type": "shipment_sent",
		"data": {
			"order": {"external_id": "ord_123"},
			"shipment": {
				"tracking_number": "PF99",
				"tracking_url": "https://track.printful.test/PF99",
				"carrier": "DHL"
			}
		}
	}`)
	ev := NormalizePrintful(raw)
	assert.Equal(t, ProviderPrintful, ev.Provider)
	assert.Equal(t, domain.EventShipmentSent, ev.Type)
	assert.Equal(t, "ord_123", ev.ExternalOrderID)
	require.NotNil(t, ev.Shipment)
	assert.Equal(t, "PF99", ev.Shipment.TrackingCode)
	assert.Equal(t, "DHL", ev.Shipment.Carrier)
}

func TestNormalizePrintful_ServiceFallbackForCarrier(t *testing.T) {
	raw := []byte(`{
		"type": "shipment_sent",
		"data": {"shipment": {"tracking_number": "PF1", "service": "Flat Rate"}}
	}`)
	ev := NormalizePrintful(raw)
	require.NotNil(t, ev.Shipment)
	assert.Equal(t, "Flat Rate", ev.Shipment.Carrier)
}

func TestNormalizePrintful_NonOrderScopedEvent(t *testing.T) {
	raw := []byte(`{"type": "order_canceled", "data": {}}`)
	ev := NormalizePrintful(raw)
	assert.Equal(t, domain.EventOrderCanceled, ev.Type)
	assert.Empty(t, ev.ExternalOrderID)
	assert.Nil(t, ev.Shipment)
}

func TestNormalizePrintful_MalformedJSON(t *testing.T) {
	ev := NormalizePrintful([]byte(`{"type": "shipment`))
	assert.Equal(t, domain.EventUnknown, ev.Type)
}

func TestNormalizePrintful_MissingType(t *testing.T) {
	ev := NormalizePrintful([]byte(`{"data": {"order": {"external_id": "x"}}}`))
	assert.Equal(t, domain.EventUnknown, ev.Type)
}

// ============================================================================
// Gelato
// ============================================================================

func TestNormalizeGelato_Shipped(t *testing.T) {
	raw := []byte(`{
		"event": "order_status_updated",
		"orderReferenceId": "ord_456",
		"fulfillmentStatus": "shipped",
		"items": [{"fulfillments": [{
			"trackingCode": "GL77",
			"trackingUrl": "https://track.gelato.test/GL77",
			"shipmentMethodName": "PostNL"
		}]}]
	}`)
	ev := NormalizeGelato(raw)
	assert.Equal(t, domain.EventShipmentSent, ev.Type)
	assert.Equal(t, "ord_456", ev.ExternalOrderID)
	require.NotNil(t, ev.Shipment)
	assert.Equal(t, "GL77", ev.Shipment.TrackingCode)
	assert.Equal(t, "PostNL", ev.Shipment.Carrier)
}

func TestNormalizeGelato_StatusMapping(t *testing.T) {
	cases := map[string]string{
		"delivered": domain.EventShipmentDelivered,
		"canceled":  domain.EventOrderCanceled,
		"returned":  domain.EventShipmentReturned,
		"failed":    domain.EventOrderFailed,
		"printed":   domain.EventUnknown,
	}
	for status, want := range cases {
		raw := []byte(`{"event": "order_status_updated", "orderReferenceId": "o1", "fulfillmentStatus": "` + status + `"}`)
		ev := NormalizeGelato(raw)
		assert.Equal(t, want, ev.Type, status)
		assert.Equal(t, "o1", ev.ExternalOrderID, status)
	}
}

func TestNormalizeGelato_OtherEventName(t *testing.T) {
	ev := NormalizeGelato([]byte(`{"event": "catalog_updated"}`))
	assert.Equal(t, domain.EventUnknown, ev.Type)
}

// ============================================================================
// PingPay
// ============================================================================

func TestNormalizePingPay_SuccessVariants(t *testing.T) {
	for _, name := range []string{"checkout.session.completed", "payment.success"} {
		raw := []byte(`{"event": "` + name + `", "data": {"order_id": "ord_1", "session_id": "cs_1"}}`)
		ev := NormalizePingPay(raw)
		assert.Equal(t, PaymentEventSuccess, ev.Type, name)
		assert.Equal(t, "ord_1", ev.OrderID)
		assert.Equal(t, "cs_1", ev.CheckoutSessionID)
	}
}

func TestNormalizePingPay_Failed(t *testing.T) {
	ev := NormalizePingPay([]byte(`{"event": "payment.failed", "data": {"session_id": "cs_2"}}`))
	assert.Equal(t, PaymentEventFailed, ev.Type)
	assert.Empty(t, ev.OrderID)
	assert.Equal(t, "cs_2", ev.CheckoutSessionID)
}

func TestNormalizePingPay_UnknownAndMalformed(t *testing.T) {
	assert.Equal(t, domain.EventUnknown, NormalizePingPay([]byte(`{"event": "payout.created"}`)).Type)
	assert.Equal(t, domain.EventUnknown, NormalizePingPay([]byte(`not json`)).Type)
}
