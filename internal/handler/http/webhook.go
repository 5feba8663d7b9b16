package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/service"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/httputil"
)

// Signature headers by provider.
const (
	headerPrintfulSignature = "X-Printful-Signature"
	headerGelatoSignature   = "X-Gelato-Signature"
	headerPingPaySignature  = "X-Pingpay-Signature"
)

// maxWebhookBody caps webhook payload reads. Provider payloads are a few
// KB; 1 MB leaves ample room.
const maxWebhookBody = 1 << 20

// WebhookHandler handles inbound provider webhook requests. The body
// must be read raw before any JSON decoding: signatures are computed over
// the exact bytes sent.
type WebhookHandler struct {
	service *service.WebhookService
	logger  *slog.Logger
}

// NewWebhookHandler creates a new webhook HTTP handler.
func NewWebhookHandler(svc *service.WebhookService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{service: svc, logger: logger}
}

// Fulfillment handles POST /webhooks/{provider} for printful and gelato.
func (h *WebhookHandler) Fulfillment(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var signature string
	switch providerName {
	case "printful":
		signature = r.Header.Get(headerPrintfulSignature)
	case "gelato":
		signature = r.Header.Get(headerGelatoSignature)
	}

	if err := h.service.HandleFulfillmentWebhook(r.Context(), providerName, rawBody, signature); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteAck(w)
}

// Payment handles POST /webhooks/ping.
func (h *WebhookHandler) Payment(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	signature := r.Header.Get(headerPingPaySignature)
	if err := h.service.HandlePaymentWebhook(r.Context(), rawBody, signature); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteAck(w)
}
