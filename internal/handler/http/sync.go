package http

import (
	"log/slog"
	"net/http"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/service"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/httputil"
)

// SyncHandler handles product sync requests from the admin dashboard.
type SyncHandler struct {
	service *service.SyncService
	logger  *slog.Logger
}

// NewSyncHandler creates a new sync HTTP handler.
func NewSyncHandler(svc *service.SyncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{service: svc, logger: logger}
}

// Sync handles POST /sync.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Sync(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Status handles GET /sync-status.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.GetSyncStatus(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: status})
}
