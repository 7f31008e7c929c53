package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mgiraudo/pedidos/internal/connectivity"
	"github.com/mgiraudo/pedidos/internal/draft"
)

// SystemHandler receives the host's lifecycle and connectivity events: the
// browser forwards online/offline and pagehide/visibilitychange here.
type SystemHandler struct {
	monitor   *connectivity.Monitor
	snapshots *draft.SnapshotManager
	timeout   time.Duration
}

func NewSystemHandler(monitor *connectivity.Monitor, snapshots *draft.SnapshotManager, timeout time.Duration) *SystemHandler {
	return &SystemHandler{
		monitor:   monitor,
		snapshots: snapshots,
		timeout:   timeout,
	}
}

// GET /api/v1/connectivity
func (h *SystemHandler) GetConnectivity(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"online": h.monitor.Online()})
}

// PUT /api/v1/connectivity
func (h *SystemHandler) SetConnectivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Online *bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Online == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "online flag is required")
		return
	}

	h.monitor.SetOnline(*req.Online)
	respondJSON(w, http.StatusOK, map[string]bool{"online": h.monitor.Online()})
}

// POST /api/v1/lifecycle/suspend
func (h *SystemHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.snapshots.TakeSnapshotIfSignificant(ctx); err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
