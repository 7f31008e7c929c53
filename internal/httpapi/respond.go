package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mgiraudo/pedidos/internal/backend"
	"github.com/mgiraudo/pedidos/internal/connectivity"
	"github.com/mgiraudo/pedidos/internal/draft"
	"github.com/mgiraudo/pedidos/internal/reconcile"
	"github.com/mgiraudo/pedidos/internal/submit"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleCoreError maps the core's error taxonomy to HTTP statuses for the
// host UI.
func handleCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, submit.ErrInvalidDraft):
		respondError(w, http.StatusBadRequest, "invalid_draft", err.Error())
	case errors.Is(err, submit.ErrUnknownMode):
		respondError(w, http.StatusBadRequest, "invalid_mode", err.Error())
	case errors.Is(err, connectivity.ErrOffline):
		respondError(w, http.StatusServiceUnavailable, "offline", "no connectivity")
	case errors.Is(err, reconcile.ErrNoPending):
		respondError(w, http.StatusBadRequest, "no_pending", err.Error())
	case errors.Is(err, reconcile.ErrNotPending):
		respondError(w, http.StatusConflict, "not_pending", err.Error())
	case errors.Is(err, draft.ErrNoSnapshot):
		respondError(w, http.StatusNotFound, "no_snapshot", err.Error())
	default:
		handleBackendError(w, err)
	}
}

func handleBackendError(w http.ResponseWriter, err error) {
	var failure *backend.Failure
	if !errors.As(err, &failure) {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	switch failure.Kind {
	case backend.FailureTimeout:
		respondError(w, http.StatusGatewayTimeout, "timeout", failure.Message)
	case backend.FailureNetwork:
		respondError(w, http.StatusServiceUnavailable, "connectivity_error", failure.Message)
	case backend.FailureServer:
		respondError(w, http.StatusBadGateway, "backend_error", failure.Message)
	case backend.FailureRejected:
		status := failure.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		respondError(w, status, "backend_rejected", failure.Message)
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", failure.Message)
	}
}
