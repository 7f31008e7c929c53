package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/mgiraudo/pedidos/internal/backend"
	"github.com/mgiraudo/pedidos/internal/catalog"
)

const defaultPageLimit = 20

type CatalogHandler struct {
	catalog *catalog.Service
	timeout time.Duration
}

func NewCatalogHandler(svc *catalog.Service, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: svc, timeout: timeout}
}

// GET /api/v1/catalog
func (h *CatalogHandler) Browse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := backend.CatalogQuery{
		Description: r.URL.Query().Get("description"),
		Rubro:       r.URL.Query().Get("rubro"),
		Cursor:      r.URL.Query().Get("cursor"),
		Limit:       defaultPageLimit,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 100 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 100")
			return
		}
		q.Limit = limit
	}

	page, err := h.catalog.Browse(ctx, q)
	if err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// GET /api/v1/rubros
func (h *CatalogHandler) Rubros(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rubros, err := h.catalog.Rubros(ctx)
	if err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rubros)
}
