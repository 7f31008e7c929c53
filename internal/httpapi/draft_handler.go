package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mgiraudo/pedidos/internal/domain"
	"github.com/mgiraudo/pedidos/internal/draft"
	"github.com/mgiraudo/pedidos/internal/submit"
)

type DraftHandler struct {
	drafts    *draft.Store
	snapshots *draft.SnapshotManager
	pipeline  *submit.Pipeline
	timeout   time.Duration
}

func NewDraftHandler(drafts *draft.Store, snapshots *draft.SnapshotManager, pipeline *submit.Pipeline, timeout time.Duration) *DraftHandler {
	return &DraftHandler{
		drafts:    drafts,
		snapshots: snapshots,
		pipeline:  pipeline,
		timeout:   timeout,
	}
}

type AddLineRequestDTO struct {
	ArticleID string  `json:"articleId"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

type UpdateLineRequestDTO struct {
	Quantity *int    `json:"quantity"`
	Note     *string `json:"note"`
}

type SubmitRequestDTO struct {
	Mode string `json:"mode"`
}

// GET /api/v1/draft
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.drafts.Draft())
}

// POST /api/v1/draft/lines
func (h *DraftHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddLineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ArticleID == "" {
		respondError(w, http.StatusBadRequest, "invalid_article_id", "articleId is required")
		return
	}

	ref := domain.ArticleRef{
		ArticleID: req.ArticleID,
		Code:      req.Code,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	if err := h.drafts.AddLine(ctx, ref, quantity); err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, h.drafts.Draft())
}

// PATCH /api/v1/draft/lines/{article_id}
func (h *DraftHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	articleID := chi.URLParam(r, "article_id")
	if articleID == "" {
		respondError(w, http.StatusBadRequest, "invalid_article_id", "article_id is required")
		return
	}

	var req UpdateLineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Note != nil && len(*req.Note) > domain.MaxNoteLen {
		respondError(w, http.StatusBadRequest, "invalid_note", "note exceeds 512 characters")
		return
	}

	patch := draft.LinePatch{Quantity: req.Quantity, Note: req.Note}
	if err := h.drafts.UpdateLine(ctx, articleID, patch); err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.drafts.Draft())
}

// DELETE /api/v1/draft/lines/{article_id}
func (h *DraftHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	articleID := chi.URLParam(r, "article_id")
	if articleID == "" {
		respondError(w, http.StatusBadRequest, "invalid_article_id", "article_id is required")
		return
	}

	if err := h.drafts.RemoveLine(ctx, articleID); err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.drafts.Draft())
}

// PUT /api/v1/draft/client
func (h *DraftHandler) SetClientName(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req struct {
		ClientName string `json:"clientName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if len(req.ClientName) > domain.MaxClientNameLen {
		respondError(w, http.StatusBadRequest, "invalid_client_name", "client name exceeds 128 characters")
		return
	}

	if err := h.drafts.SetClientName(ctx, req.ClientName); err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.drafts.Draft())
}

// PUT /api/v1/draft/note
func (h *DraftHandler) SetGeneralNote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req struct {
		GeneralNote string `json:"generalNote"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if len(req.GeneralNote) > domain.MaxNoteLen {
		respondError(w, http.StatusBadRequest, "invalid_note", "general note exceeds 512 characters")
		return
	}

	if err := h.drafts.SetGeneralNote(ctx, req.GeneralNote); err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.drafts.Draft())
}

// PUT /api/v1/draft/schedule
func (h *DraftHandler) SetScheduledAt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req struct {
		ScheduledAt time.Time `json:"scheduledAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.drafts.SetScheduledAt(ctx, req.ScheduledAt); err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.drafts.Draft())
}

// DELETE /api/v1/draft
func (h *DraftHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.drafts.Clear(ctx); err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.drafts.Draft())
}

// POST /api/v1/draft/submit
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.pipeline.Submit(ctx, submit.Mode(req.Mode))
	if err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// GET /api/v1/draft/snapshot
func (h *DraftHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.snapshots.Peek(ctx)
	if err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// POST /api/v1/draft/snapshot/restore
func (h *DraftHandler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.snapshots.Restore(ctx); err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.drafts.Draft())
}

// DELETE /api/v1/draft/snapshot
func (h *DraftHandler) DiscardSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.snapshots.Discard(ctx); err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}
