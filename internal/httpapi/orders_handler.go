package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mgiraudo/pedidos/internal/domain"
	"github.com/mgiraudo/pedidos/internal/reconcile"
)

// OrderDetailFetcher is what the handler needs from the backend client for
// the single-order view.
type OrderDetailFetcher interface {
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  *reconcile.Service
	detail  OrderDetailFetcher
	timeout time.Duration
}

func NewOrdersHandler(orders *reconcile.Service, detail OrderDetailFetcher, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		detail:  detail,
		timeout: timeout,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.LoadOrders(ctx)
	if err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a positive integer")
		return
	}

	order, err := h.detail.GetOrder(ctx, orderID)
	if err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// POST /api/v1/orders/pending/{local_id}/send
func (h *OrdersHandler) SendOne(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	localID, err := strconv.ParseInt(chi.URLParam(r, "local_id"), 10, 64)
	if err != nil || localID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_local_id", "local_id must be a positive integer")
		return
	}

	orders, err := h.orders.LoadOrders(ctx)
	if err != nil {
		handleCoreError(w, err)
		return
	}

	var target *domain.Order
	for i := range orders {
		if orders[i].ID == localID && orders[i].Status == domain.OrderStatusPending {
			target = &orders[i]
			break
		}
	}
	if target == nil {
		respondError(w, http.StatusNotFound, "not_found", "no pending order with that id")
		return
	}

	serverID, err := h.orders.SendOne(ctx, *target)
	if err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"orderId": serverID})
}

// POST /api/v1/orders/pending/send-all
func (h *OrdersHandler) SendAllPending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.orders.SendAllPending(ctx)
	if err != nil {
		handleCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
