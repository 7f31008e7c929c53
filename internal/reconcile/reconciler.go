// Package reconcile unifies locally queued (pending) and server-confirmed
// (sent) orders into one de-duplicated view, and drives bulk submission of
// everything still pending.
package reconcile

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/mgiraudo/pedidos/internal/connectivity"
	"github.com/mgiraudo/pedidos/internal/domain"
	"github.com/mgiraudo/pedidos/internal/pending"
)

var (
	ErrNoPending  = errors.New("no pending orders to send")
	ErrNotPending = errors.New("order is not pending")
)

// Backend is what the reconciler needs from the backend client.
type Backend interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	CreateOrder(ctx context.Context, payload domain.SubmissionPayload) (int64, error)
}

// FailureDetail is one per-order failure from a bulk send.
type FailureDetail struct {
	LocalID int64  `json:"localId"`
	Message string `json:"message"`
}

// Summary is the outcome of SendAllPending. Orders holds the refreshed
// merged view when the post-loop reload succeeded.
type Summary struct {
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []FailureDetail `json:"failures,omitempty"`
	Orders    []domain.Order  `json:"orders,omitempty"`
}

type Service struct {
	backend Backend
	queue   *pending.Queue
	monitor *connectivity.Monitor
	sfg     singleflight.Group
}

func NewService(backend Backend, queue *pending.Queue, monitor *connectivity.Monitor) *Service {
	return &Service{
		backend: backend,
		queue:   queue,
		monitor: monitor,
	}
}

// Merge unions sent and pending orders into one list with at most one entry
// per id: on collision the Sent entry wins. Presentation order is Pending
// before Sent, id descending within equal status. Pure, side-effect free.
func Merge(sent, pendingOrders []domain.Order) []domain.Order {
	sentIDs := make(map[int64]struct{}, len(sent))
	merged := make([]domain.Order, 0, len(sent)+len(pendingOrders))

	for _, o := range sent {
		sentIDs[o.ID] = struct{}{}
		merged = append(merged, o)
	}
	for _, o := range pendingOrders {
		if _, dup := sentIDs[o.ID]; dup {
			continue
		}
		merged = append(merged, o)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Status != merged[j].Status {
			return merged[i].Status == domain.OrderStatusPending
		}
		return merged[i].ID > merged[j].ID
	})

	return merged
}

// LoadOrders fetches the backend order list, reads the pending queue and
// returns the merged view. A backend failure fails the whole call: pending
// items are never shown alone silently.
func (s *Service) LoadOrders(ctx context.Context) ([]domain.Order, error) {
	if !s.monitor.Online() {
		return nil, connectivity.ErrOffline
	}

	v, err, _ := s.sfg.Do("orders", func() (interface{}, error) {
		sent, errList := s.backend.ListOrders(ctx)
		if errList != nil {
			return nil, errList
		}

		entries, errQueue := s.queue.List(ctx)
		if errQueue != nil {
			return nil, errQueue
		}

		pendingOrders := make([]domain.Order, 0, len(entries))
		for _, e := range entries {
			pendingOrders = append(pendingOrders, pendingOrder(e))
		}

		return Merge(sent, pendingOrders), nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]domain.Order), nil
}

// SendOne submits a pending order. Only after a confirmed acknowledgment is
// the queue entry removed, matched by the local id used at queue time. A
// fresh idempotency token is attached per attempt.
func (s *Service) SendOne(ctx context.Context, order domain.Order) (int64, error) {
	if order.Status != domain.OrderStatusPending || order.OriginalPayload == nil {
		return 0, ErrNotPending
	}
	if !s.monitor.Online() {
		return 0, connectivity.ErrOffline
	}

	payload := *order.OriginalPayload
	payload.FrontID = uuid.NewString()

	serverID, err := s.backend.CreateOrder(ctx, payload)
	if err != nil {
		return 0, err
	}

	if errRemove := s.queue.Remove(ctx, order.ID); errRemove != nil {
		// The order is acknowledged; a stale queue entry will be
		// suppressed by the merge until the next successful removal.
		log.Error().Err(errRemove).Int64("local_id", order.ID).
			Msg("failed to remove acknowledged order from pending queue")
	}

	return serverID, nil
}

// SendAllPending submits every pending order sequentially, never aborting on
// a single failure, then refreshes the merged view. Backend id assignment is
// order-sensitive, so the loop must not be parallelized.
func (s *Service) SendAllPending(ctx context.Context) (*Summary, error) {
	orders, err := s.LoadOrders(ctx)
	if err != nil {
		return nil, err
	}

	var pendingOrders []domain.Order
	for _, o := range orders {
		if o.Status == domain.OrderStatusPending {
			pendingOrders = append(pendingOrders, o)
		}
	}
	if len(pendingOrders) == 0 {
		return nil, ErrNoPending
	}

	summary := &Summary{}
	for _, o := range pendingOrders {
		if _, errSend := s.SendOne(ctx, o); errSend != nil {
			log.Warn().Err(errSend).Int64("local_id", o.ID).Msg("failed to send pending order")
			summary.Failed++
			summary.Failures = append(summary.Failures, FailureDetail{
				LocalID: o.ID,
				Message: errSend.Error(),
			})
			continue
		}
		summary.Succeeded++
	}

	refreshed, errReload := s.LoadOrders(ctx)
	if errReload != nil {
		log.Warn().Err(errReload).Msg("failed to refresh orders after bulk send")
	} else {
		summary.Orders = refreshed
	}

	return summary, nil
}

func pendingOrder(e pending.Entry) domain.Order {
	payload := e.Payload

	lines := make([]domain.OrderLine, 0, len(payload.Products))
	for _, p := range payload.Products {
		lines = append(lines, domain.OrderLine{
			ArticleID: p.IDArticulo,
			Quantity:  p.Cantidad,
			UnitPrice: p.Precio,
			Note:      p.Observation,
		})
	}

	return domain.Order{
		ID:              e.LocalID,
		Status:          domain.OrderStatusPending,
		ClientName:      payload.ClientName,
		TotalValue:      payload.Total(),
		CreatedAt:       payload.FechaAlta,
		Note:            payload.Observation,
		Lines:           lines,
		OriginalPayload: &payload,
	}
}
