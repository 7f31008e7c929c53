package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusSent    OrderStatus = "SENT"
)

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// Order is the reconciled view entity: either a server-confirmed order
// (Sent) or a locally queued submission awaiting acknowledgment (Pending).
// It is derived, never persisted on its own.
type Order struct {
	ID         int64       `json:"id"`
	Status     OrderStatus `json:"status"`
	ClientName string      `json:"clientName"`
	TotalValue float64     `json:"totalValue"`
	CreatedAt  time.Time   `json:"createdAt"`
	Note       string      `json:"note,omitempty"`
	Lines      []OrderLine `json:"lines"`

	// OriginalPayload is set only for Pending orders: the exact body to
	// (re)submit.
	OriginalPayload *SubmissionPayload `json:"originalPayload,omitempty"`
}

// PayloadProduct is one product entry of the backend create-order body.
type PayloadProduct struct {
	IDArticulo  string  `json:"idArticulo"`
	Cantidad    int     `json:"cantidad"`
	Precio      float64 `json:"precio"`
	Observation string  `json:"observation,omitempty"`
}

// SubmissionPayload is the canonical POST /pedidos body. FrontID is the
// client-generated idempotency token; a fresh one is attached per attempt.
type SubmissionPayload struct {
	FrontID     string           `json:"frontId"`
	ClientName  string           `json:"clientName"`
	FechaAlta   time.Time        `json:"fechaAlta"`
	Observation string           `json:"observation,omitempty"`
	Products    []PayloadProduct `json:"products"`
}

// Total sums cantidad x precio over the payload products.
func (p SubmissionPayload) Total() float64 {
	draft := Draft{}
	for _, prod := range p.Products {
		draft.Lines = append(draft.Lines, OrderLine{
			ArticleID: prod.IDArticulo,
			Quantity:  prod.Cantidad,
			UnitPrice: prod.Precio,
		})
	}
	f, _ := draft.Total().Float64()
	return f
}
