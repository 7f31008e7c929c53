// Package submit turns a valid draft into a backend submission: validate,
// shape the canonical payload, then either queue it locally or send it now.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mgiraudo/pedidos/internal/connectivity"
	"github.com/mgiraudo/pedidos/internal/domain"
	"github.com/mgiraudo/pedidos/internal/draft"
	"github.com/mgiraudo/pedidos/internal/pending"
)

var (
	ErrInvalidDraft = errors.New("draft is not valid for submission")
	ErrUnknownMode  = errors.New("unknown submission mode")
)

type Mode string

const (
	// ModeSaveLocal queues the payload for later bulk send.
	ModeSaveLocal Mode = "save_local"
	// ModeSendNow posts the payload to the backend immediately.
	ModeSendNow Mode = "send_now"
)

// Sender is what the pipeline needs from the backend client.
type Sender interface {
	CreateOrder(ctx context.Context, payload domain.SubmissionPayload) (int64, error)
}

// Result reports where the submission ended up: a backend id for SendNow, a
// local placeholder id for SaveLocal.
type Result struct {
	Queued  bool  `json:"queued"`
	OrderID int64 `json:"orderId,omitempty"`
	LocalID int64 `json:"localId,omitempty"`
}

type Pipeline struct {
	drafts  *draft.Store
	queue   *pending.Queue
	sender  Sender
	monitor *connectivity.Monitor
}

func NewPipeline(drafts *draft.Store, queue *pending.Queue, sender Sender, monitor *connectivity.Monitor) *Pipeline {
	return &Pipeline{
		drafts:  drafts,
		queue:   queue,
		sender:  sender,
		monitor: monitor,
	}
}

// Validate implements the draft validity invariant. Nil means valid for
// submission; otherwise the error wraps ErrInvalidDraft and names the first
// failed field. Pure, no side effects.
func Validate(d domain.Draft) error {
	if len(d.Lines) == 0 {
		return fmt.Errorf("%w: at least one line is required", ErrInvalidDraft)
	}

	name := strings.TrimSpace(d.ClientName)
	if len(name) < 1 || len(name) > domain.MaxClientNameLen {
		return fmt.Errorf("%w: client name must be 1-%d characters", ErrInvalidDraft, domain.MaxClientNameLen)
	}

	if d.GeneralNote != "" && len(d.GeneralNote) > domain.MaxNoteLen {
		return fmt.Errorf("%w: general note exceeds %d characters", ErrInvalidDraft, domain.MaxNoteLen)
	}

	for _, line := range d.Lines {
		if line.Quantity < domain.MinQuantity || line.Quantity > domain.MaxQuantity {
			return fmt.Errorf("%w: quantity for article %s must be %d-%d",
				ErrInvalidDraft, line.ArticleID, domain.MinQuantity, domain.MaxQuantity)
		}
		if line.Note != "" && len(line.Note) > domain.MaxNoteLen {
			return fmt.Errorf("%w: note for article %s exceeds %d characters",
				ErrInvalidDraft, line.ArticleID, domain.MaxNoteLen)
		}
	}

	return nil
}

// ShapePayload builds the canonical POST /pedidos body from a draft: only
// lines with a 1-15 character article id are included, notes only when
// non-empty after trimming, unit price defaults to 1, and a fresh
// idempotency token is attached.
func ShapePayload(d domain.Draft) domain.SubmissionPayload {
	products := make([]domain.PayloadProduct, 0, len(d.Lines))
	for _, line := range d.Lines {
		if len(line.ArticleID) < 1 || len(line.ArticleID) > domain.MaxArticleIDLen {
			continue
		}

		price := line.UnitPrice
		if price <= 0 {
			price = 1
		}

		products = append(products, domain.PayloadProduct{
			IDArticulo:  line.ArticleID,
			Cantidad:    line.Quantity,
			Precio:      price,
			Observation: strings.TrimSpace(line.Note),
		})
	}

	scheduled := d.ScheduledAt
	if scheduled.IsZero() {
		scheduled = time.Now()
	}

	return domain.SubmissionPayload{
		FrontID:     uuid.NewString(),
		ClientName:  strings.TrimSpace(d.ClientName),
		FechaAlta:   scheduled,
		Observation: strings.TrimSpace(d.GeneralNote),
		Products:    products,
	}
}

// Submit validates the current draft and dispatches it. On any failure the
// draft (and the pending queue) are left exactly as they were; the draft is
// cleared only after the payload is safely queued or acknowledged.
func (p *Pipeline) Submit(ctx context.Context, mode Mode) (*Result, error) {
	d := p.drafts.Draft()
	if err := Validate(d); err != nil {
		return nil, err
	}

	payload := ShapePayload(d)

	switch mode {
	case ModeSaveLocal:
		entry, err := p.queue.Append(ctx, payload)
		if err != nil {
			return nil, err
		}
		p.clearDraft(ctx)
		return &Result{Queued: true, LocalID: entry.LocalID}, nil

	case ModeSendNow:
		if !p.monitor.Online() {
			return nil, connectivity.ErrOffline
		}

		id, err := p.sender.CreateOrder(ctx, payload)
		if err != nil {
			// Nothing is queued automatically; queuing is only
			// ever explicit.
			return nil, err
		}
		p.clearDraft(ctx)
		return &Result{OrderID: id}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

func (p *Pipeline) clearDraft(ctx context.Context) {
	if err := p.drafts.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to clear draft after submission")
	}
}
