package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinQuantity = 1
	MaxQuantity = 9999

	MaxClientNameLen = 128
	MaxNoteLen       = 512

	// Article ids longer than this are rejected by the backend and are
	// filtered out of submission payloads.
	MaxArticleIDLen = 15
)

// ArticleRef is the slice of a catalog article a draft line is created from.
type ArticleRef struct {
	ArticleID string
	Code      string
	Name      string
	UnitPrice float64
}

// OrderLine is one line of the draft. A draft holds at most one line per
// article id; adding the same article again increments the quantity.
type OrderLine struct {
	ArticleID string  `json:"articleId"`
	Code      string  `json:"code,omitempty"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	Note      string  `json:"note,omitempty"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
}

// Draft is the order currently being composed. There is exactly one per
// session and it is persisted field by field after every mutation.
type Draft struct {
	Lines       []OrderLine `json:"lines"`
	ClientName  string      `json:"clientName"`
	GeneralNote string      `json:"generalNote"`
	ScheduledAt time.Time   `json:"scheduledAt"`
}

// IsTrivial reports whether the draft carries nothing worth recovering:
// no lines, no client name, no general note.
func (d Draft) IsTrivial() bool {
	return len(d.Lines) == 0 &&
		strings.TrimSpace(d.ClientName) == "" &&
		strings.TrimSpace(d.GeneralNote) == ""
}

// Total sums quantity x unit price over all lines. Non-positive unit prices
// count as 1, mirroring the submission payload default.
func (d Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		price := l.UnitPrice
		if price <= 0 {
			price = 1
		}
		total = total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// ClampQuantity forces q into the [MinQuantity, MaxQuantity] band.
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// DraftSnapshot is a recoverable copy of a draft taken when the application
// is about to lose foreground state. It lives in its own storage slot and is
// consumed exactly once: restored or discarded.
type DraftSnapshot struct {
	Draft     Draft     `json:"draft"`
	CreatedAt time.Time `json:"createdAt"`
}
