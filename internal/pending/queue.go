// Package pending persists submissions made while offline (or explicitly
// deferred) until the backend acknowledges them. It plays the outbox role:
// entries are appended locally and removed only after a confirmed ack.
package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mgiraudo/pedidos/internal/domain"
	"github.com/mgiraudo/pedidos/internal/storage"
)

const queueKey = "pedidos:pending"

// Entry is one queued submission. LocalID is the placeholder id the
// reconciled view shows until the backend assigns a real one; removal after
// acknowledgment matches on it, never on content.
type Entry struct {
	LocalID  int64                    `json:"localId"`
	FrontID  string                   `json:"frontId"`
	QueuedAt time.Time                `json:"queuedAt"`
	Payload  domain.SubmissionPayload `json:"payload"`
}

type Queue struct {
	mu sync.Mutex
	kv storage.Store
}

func NewQueue(kv storage.Store) *Queue {
	return &Queue{kv: kv}
}

// Append queues a payload and assigns it a local placeholder id derived from
// the current time, so newer entries carry higher ids and collisions with the
// backend's small sequential ids stay out of range.
func (q *Queue) Append(ctx context.Context, payload domain.SubmissionPayload) (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return Entry{}, err
	}

	now := time.Now()
	localID := now.UnixMilli()
	for _, e := range entries {
		if e.LocalID >= localID {
			localID = e.LocalID + 1
		}
	}

	entry := Entry{
		LocalID:  localID,
		FrontID:  payload.FrontID,
		QueuedAt: now,
		Payload:  payload,
	}
	entries = append(entries, entry)

	if err := q.save(ctx, entries); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// List returns the queued entries in insertion order.
func (q *Queue) List(ctx context.Context) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

// Remove deletes the entry with the given local id. Removing an id that is
// no longer queued is a no-op.
func (q *Queue) Remove(ctx context.Context, localID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.LocalID != localID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}

	return q.save(ctx, kept)
}

func (q *Queue) load(ctx context.Context) ([]Entry, error) {
	raw, err := q.kv.Get(ctx, queueKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending queue: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode pending queue: %w", err)
	}
	return entries, nil
}

func (q *Queue) save(ctx context.Context, entries []Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode pending queue: %w", err)
	}
	if err := q.kv.Set(ctx, queueKey, string(raw)); err != nil {
		return fmt.Errorf("failed to persist pending queue: %w", err)
	}
	return nil
}
