// Package draft owns the in-progress order: its line items, client name,
// general note and scheduled date. Every mutation persists the touched
// field(s) under fixed keys so a restart reconstructs exact prior state.
package draft

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

const (
	keyLines       = "draft:lines"
	keyClientName  = "draft:client_name"
	keyGeneralNote = "draft:general_note"
	keyScheduledAt = "draft:scheduled_at"
	keySnapshot    = "draft:snapshot"
)

// LinePatch carries partial edits for UpdateLine; nil fields are untouched.
type LinePatch struct {
	Quantity *int
	Note     *string
}

type Store struct {
	mu    sync.Mutex
	kv    storage.Store
	draft domain.Draft
}

// NewStore rehydrates the draft from storage. Missing keys mean an empty
// draft; the scheduled date defaults to now.
func NewStore(ctx context.Context, kv storage.Store) (*Store, error) {
	s := &Store{kv: kv}

	raw, err := kv.Get(ctx, keyLines)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to read draft lines: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &s.draft.Lines); err != nil {
			return nil, fmt.Errorf("failed to decode draft lines: %w", err)
		}
	}

	if v, err := readOptional(ctx, kv, keyClientName); err != nil {
		return nil, err
	} else {
		s.draft.ClientName = v
	}
	if v, err := readOptional(ctx, kv, keyGeneralNote); err != nil {
		return nil, err
	} else {
		s.draft.GeneralNote = v
	}

	s.draft.ScheduledAt = time.Now()
	if v, err := readOptional(ctx, kv, keyScheduledAt); err != nil {
		return nil, err
	} else if v != "" {
		if t, errParse := time.Parse(time.RFC3339, v); errParse == nil {
			s.draft.ScheduledAt = t
		}
	}

	return s, nil
}

func readOptional(ctx context.Context, kv storage.Store, key string) (string, error) {
	v, err := kv.Get(ctx, key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}

// Draft returns a deep copy of the current draft.
func (s *Store) Draft() domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyDraft()
}

func (s *Store) copyDraft() domain.Draft {
	d := s.draft
	d.Lines = make([]domain.OrderLine, len(s.draft.Lines))
	copy(d.Lines, s.draft.Lines)
	return d
}

// AddLine merges the article into an existing line (incrementing quantity,
// clamped) or appends a new one. Quantities below 1 count as 1.
func (s *Store) AddLine(ctx context.Context, ref domain.ArticleRef, quantity int) error {
	if quantity < domain.MinQuantity {
		quantity = domain.MinQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.draft.Lines {
		if s.draft.Lines[i].ArticleID == ref.ArticleID {
			s.draft.Lines[i].Quantity = domain.ClampQuantity(s.draft.Lines[i].Quantity + quantity)
			merged = true
			break
		}
	}
	if !merged {
		s.draft.Lines = append(s.draft.Lines, domain.OrderLine{
			ArticleID: ref.ArticleID,
			Code:      ref.Code,
			Name:      ref.Name,
			Quantity:  domain.ClampQuantity(quantity),
			UnitPrice: ref.UnitPrice,
		})
	}

	return s.persistLines(ctx)
}

// UpdateLine merges the patch into the matching line. An unknown article id
// is a no-op, defensive against stale UI references.
func (s *Store) UpdateLine(ctx context.Context, articleID string, patch LinePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.draft.Lines {
		if s.draft.Lines[i].ArticleID != articleID {
			continue
		}
		if patch.Quantity != nil {
			s.draft.Lines[i].Quantity = domain.ClampQuantity(*patch.Quantity)
		}
		if patch.Note != nil {
			s.draft.Lines[i].Note = *patch.Note
		}
		return s.persistLines(ctx)
	}
	return nil
}

// RemoveLine deletes the matching line; no-op if absent.
func (s *Store) RemoveLine(ctx context.Context, articleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, line := range s.draft.Lines {
		if line.ArticleID == articleID {
			s.draft.Lines = append(s.draft.Lines[:i], s.draft.Lines[i+1:]...)
			return s.persistLines(ctx)
		}
	}
	return nil
}

func (s *Store) SetClientName(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.ClientName = name
	if err := s.kv.Set(ctx, keyClientName, name); err != nil {
		return fmt.Errorf("failed to persist client name: %w", err)
	}
	return nil
}

func (s *Store) SetGeneralNote(ctx context.Context, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.GeneralNote = note
	if err := s.kv.Set(ctx, keyGeneralNote, note); err != nil {
		return fmt.Errorf("failed to persist general note: %w", err)
	}
	return nil
}

// SetScheduledAt moves the scheduled date; dates earlier than now are
// clamped to now.
func (s *Store) SetScheduledAt(ctx context.Context, t time.Time) error {
	if now := time.Now(); t.Before(now) {
		t = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.ScheduledAt = t
	if err := s.kv.Set(ctx, keyScheduledAt, t.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to persist scheduled date: %w", err)
	}
	return nil
}

// Clear resets the draft and deletes any recoverable snapshot: this is the
// intentional-discard path, so there is nothing left to recover.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = domain.Draft{ScheduledAt: time.Now()}

	for _, key := range []string{keyLines, keyClientName, keyGeneralNote, keyScheduledAt, keySnapshot} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return nil
}

// Replace overwrites the whole draft and persists every field. Used by
// snapshot restore.
func (s *Store) Replace(ctx context.Context, d domain.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = d
	if err := s.persistLines(ctx); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, keyClientName, d.ClientName); err != nil {
		return fmt.Errorf("failed to persist client name: %w", err)
	}
	if err := s.kv.Set(ctx, keyGeneralNote, d.GeneralNote); err != nil {
		return fmt.Errorf("failed to persist general note: %w", err)
	}
	if err := s.kv.Set(ctx, keyScheduledAt, d.ScheduledAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to persist scheduled date: %w", err)
	}
	return nil
}

func (s *Store) persistLines(ctx context.Context) error {
	raw, err := json.Marshal(s.draft.Lines)
	if err != nil {
		return fmt.Errorf("failed to encode draft lines: %w", err)
	}
	if err := s.kv.Set(ctx, keyLines, string(raw)); err != nil {
		return fmt.Errorf("failed to persist draft lines: %w", err)
	}
	return nil
}
