package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mgiraudo/pedidos/internal/domain"
	"github.com/mgiraudo/pedidos/internal/storage"
)

// ErrNoSnapshot is returned when the snapshot slot is empty or trivial.
var ErrNoSnapshot = errors.New("no recoverable snapshot")

// SnapshotManager shadows the live draft into a separate recoverable slot
// when the host is about to lose foreground state. It owns no triggers: the
// host's lifecycle hooks call TakeSnapshotIfSignificant.
type SnapshotManager struct {
	kv    storage.Store
	store *Store
}

func NewSnapshotManager(kv storage.Store, store *Store) *SnapshotManager {
	return &SnapshotManager{kv: kv, store: store}
}

// HasRecoverableSnapshot reports whether a non-trivial snapshot is waiting
// to be offered.
func (m *SnapshotManager) HasRecoverableSnapshot(ctx context.Context) (bool, error) {
	_, err := m.read(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Peek returns the stored snapshot without consuming it, for the restore
// offer.
func (m *SnapshotManager) Peek(ctx context.Context) (domain.DraftSnapshot, error) {
	return m.read(ctx)
}

// TakeSnapshotIfSignificant copies the live draft into the snapshot slot if
// it is non-trivial. Repeated calls overwrite with the latest state.
func (m *SnapshotManager) TakeSnapshotIfSignificant(ctx context.Context) error {
	d := m.store.Draft()
	if d.IsTrivial() {
		return nil
	}

	snap := domain.DraftSnapshot{Draft: d, CreatedAt: time.Now()}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := m.kv.Set(ctx, keySnapshot, string(raw)); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// Restore overwrites the live draft with the snapshot and deletes the slot.
// The caller must already have confirmed the overwrite with the user.
func (m *SnapshotManager) Restore(ctx context.Context) error {
	snap, err := m.read(ctx)
	if err != nil {
		return err
	}

	if err := m.store.Replace(ctx, snap.Draft); err != nil {
		return err
	}
	return m.Discard(ctx)
}

// Discard deletes the snapshot slot without touching the live draft.
func (m *SnapshotManager) Discard(ctx context.Context) error {
	if err := m.kv.Delete(ctx, keySnapshot); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (m *SnapshotManager) read(ctx context.Context) (domain.DraftSnapshot, error) {
	raw, err := m.kv.Get(ctx, keySnapshot)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return domain.DraftSnapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return domain.DraftSnapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap domain.DraftSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return domain.DraftSnapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Draft.IsTrivial() {
		return domain.DraftSnapshot{}, ErrNoSnapshot
	}
	return snap, nil
}
