package draft

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgiraudo/pedidos/internal/domain"
	"github.com/mgiraudo/pedidos/internal/storage"
)

func TestTakeSnapshotIfSignificant_SkipsTrivialDraft(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()
	store, err := NewStore(ctx, kv)
	require.NoError(t, err)

	sut := NewSnapshotManager(kv, store)
	require.NoError(t, sut.TakeSnapshotIfSignificant(ctx))

	ok, err := sut.HasRecoverableSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTakeSnapshotIfSignificant_OverwritesWithLatestState(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()
	store, err := NewStore(ctx, kv)
	require.NoError(t, err)
	sut := NewSnapshotManager(kv, store)

	require.NoError(t, store.SetClientName(ctx, "Acme"))
	require.NoError(t, sut.TakeSnapshotIfSignificant(ctx))

	require.NoError(t, store.AddLine(ctx, domain.ArticleRef{ArticleID: "A1"}, 2))
	require.NoError(t, sut.TakeSnapshotIfSignificant(ctx))

	snap, err := sut.Peek(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Draft.Lines, 1)
	assert.Equal(t, "Acme", snap.Draft.ClientName)
	assert.False(t, snap.CreatedAt.IsZero())
}

func TestRestore_OverwritesLiveDraftAndConsumesSnapshot(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()
	store, err := NewStore(ctx, kv)
	require.NoError(t, err)
	sut := NewSnapshotManager(kv, store)

	require.NoError(t, store.SetClientName(ctx, "Acme"))
	require.NoError(t, store.AddLine(ctx, domain.ArticleRef{ArticleID: "A1"}, 3))
	require.NoError(t, sut.TakeSnapshotIfSignificant(ctx))

	// The live draft moves on before the user decides.
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.SetClientName(ctx, "Other"))

	// Clear() discarded the snapshot, so retake it first to have one.
	ok, err := sut.HasRecoverableSnapshot(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, sut.TakeSnapshotIfSignificant(ctx))
	require.NoError(t, store.SetClientName(ctx, "Third"))

	require.NoError(t, sut.Restore(ctx))

	assert.Equal(t, "Other", store.Draft().ClientName)

	ok, err = sut.HasRecoverableSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "restore consumes the snapshot")

	assert.ErrorIs(t, sut.Restore(ctx), ErrNoSnapshot)
}

func TestDiscard_LeavesLiveDraftUntouched(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()
	store, err := NewStore(ctx, kv)
	require.NoError(t, err)
	sut := NewSnapshotManager(kv, store)

	require.NoError(t, store.SetClientName(ctx, "Acme"))
	require.NoError(t, sut.TakeSnapshotIfSignificant(ctx))

	require.NoError(t, sut.Discard(ctx))
	require.NoError(t, sut.Discard(ctx)) // idempotent

	assert.Equal(t, "Acme", store.Draft().ClientName)

	ok, err := sut.HasRecoverableSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
