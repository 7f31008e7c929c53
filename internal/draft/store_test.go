package draft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgiraudo/pedidos/internal/domain"
	"github.com/mgiraudo/pedidos/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	kv := storage.NewMemoryStore()
	sut, err := NewStore(context.Background(), kv)
	require.NoError(t, err)
	return sut, kv
}

func TestAddLine_MergesByArticleID(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()
	ref := domain.ArticleRef{ArticleID: "A1", Name: "Flour", UnitPrice: 2.5}

	require.NoError(t, sut.AddLine(ctx, ref, 3))
	require.NoError(t, sut.AddLine(ctx, ref, 4))
	require.NoError(t, sut.AddLine(ctx, domain.ArticleRef{ArticleID: "B2"}, 1))

	d := sut.Draft()
	require.Len(t, d.Lines, 2)
	assert.Equal(t, "A1", d.Lines[0].ArticleID)
	assert.Equal(t, 7, d.Lines[0].Quantity)
	assert.Equal(t, "B2", d.Lines[1].ArticleID)
	assert.Equal(t, 1, d.Lines[1].Quantity)
}

func TestAddLine_ClampsQuantityAtMax(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()
	ref := domain.ArticleRef{ArticleID: "A1"}

	require.NoError(t, sut.AddLine(ctx, ref, 9000))
	require.NoError(t, sut.AddLine(ctx, ref, 9000))

	assert.Equal(t, domain.MaxQuantity, sut.Draft().Lines[0].Quantity)
}

func TestAddLine_ZeroQuantityCountsAsOne(t *testing.T) {
	sut, _ := newTestStore(t)

	require.NoError(t, sut.AddLine(context.Background(), domain.ArticleRef{ArticleID: "A1"}, 0))

	assert.Equal(t, 1, sut.Draft().Lines[0].Quantity)
}

func TestUpdateLine_ClampsAndPatches(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, sut.AddLine(ctx, domain.ArticleRef{ArticleID: "A1"}, 5))

	quantity := 20000
	note := "no onions"
	require.NoError(t, sut.UpdateLine(ctx, "A1", LinePatch{Quantity: &quantity, Note: &note}))

	line := sut.Draft().Lines[0]
	assert.Equal(t, domain.MaxQuantity, line.Quantity)
	assert.Equal(t, "no onions", line.Note)
}

func TestUpdateLine_UnknownIDIsNoOp(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, sut.AddLine(ctx, domain.ArticleRef{ArticleID: "A1"}, 5))

	quantity := 1
	require.NoError(t, sut.UpdateLine(ctx, "ZZ", LinePatch{Quantity: &quantity}))

	assert.Equal(t, 5, sut.Draft().Lines[0].Quantity)
}

func TestRemoveLine(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, sut.AddLine(ctx, domain.ArticleRef{ArticleID: "A1"}, 1))
	require.NoError(t, sut.AddLine(ctx, domain.ArticleRef{ArticleID: "B2"}, 1))

	require.NoError(t, sut.RemoveLine(ctx, "A1"))
	require.NoError(t, sut.RemoveLine(ctx, "missing")) // no-op

	d := sut.Draft()
	require.Len(t, d.Lines, 1)
	assert.Equal(t, "B2", d.Lines[0].ArticleID)
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()

	sut, err := NewStore(ctx, kv)
	require.NoError(t, err)
	require.NoError(t, sut.AddLine(ctx, domain.ArticleRef{ArticleID: "A1", Name: "Flour", UnitPrice: 2.5}, 3))
	note := "crushed"
	require.NoError(t, sut.UpdateLine(ctx, "A1", LinePatch{Note: &note}))
	require.NoError(t, sut.SetClientName(ctx, "Acme"))
	require.NoError(t, sut.SetGeneralNote(ctx, "deliver early"))
	scheduled := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	require.NoError(t, sut.SetScheduledAt(ctx, scheduled))

	// Reconstruct from the same persisted keys, as a page reload would.
	reloaded, err := NewStore(ctx, kv)
	require.NoError(t, err)

	d := reloaded.Draft()
	assert.Equal(t, sut.Draft().Lines, d.Lines)
	assert.Equal(t, "Acme", d.ClientName)
	assert.Equal(t, "deliver early", d.GeneralNote)
	assert.True(t, scheduled.Equal(d.ScheduledAt))
}

func TestSetScheduledAt_ClampsPastDatesToNow(t *testing.T) {
	sut, _ := newTestStore(t)

	before := time.Now()
	require.NoError(t, sut.SetScheduledAt(context.Background(), before.Add(-time.Hour)))

	assert.False(t, sut.Draft().ScheduledAt.Before(before))
}

func TestClear_ResetsDraftAndDeletesSnapshot(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()

	sut, err := NewStore(ctx, kv)
	require.NoError(t, err)
	require.NoError(t, sut.AddLine(ctx, domain.ArticleRef{ArticleID: "A1"}, 2))
	require.NoError(t, sut.SetClientName(ctx, "Acme"))

	snapshots := NewSnapshotManager(kv, sut)
	require.NoError(t, snapshots.TakeSnapshotIfSignificant(ctx))

	require.NoError(t, sut.Clear(ctx))

	d := sut.Draft()
	assert.Empty(t, d.Lines)
	assert.Empty(t, d.ClientName)
	assert.Empty(t, d.GeneralNote)

	ok, err := snapshots.HasRecoverableSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "clearing must discard the snapshot")
}
