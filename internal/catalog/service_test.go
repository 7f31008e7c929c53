package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgiraudo/pedidos/internal/backend"
	"github.com/mgiraudo/pedidos/internal/domain"
)

type mockFetcher struct {
	m           sync.Mutex
	page        *backend.CatalogPage
	rubros      []domain.Rubro
	err         error
	catalogHits int
	rubroHits   int
}

func (f *mockFetcher) Catalog(context.Context, backend.CatalogQuery) (*backend.CatalogPage, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.catalogHits++
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *mockFetcher) Rubros(context.Context) ([]domain.Rubro, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.rubroHits++
	if f.err != nil {
		return nil, f.err
	}
	return f.rubros, nil
}

func newTestService(t *testing.T, fetcher *mockFetcher) *Service {
	t.Helper()
	cache, err := NewLRUPageCache(8)
	require.NoError(t, err)
	return NewService(fetcher, cache)
}

func TestBrowse_CachesPages(t *testing.T) {
	fetcher := &mockFetcher{page: &backend.CatalogPage{
		Items: []domain.Article{{ID: "A1", Description: "Flour", Price: 2.5}},
	}}
	sut := newTestService(t, fetcher)
	ctx := context.Background()
	q := backend.CatalogQuery{Description: "flo", Limit: 20}

	first, err := sut.Browse(ctx, q)
	require.NoError(t, err)
	second, err := sut.Browse(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.catalogHits, "second browse must come from cache")
}

func TestBrowse_DistinctQueriesAreDistinctEntries(t *testing.T) {
	fetcher := &mockFetcher{page: &backend.CatalogPage{Items: []domain.Article{}}}
	sut := newTestService(t, fetcher)
	ctx := context.Background()

	_, err := sut.Browse(ctx, backend.CatalogQuery{Description: "a", Limit: 20})
	require.NoError(t, err)
	_, err = sut.Browse(ctx, backend.CatalogQuery{Description: "b", Limit: 20})
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.catalogHits)
}

func TestBrowse_FetchErrorIsNotCached(t *testing.T) {
	fetcher := &mockFetcher{err: fmt.Errorf("backend down")}
	sut := newTestService(t, fetcher)
	ctx := context.Background()
	q := backend.CatalogQuery{Limit: 20}

	_, err := sut.Browse(ctx, q)
	require.ErrorContains(t, err, "backend down")

	fetcher.m.Lock()
	fetcher.err = nil
	fetcher.page = &backend.CatalogPage{Items: []domain.Article{{ID: "A1"}}}
	fetcher.m.Unlock()

	page, err := sut.Browse(ctx, q)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestRubros_CachedUntilInvalidate(t *testing.T) {
	fetcher := &mockFetcher{rubros: []domain.Rubro{{ID: 1, Descripcion: "Almacen"}}}
	sut := newTestService(t, fetcher)
	ctx := context.Background()

	first, err := sut.Rubros(ctx)
	require.NoError(t, err)
	_, err = sut.Rubros(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.rubroHits)
	assert.Equal(t, "Almacen", first[0].Descripcion)

	sut.Invalidate()

	_, err = sut.Rubros(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.rubroHits)
}
