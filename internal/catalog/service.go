// Package catalog serves the product browser: paginated article search and
// the rubro list, with an in-process cache in front of the backend.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/mgiraudo/pedidos/internal/backend"
	"github.com/mgiraudo/pedidos/internal/domain"
)

const rubroTTL = 15 * time.Minute

// Fetcher is what the service needs from the backend client.
type Fetcher interface {
	Catalog(ctx context.Context, q backend.CatalogQuery) (*backend.CatalogPage, error)
	Rubros(ctx context.Context) ([]domain.Rubro, error)
}

type Service struct {
	fetcher Fetcher
	cache   PageCache
	sfg     singleflight.Group // Prevents cache stampede

	mu            sync.Mutex
	rubros        []domain.Rubro
	rubrosFetched time.Time
}

func NewService(fetcher Fetcher, cache PageCache) *Service {
	return &Service{fetcher: fetcher, cache: cache}
}

// Browse returns one catalog page, from cache when possible.
func (s *Service) Browse(ctx context.Context, q backend.CatalogQuery) (*backend.CatalogPage, error) {
	key := pageKey(q)

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		page, errCache := s.cache.Get(key)
		if errCache == nil {
			return page, nil
		}
		if !errors.Is(errCache, ErrCacheMiss) {
			log.Warn().Err(errCache).Msg("catalog cache get failed")
		}

		page, errFetch := s.fetcher.Catalog(ctx, q)
		if errFetch != nil {
			return nil, errFetch
		}

		s.cache.Set(key, page)
		return page, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*backend.CatalogPage), nil
}

// Rubros returns the category list, refreshed at most every rubroTTL.
func (s *Service) Rubros(ctx context.Context) ([]domain.Rubro, error) {
	s.mu.Lock()
	if s.rubros != nil && time.Since(s.rubrosFetched) < rubroTTL {
		cached := s.rubros
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	v, err, _ := s.sfg.Do("rubros", func() (interface{}, error) {
		rubros, errFetch := s.fetcher.Rubros(ctx)
		if errFetch != nil {
			return nil, errFetch
		}

		s.mu.Lock()
		s.rubros = rubros
		s.rubrosFetched = time.Now()
		s.mu.Unlock()
		return rubros, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]domain.Rubro), nil
}

// Invalidate drops everything cached. Wired to connectivity-regained so a
// reconnect does not keep serving offline-era pages.
func (s *Service) Invalidate() {
	s.cache.Purge()

	s.mu.Lock()
	s.rubros = nil
	s.rubrosFetched = time.Time{}
	s.mu.Unlock()
}

func pageKey(q backend.CatalogQuery) string {
	return fmt.Sprintf("catalog:%s:%s:%s:%d", q.Description, q.Rubro, q.Cursor, q.Limit)
}
