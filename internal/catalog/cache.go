package catalog

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mgiraudo/pedidos/internal/backend"
)

var ErrCacheMiss = errors.New("cache miss")

// PageCache caches catalog pages by query key. Purely informational: a miss
// or failure never fails a browse, it just costs a backend round trip.
type PageCache interface {
	Get(key string) (*backend.CatalogPage, error)
	Set(key string, page *backend.CatalogPage)
	Purge()
}

type lruPageCache struct {
	c *lru.Cache[string, *backend.CatalogPage]
}

// NewLRUPageCache builds an in-process page cache holding up to size entries.
func NewLRUPageCache(size int) (PageCache, error) {
	c, err := lru.New[string, *backend.CatalogPage](size)
	if err != nil {
		return nil, err
	}
	return &lruPageCache{c: c}, nil
}

func (l *lruPageCache) Get(key string) (*backend.CatalogPage, error) {
	page, ok := l.c.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return page, nil
}

func (l *lruPageCache) Set(key string, page *backend.CatalogPage) {
	l.c.Add(key, page)
}

func (l *lruPageCache) Purge() {
	l.c.Purge()
}
