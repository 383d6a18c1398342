package storage

import (
	"context"
	"time"

	"github.com/stacsmith/stacsmith/pkg/cache"
)

// CachingReader wraps a Reader with a byte cache so repeated fetches of the
// same href are served from the cache. Cache failures degrade to fetching
// from the source; they never fail a read.
type CachingReader struct {
	src   Reader
	cache cache.Cache
	ttl   time.Duration
}

// NewCachingReader wraps src with c. A ttl of zero means cached documents
// never expire.
func NewCachingReader(src Reader, c cache.Cache, ttl time.Duration) *CachingReader {
	return &CachingReader{src: src, cache: c, ttl: ttl}
}

// Get returns the cached document for href, fetching and caching it on a
// miss.
func (r *CachingReader) Get(ctx context.Context, href string) ([]byte, error) {
	key := cache.DocumentKey(href)
	if data, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		return data, nil
	}
	data, err := r.src.Get(ctx, href)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, data, r.ttl)
	return data, nil
}
