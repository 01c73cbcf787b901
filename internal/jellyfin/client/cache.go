package client

import (
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mitchellh/hashstructure/v2"
	"golang.org/x/sync/singleflight"
)

// queryCache memoizes read-only queries. Concurrent identical queries
// share one request. Cached values are shared and must not be mutated.
type queryCache struct {
	lru   *expirable.LRU[uint64, any]
	group singleflight.Group
}

func newQueryCache(size int, ttl time.Duration) *queryCache {
	if size <= 0 {
		size = 128
	}
	return &queryCache{lru: expirable.NewLRU[uint64, any](size, nil, ttl)}
}

type cacheKey struct {
	Kind   string
	UserID string
	Query  any
}

func (q *queryCache) purge() {
	q.lru.Purge()
}

// cached runs fetch through the client's cache when one is configured.
func cached[T any](c *Client, kind string, query any, fetch func() (T, error)) (T, error) {
	if c.cache == nil {
		return fetch()
	}

	hash, err := hashstructure.Hash(cacheKey{Kind: kind, UserID: c.UserID(), Query: query}, hashstructure.FormatV2, nil)
	if err != nil {
		return fetch()
	}

	if v, ok := c.cache.lru.Get(hash); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err, _ := c.cache.group.Do(strconv.FormatUint(hash, 16), func() (any, error) {
		res, err := fetch()
		if err != nil {
			return nil, err
		}
		c.cache.lru.Add(hash, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
