package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ShareCache keeps share-token -> session id lookups off the database for
// the unauthenticated share endpoint. Entries are invalidated explicitly on
// token reissue and session deletion; the TTL is only a backstop.
type ShareCache struct {
	cache *cache.Cache
}

func NewShareCache() *ShareCache {
	c := cache.New(5*time.Minute, 10*time.Minute)
	return &ShareCache{
		cache: c,
	}
}

func (r *ShareCache) Save(token string, sessionId uuid.UUID) {
	r.cache.Set(token, sessionId, cache.DefaultExpiration)
}

func (r *ShareCache) Get(token string) (uuid.UUID, bool) {
	if x, found := r.cache.Get(token); found {
		return x.(uuid.UUID), true
	}
	return uuid.Nil, false
}

func (r *ShareCache) Invalidate(token string) {
	r.cache.Delete(token)
}
