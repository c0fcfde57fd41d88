package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ProgressCache absorbs frontend progress polling so every poll does not
// hit the database. Entries expire quickly; ingestion never writes here.
type ProgressCache struct {
	cache *cache.Cache
}

func NewProgressCache(ttl time.Duration) *ProgressCache {
	if ttl <= 0 {
		ttl = time.Second
	}
	c := cache.New(ttl, 10*ttl)
	return &ProgressCache{
		cache: c,
	}
}

func (p *ProgressCache) Set(documentId uuid.UUID, progress int) {
	p.cache.Set(documentId.String(), progress, cache.DefaultExpiration)
}

func (p *ProgressCache) Get(documentId uuid.UUID) (int, bool) {
	if x, found := p.cache.Get(documentId.String()); found {
		return x.(int), true
	}
	return 0, false
}

func (p *ProgressCache) Invalidate(documentId uuid.UUID) {
	p.cache.Delete(documentId.String())
}
