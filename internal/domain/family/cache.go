package family

import (
	"context"
	"time"
)

// Cache is a read-through cache for family lookups, keyed by id and join
// token. Implementations must treat it as advisory: a miss always falls back
// to the store.
type Cache interface {
	GetByID(ctx context.Context, familyID string) (*Family, bool)
	GetByToken(ctx context.Context, token string) (*Family, bool)
	Set(ctx context.Context, family *Family, ttl time.Duration)
	Delete(ctx context.Context, family *Family)
}

type nopCache struct{}

// NopCache returns a cache that never hits. Used when no redis address is
// configured.
func NopCache() Cache {
	return nopCache{}
}

func (nopCache) GetByID(context.Context, string) (*Family, bool) {
	return nil, false
}

func (nopCache) GetByToken(context.Context, string) (*Family, bool) {
	return nil, false
}

func (nopCache) Set(context.Context, *Family, time.Duration) {}

func (nopCache) Delete(context.Context, *Family) {}
