// Package cache decorates repositories with short-lived in-memory caching.
package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"apflow/internal/domain"
	"apflow/internal/port"
)

type referenceCache struct {
	inner port.ReferenceRepository
	cache *gocache.Cache
}

// NewReferenceCache wraps a ReferenceRepository with a TTL cache keyed by
// normalized vendor name. Reference documents change rarely relative to how
// often matching runs, so a short TTL removes most repeated lookups.
func NewReferenceCache(inner port.ReferenceRepository, ttl time.Duration) port.ReferenceRepository {
	return &referenceCache{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *referenceCache) ListByVendor(ctx context.Context, vendorName string) ([]domain.ReferenceDocument, error) {
	key := strings.ToLower(strings.TrimSpace(vendorName))
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]domain.ReferenceDocument), nil
	}

	refs, err := c.inner.ListByVendor(ctx, vendorName)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, refs, gocache.DefaultExpiration)
	return refs, nil
}
