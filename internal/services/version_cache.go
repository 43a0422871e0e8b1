package services

import (
	"github.com/patrickmn/go-cache"

	"github.com/desertthunder/arrx/internal/models"
)

// VersionCache remembers which API version each library manager last answered on.
type VersionCache interface {
	Get(kind models.Kind) (models.ProtocolVersion, bool)
	Set(kind models.Kind, version models.ProtocolVersion)
}

// MemoryVersionCache is a process-lifetime [VersionCache] backed by [cache.Cache]. Entries never expire.
type MemoryVersionCache struct {
	c *cache.Cache
}

// NewVersionCache creates an empty [MemoryVersionCache].
func NewVersionCache() *MemoryVersionCache {
	return &MemoryVersionCache{c: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryVersionCache) Get(kind models.Kind) (models.ProtocolVersion, bool) {
	v, ok := m.c.Get(string(kind))
	if !ok {
		return "", false
	}
	version, ok := v.(models.ProtocolVersion)
	return version, ok
}

func (m *MemoryVersionCache) Set(kind models.Kind, version models.ProtocolVersion) {
	m.c.Set(string(kind), version, cache.NoExpiration)
}
