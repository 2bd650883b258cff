package tokenstore

import (
	"github.com/patrickmn/go-cache"
)

// MemoryBackend keeps entries for the lifetime of the process.
type MemoryBackend struct {
	cache *cache.Cache
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (m *MemoryBackend) Get(key string) (string, bool, error) {
	v, found := m.cache.Get(key)
	if !found {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *MemoryBackend) Set(key, value string) error {
	m.cache.Set(key, value, cache.NoExpiration)
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	m.cache.Delete(key)
	return nil
}
