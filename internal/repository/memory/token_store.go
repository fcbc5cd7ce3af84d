package memory

import (
	"context"
	"sync"

	"kasbi-client/internal/repository/contract"
	"kasbi-client/internal/repository/implementation"

	"github.com/patrickmn/go-cache"
)

// CacheStore is a process-local key value store. Entries never expire; the
// session lives as long as the process.
type CacheStore struct {
	cache *cache.Cache
	// go-cache locks per key; multi-key writes need their own lock
	mu sync.RWMutex
}

func NewCacheStore() *CacheStore {
	return &CacheStore{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *CacheStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if x, found := s.cache.Get(key); found {
		return x.(string), true, nil
	}
	return "", false, nil
}

func (s *CacheStore) SetMany(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range values {
		s.cache.Set(k, v, cache.NoExpiration)
	}
	return nil
}

func (s *CacheStore) DeleteMany(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		s.cache.Delete(k)
	}
	return nil
}

// NewTokenRepository returns an in-memory token repository.
func NewTokenRepository() contract.TokenRepository {
	return implementation.NewTokenRepository(NewCacheStore())
}
