package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// localCache 有容量上限的本地缓存，超出 MaxSize 时按 LRU 淘汰。
// expirable.LRU 只支持统一 TTL，单键过期时间记录在 entry 中。
type localCache struct {
	mu         sync.Mutex
	lru        *expirable.LRU[string, localEntry]
	defaultTTL time.Duration
}

type localEntry struct {
	value     string
	expiresAt time.Time
}

// NewLocalCache 创建本地缓存
func NewLocalCache(config LocalConfig) Cache {
	size := config.MaxSize
	if size <= 0 {
		size = 10000
	}
	// LRU 本身不过期，过期由 entry 控制
	return &localCache{lru: expirable.NewLRU[string, localEntry](size, nil, 0), defaultTTL: config.DefaultExpiration}
}

func (lc *localCache) Get(_ context.Context, key string) (string, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.getLocked(key)
}

func (lc *localCache) getLocked(key string) (string, bool) {
	e, ok := lc.lru.Get(key)
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		lc.lru.Remove(key)
		return "", false
	}
	return e.value, true
}

func (lc *localCache) Set(_ context.Context, key, value string, expiration time.Duration) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lru.Add(key, newLocalEntry(value, lc.ttl(expiration)))
	return nil
}

func (lc *localCache) SetNX(_ context.Context, key, value string, expiration time.Duration) (bool, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if _, ok := lc.getLocked(key); ok {
		return false, nil
	}
	lc.lru.Add(key, newLocalEntry(value, lc.ttl(expiration)))
	return true, nil
}

func (lc *localCache) Delete(_ context.Context, key string) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lru.Remove(key)
	return nil
}

func (lc *localCache) Exists(ctx context.Context, key string) bool {
	_, ok := lc.Get(ctx, key)
	return ok
}

func (lc *localCache) Close() error {
	lc.lru.Purge()
	return nil
}

func (lc *localCache) ttl(d time.Duration) time.Duration {
	if d == 0 {
		return lc.defaultTTL
	}
	return d
}

func newLocalEntry(value string, expiration time.Duration) localEntry {
	e := localEntry{value: value}
	if expiration > 0 {
		e.expiresAt = time.Now().Add(expiration)
	}
	return e
}
