package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// goCacheWrapper go-cache包装器
type goCacheWrapper struct {
	cache *gocache.Cache
}

// NewGoCache 创建基于go-cache的本地缓存
func NewGoCache(config LocalConfig) Cache {
	return &goCacheWrapper{
		cache: gocache.New(config.DefaultExpiration, config.CleanupInterval),
	}
}

func (gc *goCacheWrapper) Get(_ context.Context, key string) (string, bool) {
	v, found := gc.cache.Get(key)
	if !found {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (gc *goCacheWrapper) Set(_ context.Context, key, value string, expiration time.Duration) error {
	gc.cache.Set(key, value, goExpiration(expiration))
	return nil
}

// SetNX go-cache 的 Add 在键已存在时返回错误
func (gc *goCacheWrapper) SetNX(_ context.Context, key, value string, expiration time.Duration) (bool, error) {
	if err := gc.cache.Add(key, value, goExpiration(expiration)); err != nil {
		return false, nil
	}
	return true, nil
}

func (gc *goCacheWrapper) Delete(_ context.Context, key string) error {
	gc.cache.Delete(key)
	return nil
}

func (gc *goCacheWrapper) Exists(_ context.Context, key string) bool {
	_, found := gc.cache.Get(key)
	return found
}

// Close go-cache不需要关闭连接
func (gc *goCacheWrapper) Close() error { return nil }

func goExpiration(d time.Duration) time.Duration {
	if d < 0 {
		return gocache.NoExpiration
	}
	if d == 0 {
		return gocache.DefaultExpiration
	}
	return d
}
