package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache Redis缓存实现
type redisCache struct {
	client *redis.Client
	config RedisConfig
}

// NewRedisCache 创建Redis缓存
func NewRedisCache(config RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisCache{client: client, config: config}, nil
}

func (rc *redisCache) Get(ctx context.Context, key string) (string, bool) {
	v, err := rc.client.Get(ctx, key).Result()
	if err != nil {
		// redis.Nil 与网络错误都视为未命中
		return "", false
	}
	return v, true
}

func (rc *redisCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return rc.client.Set(ctx, key, value, redisTTL(expiration)).Err()
}

func (rc *redisCache) SetNX(ctx context.Context, key, value string, expiration time.Duration) (bool, error) {
	ok, err := rc.client.SetNX(ctx, key, value, redisTTL(expiration)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return ok, nil
}

func (rc *redisCache) Delete(ctx context.Context, key string) error {
	return rc.client.Del(ctx, key).Err()
}

func (rc *redisCache) Exists(ctx context.Context, key string) bool {
	return rc.client.Exists(ctx, key).Val() > 0
}

func (rc *redisCache) Close() error {
	return rc.client.Close()
}

// redisTTL go-redis 中 0 表示不过期，-1 是 KeepTTL
func redisTTL(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
