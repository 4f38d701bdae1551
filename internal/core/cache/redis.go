package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"property-listing/internal/core/config"
)

// cmdable 用到的 redis 命令子集，测试里换成内存实现
type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Cache nil 也可用：直接回源，不缓存
type Cache struct {
	store cmdable
	raw   *redis.Client
	sf    singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	raw := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	return &Cache{store: raw, raw: raw}
}

// NewFromConfig 未配置 addr 时返回 nil
func NewFromConfig(c config.Redis) *Cache {
	if c.Addr == "" {
		return nil
	}
	return New(c.Addr, c.Password, c.DB)
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.store.Ping(ctx).Err()
}

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil {
		return load(ctx)
	}
	// 先读缓存
	if b, err := c.store.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		_ = c.store.Set(ctx, key, b, ttl).Err()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate 写操作后删除相关 key
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.store.Del(ctx, keys...).Err()
}

func (c *Cache) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
