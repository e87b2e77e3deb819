package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/hybridrec/core"
)

// RedisOptions 是 RedisStore 的连接参数。
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix 会加在所有 key 之前，用于多个服务共享同一实例
	Prefix      string
	DialTimeout time.Duration
}

// RedisStore 是 Redis 实现的 Store，多副本之间共享相似商品列表。
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 建立连接并 Ping 一次，失败返回 UNAVAILABLE。
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, core.Errorf(core.ModuleStore, core.ErrorCodeUnavailable, "store: redis %s: %v", opts.Addr, err)
	}
	return &RedisStore{client: client, prefix: opts.Prefix}, nil
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) key(k string) string { return r.prefix + k }

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrStoreNotFound
	}
	return val, err
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	var expiration time.Duration
	if len(ttl) > 0 && ttl[0] > 0 {
		expiration = time.Duration(ttl[0]) * time.Second
	}
	return r.client.Set(ctx, r.key(key), value, expiration).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// DeletePrefix 用 SCAN 逐批删除匹配前缀的 key，返回删除数量。
func (r *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor uint64
		n      int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.key(prefix)+"*", 500).Result()
		if err != nil {
			return n, err
		}
		if len(keys) > 0 {
			deleted, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return n, err
			}
			n += int(deleted)
		}
		cursor = next
		if cursor == 0 {
			return n, nil
		}
	}
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ core.Store = (*RedisStore)(nil)
