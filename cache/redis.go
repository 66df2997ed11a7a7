package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eumel8/mlab-ns/types"
)

// Redis is a Redis backed cache. Unlike a best effort response cache a
// failed Get is returned to the caller so it can tell an unreachable
// cache from a miss.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a new Redis-backed cache. A ttl of zero keeps entries
// until they are overwritten.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// NewRedisFromURL connects using a redis:// URL, for example
// "redis://localhost:6379/0".
func NewRedisFromURL(url, prefix string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 500 * time.Millisecond
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = time.Second
	}
	return NewRedis(redis.NewClient(opts), prefix, ttl), nil
}

func (r *Redis) Get(ctx context.Context, namespace, key string) ([]types.SliverTool, bool, error) {
	b, err := r.client.Get(ctx, cacheKey(r.prefix, namespace, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	sl, err := decode(b)
	if err != nil {
		return nil, false, err
	}
	return sl, true, nil
}

func (r *Redis) Set(ctx context.Context, namespace, key string, sl []types.SliverTool) error {
	b, err := encode(sl)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cacheKey(r.prefix, namespace, key), b, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, namespace, key string) error {
	return r.client.Del(ctx, cacheKey(r.prefix, namespace, key)).Err()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
