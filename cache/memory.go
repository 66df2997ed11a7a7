package cache

import (
	"context"
	"slices"
	"time"

	expirable "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/eumel8/mlab-ns/types"
)

// Memory is an in-process LRU cache with TTL based expiration, for a
// single instance or for tests.
type Memory struct {
	lru *expirable.LRU[string, []types.SliverTool]
}

// NewMemory creates a cache holding up to maxSize keys. A ttl of zero
// disables expiration.
func NewMemory(maxSize int, ttl time.Duration) *Memory {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Memory{
		lru: expirable.NewLRU[string, []types.SliverTool](maxSize, nil, ttl),
	}
}

func (m *Memory) Get(ctx context.Context, namespace, key string) ([]types.SliverTool, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	sl, ok := m.lru.Get(cacheKey("", namespace, key))
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(sl), true, nil
}

func (m *Memory) Set(ctx context.Context, namespace, key string, sl []types.SliverTool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sl == nil {
		sl = []types.SliverTool{}
	}
	m.lru.Add(cacheKey("", namespace, key), slices.Clone(sl))
	return nil
}

func (m *Memory) Delete(ctx context.Context, namespace, key string) error {
	m.lru.Remove(cacheKey("", namespace, key))
	return nil
}

func (m *Memory) Len() int {
	return m.lru.Len()
}
