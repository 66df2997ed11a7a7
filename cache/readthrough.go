package cache

import (
	"context"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/eumel8/mlab-ns/types"
)

const storeNamespace = "store"

// StoreReader is the authoritative store behind a ReadThrough.
type StoreReader interface {
	SliverToolsByTool(ctx context.Context, toolID string) ([]types.SliverTool, error)
}

// ReadThrough keeps recent store reads in a Memory cache, so a long
// running process serving many requests reads each tool from the store
// at most once per TTL. Concurrent misses for a tool share one read.
// Failed reads are not kept.
type ReadThrough struct {
	store StoreReader
	mem   *Memory
	group singleflight.Group
}

func NewReadThrough(store StoreReader, mem *Memory) *ReadThrough {
	return &ReadThrough{
		store: store,
		mem:   mem,
	}
}

func (rt *ReadThrough) SliverToolsByTool(ctx context.Context, toolID string) ([]types.SliverTool, error) {
	sl, ok, err := rt.mem.Get(ctx, storeNamespace, toolID)
	if err != nil {
		return nil, err
	}
	if ok {
		return sl, nil
	}

	v, err, _ := rt.group.Do(toolID, func() (any, error) {
		sl, err := rt.store.SliverToolsByTool(ctx, toolID)
		if err != nil {
			return nil, err
		}
		if err := rt.mem.Set(ctx, storeNamespace, toolID, sl); err != nil {
			return nil, err
		}
		return sl, nil
	})
	if err != nil {
		return nil, err
	}

	return slices.Clone(v.([]types.SliverTool)), nil
}
