package candidates

import (
	"context"
	"sync"

	"github.com/eumel8/mlab-ns/types"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]types.SliverTool
	err     error
	gets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]types.SliverTool{}}
}

func (c *fakeCache) Get(ctx context.Context, namespace, key string) ([]types.SliverTool, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return nil, false, c.err
	}
	sl, ok := c.entries[namespace+":"+key]
	return sl, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, namespace, key string, sl []types.SliverTool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.entries[namespace+":"+key] = sl
	return nil
}

type fakeStore struct {
	slivers map[string][]types.SliverTool
	errs    map[string]error
	calls   int
}

func (s *fakeStore) SliverToolsByTool(ctx context.Context, toolID string) ([]types.SliverTool, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.errs[toolID]; err != nil {
		return nil, err
	}
	return s.slivers[toolID], nil
}

func (s *fakeStore) ToolIDs(ctx context.Context) ([]string, error) {
	if err := s.errs[""]; err != nil {
		return nil, err
	}
	var ids []string
	for id := range s.slivers {
		ids = append(ids, id)
	}
	for id := range s.errs {
		if len(id) > 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func sliver(fqdn string, v4, v6 types.Status) types.SliverTool {
	return types.SliverTool{
		ToolID:     "ndt",
		FQDN:       fqdn,
		SliverIPv4: "192.0.2.1",
		SliverIPv6: "2001:db8::1",
		StatusIPv4: v4,
		StatusIPv6: v6,
	}
}

func fqdns(sl []types.SliverTool) []string {
	r := make([]string, 0, len(sl))
	for _, st := range sl {
		r = append(r, st.FQDN)
	}
	return r
}
