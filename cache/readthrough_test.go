package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eumel8/mlab-ns/types"
)

type countingStore struct {
	calls   atomic.Int32
	slivers map[string][]types.SliverTool
	err     error
	wait    chan struct{}
}

func (s *countingStore) SliverToolsByTool(ctx context.Context, toolID string) ([]types.SliverTool, error) {
	s.calls.Add(1)
	if s.wait != nil {
		<-s.wait
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.slivers[toolID], nil
}

func TestReadThroughReusesStoreReads(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{slivers: map[string][]types.SliverTool{
		"ndt": {{ToolID: "ndt", FQDN: "a"}, {ToolID: "ndt", FQDN: "b"}},
	}}
	rt := NewReadThrough(store, NewMemory(10, time.Minute))

	for range 5 {
		sl, err := rt.SliverToolsByTool(ctx, "ndt")
		require.NoError(t, err)
		require.Len(t, sl, 2)
		assert.Equal(t, "a", sl[0].FQDN)
	}
	assert.Equal(t, int32(1), store.calls.Load())

	// a tool without slivers is kept too
	sl, err := rt.SliverToolsByTool(ctx, "neubot")
	require.NoError(t, err)
	assert.Empty(t, sl)
	_, err = rt.SliverToolsByTool(ctx, "neubot")
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestReadThroughReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{slivers: map[string][]types.SliverTool{
		"ndt": {{ToolID: "ndt", FQDN: "a"}},
	}}
	rt := NewReadThrough(store, NewMemory(10, time.Minute))

	sl, err := rt.SliverToolsByTool(ctx, "ndt")
	require.NoError(t, err)
	sl[0].FQDN = "changed"

	sl, err = rt.SliverToolsByTool(ctx, "ndt")
	require.NoError(t, err)
	assert.Equal(t, "a", sl[0].FQDN)
}

func TestReadThroughDoesNotKeepErrors(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{err: errors.New("connection refused")}
	rt := NewReadThrough(store, NewMemory(10, time.Minute))

	_, err := rt.SliverToolsByTool(ctx, "ndt")
	assert.ErrorContains(t, err, "connection refused")

	store.err = nil
	store.slivers = map[string][]types.SliverTool{"ndt": {{ToolID: "ndt"}}}
	sl, err := rt.SliverToolsByTool(ctx, "ndt")
	require.NoError(t, err)
	assert.Len(t, sl, 1)
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestReadThroughExpires(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{slivers: map[string][]types.SliverTool{
		"ndt": {{ToolID: "ndt"}},
	}}
	rt := NewReadThrough(store, NewMemory(10, 50*time.Millisecond))

	_, err := rt.SliverToolsByTool(ctx, "ndt")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := rt.SliverToolsByTool(ctx, "ndt")
		return err == nil && store.calls.Load() == 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestReadThroughSharesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{
		slivers: map[string][]types.SliverTool{"ndt": {{ToolID: "ndt"}}},
		wait:    make(chan struct{}),
	}
	rt := NewReadThrough(store, NewMemory(10, time.Minute))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sl, err := rt.SliverToolsByTool(ctx, "ndt")
			assert.NoError(t, err)
			assert.Len(t, sl, 1)
		}()
	}

	assert.Eventually(t, func() bool { return store.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(store.wait)
	wg.Wait()

	assert.LessOrEqual(t, store.calls.Load(), int32(2))
}
