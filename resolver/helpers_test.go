package resolver

import (
	"context"
	"sync"

	"github.com/eumel8/mlab-ns/types"
)

type fetchCall struct {
	toolID string
	af     types.AddressFamily
}

// fakeSource returns the configured slivers filtered by status, like
// candidates.Source.
type fakeSource struct {
	mu      sync.Mutex
	slivers []types.SliverTool
	err     error
	calls   []fetchCall
}

func (s *fakeSource) Fetch(ctx context.Context, toolID string, af types.AddressFamily) ([]types.SliverTool, error) {
	s.mu.Lock()
	s.calls = append(s.calls, fetchCall{toolID, af})
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	r := []types.SliverTool{}
	for _, st := range s.slivers {
		if st.ToolID == toolID && st.IsOnline(af) {
			r = append(r, st)
		}
	}
	return r, nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type sliverOpt func(*types.SliverTool)

func newSliver(fqdn string, opts ...sliverOpt) types.SliverTool {
	st := types.SliverTool{
		ToolID:     "ndt",
		FQDN:       fqdn,
		StatusIPv4: types.StatusOnline,
		StatusIPv6: types.StatusOnline,
	}
	for _, o := range opts {
		o(&st)
	}
	return st
}

func at(lat, lon float64) sliverOpt {
	return func(st *types.SliverTool) { st.Latitude, st.Longitude = lat, lon }
}

func inCountry(c string) sliverOpt {
	return func(st *types.SliverTool) { st.Country = c }
}

func inMetro(m ...string) sliverOpt {
	return func(st *types.SliverTool) { st.Metro = m }
}

func offline(af types.AddressFamily) sliverOpt {
	return func(st *types.SliverTool) {
		switch af {
		case types.IPv4:
			st.StatusIPv4 = types.StatusOffline
		case types.IPv6:
			st.StatusIPv6 = types.StatusOffline
		}
	}
}

func query(opts ...func(*Query)) *Query {
	q := &Query{ID: "test", ToolID: "ndt", Family: types.IPv4}
	for _, o := range opts {
		o(q)
	}
	return q
}
