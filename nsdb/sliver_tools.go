package nsdb

import (
	"context"
	"strings"

	"github.com/eumel8/mlab-ns/types"
)

// SliverTool converts the database row to the shared type. Metro codes
// are stored comma separated.
func (st *SliverTool) SliverTool() types.SliverTool {
	r := types.SliverTool{
		ToolID:     st.ToolID,
		SiteID:     st.SiteID,
		SliceID:    st.SliceID,
		ServerID:   st.ServerID,
		FQDN:       st.Fqdn,
		SliverIPv4: st.SliverIpv4,
		SliverIPv6: st.SliverIpv6,
		StatusIPv4: st.StatusIpv4,
		StatusIPv6: st.StatusIpv6,
		Latitude:   st.Latitude.Float64,
		Longitude:  st.Longitude.Float64,
		City:       st.City.String,
		Country:    st.Country.String,
		UpdatedAt:  st.UpdatedOn,
	}

	if len(r.SliverIPv4) == 0 {
		r.SliverIPv4 = types.NoIPAddress
	}
	if len(r.SliverIPv6) == 0 {
		r.SliverIPv6 = types.NoIPAddress
	}

	for _, m := range strings.Split(st.Metro, ",") {
		if m = strings.TrimSpace(m); len(m) > 0 {
			r.Metro = append(r.Metro, m)
		}
	}

	return r
}

// Store is the authoritative source of sliver records for the candidate
// source and the cache syncer.
type Store struct {
	q Querier
}

func NewStore(q Querier) *Store {
	return &Store{q: q}
}

// SliverToolsByTool returns every sliver of the tool, in id order.
func (s *Store) SliverToolsByTool(ctx context.Context, toolID string) ([]types.SliverTool, error) {
	rows, err := s.q.GetSliverToolsByTool(ctx, toolID)
	if err != nil {
		return nil, err
	}
	r := make([]types.SliverTool, 0, len(rows))
	for i := range rows {
		r = append(r, rows[i].SliverTool())
	}
	return r, nil
}

// ToolIDs lists the distinct tools with at least one sliver.
func (s *Store) ToolIDs(ctx context.Context) ([]string, error) {
	return s.q.GetToolIDs(ctx)
}
