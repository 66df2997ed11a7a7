package nsdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eumel8/mlab-ns/types"
)

type fakeQuerier struct {
	Querier
	slivers map[string][]SliverTool
	err     error
}

func (f *fakeQuerier) GetSliverToolsByTool(ctx context.Context, toolID string) ([]SliverTool, error) {
	return f.slivers[toolID], f.err
}

func TestSliverToolConversion(t *testing.T) {
	row := SliverTool{
		ToolID:     "ndt",
		SiteID:     "lga06",
		ServerID:   "mlab1",
		Fqdn:       "ndt-iupui-mlab1-lga06.measurement-lab.org",
		SliverIpv4: "192.0.2.10",
		StatusIpv4: types.StatusOnline,
		Latitude:   sql.NullFloat64{Float64: 40.77, Valid: true},
		Longitude:  sql.NullFloat64{Float64: -73.87, Valid: true},
		Country:    sql.NullString{String: "US", Valid: true},
		Metro:      "lga, nyc",
	}

	st := row.SliverTool()
	assert.Equal(t, "ndt-iupui-mlab1-lga06.measurement-lab.org", st.FQDN)
	assert.Equal(t, types.NoIPAddress, st.SliverIPv6)
	assert.Equal(t, []string{"lga", "nyc"}, st.Metro)
	assert.Equal(t, "US", st.Country)
	assert.Empty(t, st.City)
	assert.True(t, st.IsOnline(types.IPv4))
	assert.False(t, st.IsOnline(types.IPv6))

	row.Metro = ""
	assert.Nil(t, row.SliverTool().Metro)
}

func TestStoreSliverToolsByTool(t *testing.T) {
	ctx := context.Background()
	q := &fakeQuerier{slivers: map[string][]SliverTool{
		"ndt": {
			{ID: 1, ToolID: "ndt", Fqdn: "a"},
			{ID: 2, ToolID: "ndt", Fqdn: "b"},
		},
	}}
	s := NewStore(q)

	sl, err := s.SliverToolsByTool(ctx, "ndt")
	require.NoError(t, err)
	require.Len(t, sl, 2)
	assert.Equal(t, "a", sl[0].FQDN)
	assert.Equal(t, "b", sl[1].FQDN)

	sl, err = s.SliverToolsByTool(ctx, "neubot")
	require.NoError(t, err)
	assert.Empty(t, sl)

	q.err = errors.New("connection refused")
	_, err = s.SliverToolsByTool(ctx, "ndt")
	assert.Error(t, err)
}
