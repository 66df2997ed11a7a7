package geo

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eumel8/mlab-ns/types"
)

const (
	ip1_2_3_3 = 16909059
	ip1_2_3_4 = 16909060
	ip1_2_3_5 = 16909061

	// upper 64 bits of 1:2:3:X::
	net1_2_3_3 = 281483566841859
	net1_2_3_4 = 281483566841860
	net1_2_3_5 = 281483566841861
)

func testTables(t *testing.T) *Tables {
	t.Helper()
	tables, err := NewTables("test",
		[]IPv4Range{
			{Start: ip1_2_3_4, End: ip1_2_3_5, LocationID: 1},
			{Start: 10, End: 20, LocationID: 2},
			{Start: 100, End: 200, LocationID: 99},
		},
		map[uint32]City{
			1: {City: "city", Country: "country", Location: &types.Point{Latitude: 1.5, Longitude: -2.5}},
			2: {Country: "DE"},
		},
		[]IPv6Range{
			{Start: net1_2_3_4, End: net1_2_3_5, Country: "country", Location: &types.Point{Latitude: 3, Longitude: 4}},
		},
	)
	require.NoError(t, err)
	return tables
}

func TestLocateV4(t *testing.T) {
	l := NewLocator(testTables(t), nil)

	rec, err := l.LocateV4("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "city", rec.City)
	assert.Equal(t, "country", rec.Country)
	require.NotNil(t, rec.Location)
	assert.Equal(t, 1.5, rec.Location.Latitude)
	assert.Equal(t, -2.5, rec.Location.Longitude)

	rec, err = l.LocateV4("0.0.0.15")
	require.NoError(t, err)
	assert.Equal(t, "DE", rec.Country)
	assert.Nil(t, rec.Location)
	assert.False(t, rec.IsUnknown())

	for _, ip := range []string{
		"0.0.0.5",   // before the first range
		"0.0.0.50",  // between ranges, the next range starts after it
		"0.0.0.150", // location id missing in the city table
		"1.2.3.6",   // after the last range
	} {
		rec, err := l.LocateV4(ip)
		require.NoError(t, err, ip)
		assert.True(t, rec.IsUnknown(), ip)
	}
}

func TestLocateV4TooSmallEnd(t *testing.T) {
	tables, err := NewTables("test",
		[]IPv4Range{{Start: ip1_2_3_3, End: ip1_2_3_3, LocationID: 1}},
		map[uint32]City{1: {City: "city"}},
		nil,
	)
	require.NoError(t, err)

	rec, err := NewLocator(tables, nil).LocateV4("1.2.3.4")
	require.NoError(t, err)
	assert.True(t, rec.IsUnknown())
}

func TestLocateV6(t *testing.T) {
	l := NewLocator(testTables(t), nil)

	rec, err := l.LocateV6("1:2:3:4::5")
	require.NoError(t, err)
	assert.Empty(t, rec.City)
	assert.Equal(t, "country", rec.Country)
	require.NotNil(t, rec.Location)
	assert.Equal(t, 3.0, rec.Location.Latitude)

	rec, err = l.LocateV6("1:2:3:5:ffff::1")
	require.NoError(t, err)
	assert.Equal(t, "country", rec.Country)

	for _, ip := range []string{"::1", "1:2:3:3::5", "1:2:3:6::"} {
		rec, err := l.LocateV6(ip)
		require.NoError(t, err, ip)
		assert.True(t, rec.IsUnknown(), ip)
	}
}

func TestLocateV6Mapped(t *testing.T) {
	l := NewLocator(testTables(t), nil)

	rec, err := l.LocateV6("::ffff:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "city", rec.City)
	assert.Equal(t, "country", rec.Country)

	rec, err = l.LocateV6("::ffff:5.6.7.8")
	require.NoError(t, err)
	assert.True(t, rec.IsUnknown())
}

func TestLocateInvalid(t *testing.T) {
	l := NewLocator(testTables(t), nil)

	for _, ip := range []string{"", "abc", "12.3.4", "1.2.3.256", "1::1::1", "1:2:3:4::5"} {
		_, err := l.LocateV4(ip)
		assert.ErrorIs(t, err, ErrInvalidAddress, ip)
	}
	for _, ip := range []string{"", "abc", "1.2.3.4", "1::1::1", "fe80::1%eth0"} {
		_, err := l.LocateV6(ip)
		assert.ErrorIs(t, err, ErrInvalidAddress, ip)
	}
	for _, ip := range []string{"", "non_valid_ip", "fe80::1%eth0"} {
		_, err := l.Locate(ip)
		assert.ErrorIs(t, err, ErrInvalidAddress, ip)
	}
}

func TestLocateDispatch(t *testing.T) {
	l := NewLocator(testTables(t), nil)
	ctx := context.Background()

	rec, err := l.LocateContext(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "city", rec.City)

	rec, err = l.Locate("::ffff:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "city", rec.City)

	rec, err = l.Locate("1:2:3:4::5")
	require.NoError(t, err)
	assert.Equal(t, "country", rec.Country)
	assert.Empty(t, rec.City)
}

func TestLocatorWithoutTables(t *testing.T) {
	l := NewLocator(nil, nil)

	rec, err := l.Locate("1.2.3.4")
	require.NoError(t, err)
	assert.True(t, rec.IsUnknown())
	assert.Nil(t, l.Tables())
}

func TestNewTablesRejectsOverlaps(t *testing.T) {
	_, err := NewTables("test", []IPv4Range{{Start: 10, End: 20}, {Start: 15, End: 30}}, nil, nil)
	assert.Error(t, err)

	_, err = NewTables("test", []IPv4Range{{Start: 20, End: 10}}, nil, nil)
	assert.Error(t, err)

	_, err = NewTables("test", nil, nil, []IPv6Range{{Start: 1, End: 5}, {Start: 5, End: 9}})
	assert.Error(t, err)

	tables, err := NewTables("test", []IPv4Range{{Start: 50, End: 60}, {Start: 10, End: 20}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), tables.IPv4[0].End, "sorted by end")
	assert.NotNil(t, tables.Cities)
}

func TestSwapIsAtomic(t *testing.T) {
	old := testTables(t)
	l := NewLocator(old, nil)

	next, err := NewTables("next", nil, nil, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				rec, err := l.LocateV4("1.2.3.4")
				assert.NoError(t, err)
				// either the old or the new snapshot, never a mix
				if !rec.IsUnknown() {
					assert.Equal(t, "city", rec.City)
				}
			}
		}()
	}

	prev := l.Swap(next)
	wg.Wait()

	assert.Same(t, old, prev)
	assert.Same(t, next, l.Tables())
}
