package geo

import (
	"context"
	"database/sql"
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eumel8/mlab-ns/nsdb"
)

const testBlocks = `Copyright (c) 2012 MaxMind LLC.  All Rights Reserved.
startIpNum,endIpNum,locId
"16777216","16777471","17"
"16909056","16909311","42"
`

const testLocations = `Copyright (c) 2012 MaxMind LLC.  All Rights Reserved.
locId,country,region,city,postalCode,latitude,longitude,metroCode,areaCode
17,"AU","","","",-27.0000,133.0000,,
42,"US","WA","Seattle","98101",47.6062,-122.3321,819,206
`

const testIPv6 = `startIp,endIp,country,latitude,longitude
2001:db8::,2001:db8:ffff:ffff:ffff:ffff:ffff:ffff,NL,52.37,4.89
2001:db9::,2001:db9::ffff,JP,,
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestCSVProvider(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		CSVBlocksFile:    testBlocks,
		CSVLocationsFile: testLocations,
		CSVIPv6File:      testIPv6,
	})

	p := NewCSVProvider(dir)
	tables, err := p.LoadTables(context.Background())
	require.NoError(t, err)
	assert.Len(t, tables.IPv4, 2)
	assert.Len(t, tables.Cities, 2)
	assert.Len(t, tables.IPv6, 2)

	l := NewLocator(tables, nil)

	rec, err := l.LocateV4("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "Seattle", rec.City)
	assert.Equal(t, "US", rec.Country)
	require.NotNil(t, rec.Location)
	assert.InDelta(t, 47.6062, rec.Location.Latitude, 0.0001)

	rec, err = l.LocateV4("1.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "AU", rec.Country)
	assert.Empty(t, rec.City)

	rec, err = l.LocateV6("2001:db8:1234::1")
	require.NoError(t, err)
	assert.Equal(t, "NL", rec.Country)
	require.NotNil(t, rec.Location)

	rec, err = l.LocateV6("2001:db9::1")
	require.NoError(t, err)
	assert.Equal(t, "JP", rec.Country)
	assert.Nil(t, rec.Location)
}

func TestCSVProviderWithoutIPv6(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		CSVBlocksFile:    testBlocks,
		CSVLocationsFile: testLocations,
	})

	tables, err := NewCSVProvider(dir).LoadTables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables.IPv6)
}

func TestCSVProviderErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewCSVProvider(t.TempDir()).LoadTables(ctx)
	assert.Error(t, err, "missing blocks file")

	dir := writeFiles(t, map[string]string{
		CSVBlocksFile:    "startIpNum,endIpNum,locId\n\"1\",\"x\",\"3\"\n",
		CSVLocationsFile: testLocations,
	})
	_, err = NewCSVProvider(dir).LoadTables(ctx)
	assert.ErrorContains(t, err, CSVBlocksFile+":2")

	dir = writeFiles(t, map[string]string{
		CSVBlocksFile:    "no header here\n",
		CSVLocationsFile: testLocations,
	})
	_, err = NewCSVProvider(dir).LoadTables(ctx)
	assert.ErrorContains(t, err, "header")
}

type fakeQuerier struct {
	nsdb.Querier
	v4     []nsdb.MaxmindIpv4
	cities []nsdb.MaxmindCity
	v6     []nsdb.MaxmindIpv6
	err    error
}

func (f *fakeQuerier) GetMaxmindIPv4Ranges(ctx context.Context) ([]nsdb.MaxmindIpv4, error) {
	return f.v4, f.err
}

func (f *fakeQuerier) GetMaxmindCities(ctx context.Context) ([]nsdb.MaxmindCity, error) {
	return f.cities, nil
}

func (f *fakeQuerier) GetMaxmindIPv6Ranges(ctx context.Context) ([]nsdb.MaxmindIpv6, error) {
	return f.v6, nil
}

func TestDBProvider(t *testing.T) {
	q := &fakeQuerier{
		v4: []nsdb.MaxmindIpv4{{StartIpNum: ip1_2_3_4, EndIpNum: ip1_2_3_5, LocationID: 7}},
		cities: []nsdb.MaxmindCity{{
			LocationID: 7,
			City:       sql.NullString{String: "city", Valid: true},
			Country:    sql.NullString{String: "country", Valid: true},
			Latitude:   sql.NullFloat64{Float64: 1, Valid: true},
			Longitude:  sql.NullFloat64{Float64: 2, Valid: true},
		}},
		v6: []nsdb.MaxmindIpv6{{
			StartIpNum: net1_2_3_4,
			EndIpNum:   net1_2_3_5,
			Country:    sql.NullString{String: "country", Valid: true},
		}},
	}

	tables, err := NewDBProvider(q).LoadTables(context.Background())
	require.NoError(t, err)

	l := NewLocator(tables, nil)
	rec, err := l.LocateV4("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "city", rec.City)
	require.NotNil(t, rec.Location)
	assert.Equal(t, 2.0, rec.Location.Longitude)

	rec, err = l.LocateV6("1:2:3:4::5")
	require.NoError(t, err)
	assert.Equal(t, "country", rec.Country)
	assert.Nil(t, rec.Location)

	q.err = errors.New("connection reset")
	_, err = NewDBProvider(q).LoadTables(context.Background())
	assert.Error(t, err)
}

func TestMMDBBuilder(t *testing.T) {
	lat, lon := 47.6, -122.3

	var seattle, nl mmdbRecord
	seattle.City.Names = map[string]string{"en": "Seattle"}
	seattle.Country.ISOCode = "US"
	seattle.Location.Latitude, seattle.Location.Longitude = &lat, &lon
	nl.Country.ISOCode = "NL"

	b := newMMDBBuilder()
	b.add(netip.MustParsePrefix("1.2.3.0/24"), seattle)
	b.add(netip.MustParsePrefix("::1.2.4.0/120"), seattle)
	b.add(netip.MustParsePrefix("::ffff:1.2.5.0/120"), nl)
	b.add(netip.MustParsePrefix("2001:db8::/32"), nl)
	b.add(netip.MustParsePrefix("2001:db9::/80"), nl)
	b.add(netip.MustParsePrefix("2001:db9:0:0:1::/80"), nl)
	b.add(netip.MustParsePrefix("2001:dba::/32"), mmdbRecord{})

	require.Len(t, b.v4, 3)
	assert.Equal(t, uint32(ip1_2_3_4-4), b.v4[0].Start)
	assert.Equal(t, b.v4[0].LocationID, b.v4[1].LocationID, "same city shares a location id")
	assert.NotEqual(t, b.v4[0].LocationID, b.v4[2].LocationID)
	assert.Len(t, b.cities, 2)

	require.Len(t, b.v6, 2, "networks below /64 collapse, empty records are skipped")
	assert.Equal(t, uint64(0x20010db800000000), b.v6[0].Start)
	assert.Equal(t, uint64(0x20010db8ffffffff), b.v6[0].End)

	tables, err := NewTables("mmdb", b.v4, b.cities, b.v6)
	require.NoError(t, err)

	rec, err := NewLocator(tables, nil).Locate("1.2.4.9")
	require.NoError(t, err)
	assert.Equal(t, "Seattle", rec.City)
}

func TestMMDBProviderMissingFile(t *testing.T) {
	_, err := NewMMDBProvider(filepath.Join(t.TempDir(), "GeoLite2-City.mmdb")).LoadTables(context.Background())
	assert.Error(t, err)
}
