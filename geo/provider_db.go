package geo

import (
	"context"
	"database/sql"

	"golang.org/x/sync/errgroup"

	"github.com/eumel8/mlab-ns/nsdb"
	"github.com/eumel8/mlab-ns/types"
)

// DBProvider loads the tables from the maxmind_* tables in the database.
type DBProvider struct {
	q nsdb.Querier
}

func NewDBProvider(q nsdb.Querier) *DBProvider {
	return &DBProvider{q: q}
}

func (p *DBProvider) LoadTables(ctx context.Context) (*Tables, error) {
	var (
		v4Rows   []nsdb.MaxmindIpv4
		cityRows []nsdb.MaxmindCity
		v6Rows   []nsdb.MaxmindIpv6
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		v4Rows, err = p.q.GetMaxmindIPv4Ranges(gctx)
		return err
	})
	g.Go(func() (err error) {
		cityRows, err = p.q.GetMaxmindCities(gctx)
		return err
	})
	g.Go(func() (err error) {
		v6Rows, err = p.q.GetMaxmindIPv6Ranges(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v4 := make([]IPv4Range, 0, len(v4Rows))
	for _, r := range v4Rows {
		v4 = append(v4, IPv4Range{Start: r.StartIpNum, End: r.EndIpNum, LocationID: r.LocationID})
	}

	cities := make(map[uint32]City, len(cityRows))
	for _, r := range cityRows {
		cities[r.LocationID] = City{
			City:     r.City.String,
			Country:  r.Country.String,
			Location: point(r.Latitude, r.Longitude),
		}
	}

	v6 := make([]IPv6Range, 0, len(v6Rows))
	for _, r := range v6Rows {
		v6 = append(v6, IPv6Range{
			Start:    r.StartIpNum,
			End:      r.EndIpNum,
			Country:  r.Country.String,
			Location: point(r.Latitude, r.Longitude),
		})
	}

	return NewTables("db", v4, cities, v6)
}

func point(lat, lon sql.NullFloat64) *types.Point {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &types.Point{Latitude: lat.Float64, Longitude: lon.Float64}
}
