package geo

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/oschwald/maxminddb-golang/v2"
	"go4.org/netipx"

	"github.com/eumel8/mlab-ns/types"
)

// MMDBProvider builds the tables from a MaxMind GeoIP2/GeoLite2 City
// database by walking every network in it.
type MMDBProvider struct {
	path string
}

func NewMMDBProvider(path string) *MMDBProvider {
	return &MMDBProvider{path: path}
}

func (p *MMDBProvider) Path() string {
	return p.path
}

type mmdbRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

type cityKey struct {
	city, country string
	lat, lon      float64
	hasLocation   bool
}

func (p *MMDBProvider) LoadTables(ctx context.Context) (*Tables, error) {
	db, err := maxminddb.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mmdb: %w", err)
	}
	defer db.Close()

	b := newMMDBBuilder()

	n := 0
	for result := range db.Networks() {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", p.path, err)
		}

		n++
		if n%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var rec mmdbRecord
		if err := result.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", result.Prefix(), err)
		}

		b.add(result.Prefix(), rec)
	}

	return NewTables("mmdb:"+p.path, b.v4, b.cities, b.v6)
}

type mmdbBuilder struct {
	v4      []IPv4Range
	v6      []IPv6Range
	cities  map[uint32]City
	cityIDs map[cityKey]uint32
}

func newMMDBBuilder() *mmdbBuilder {
	return &mmdbBuilder{
		cities:  map[uint32]City{},
		cityIDs: map[cityKey]uint32{},
	}
}

func (b *mmdbBuilder) add(prefix netip.Prefix, rec mmdbRecord) {
	var loc *types.Point
	if rec.Location.Latitude != nil && rec.Location.Longitude != nil {
		loc = &types.Point{Latitude: *rec.Location.Latitude, Longitude: *rec.Location.Longitude}
	}
	city := rec.City.Names["en"]
	country := rec.Country.ISOCode

	if len(city) == 0 && len(country) == 0 && loc == nil {
		return
	}

	r := netipx.RangeOfPrefix(ipv4Prefix(prefix).Masked())
	if !r.IsValid() {
		return
	}

	if r.From().Is4() {
		b.v4 = append(b.v4, IPv4Range{
			Start:      ip4num(r.From()),
			End:        ip4num(r.To()),
			LocationID: b.cityID(city, country, loc),
		})
		return
	}

	start, end := upper64(r.From()), upper64(r.To())
	// networks smaller than a /64 share their key with the first one seen
	if n := len(b.v6); n > 0 && start <= b.v6[n-1].End {
		return
	}
	b.v6 = append(b.v6, IPv6Range{
		Start:    start,
		End:      end,
		Country:  country,
		Location: loc,
	})
}

func (b *mmdbBuilder) cityID(city, country string, loc *types.Point) uint32 {
	key := cityKey{city: city, country: country}
	if loc != nil {
		key.lat, key.lon, key.hasLocation = loc.Latitude, loc.Longitude, true
	}
	if id, ok := b.cityIDs[key]; ok {
		return id
	}
	id := uint32(len(b.cityIDs) + 1)
	b.cityIDs[key] = id
	b.cities[id] = City{City: city, Country: country, Location: loc}
	return id
}

// ipv4Prefix converts networks of the IPv4 subtree of an IPv6 database
// (::/96 and ::ffff:0:0/96) to IPv4 prefixes.
func ipv4Prefix(p netip.Prefix) netip.Prefix {
	a := p.Addr()
	if !a.Is6() || p.Bits() < 96 {
		return p
	}
	a16 := a.As16()
	if a.Is4In6() || [12]byte(a16[:12]) == [12]byte{} {
		return netip.PrefixFrom(netip.AddrFrom4([4]byte(a16[12:])), p.Bits()-96)
	}
	return p
}
