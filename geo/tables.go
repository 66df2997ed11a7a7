package geo

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/eumel8/mlab-ns/types"
)

// IPv4Range maps an inclusive range of addresses to a city table entry.
type IPv4Range struct {
	Start      uint32
	End        uint32
	LocationID uint32
}

// City is the location data shared by IPv4 ranges.
type City struct {
	City     string
	Country  string
	Location *types.Point
}

// IPv6Range is an inclusive range of the upper 64 bits of IPv6
// addresses, with the location inline.
type IPv6Range struct {
	Start    uint64
	End      uint64
	Country  string
	Location *types.Point
}

// Tables is an immutable snapshot of the geolocation data. Build it with
// NewTables and don't modify it after handing it to a Locator.
type Tables struct {
	IPv4   []IPv4Range
	Cities map[uint32]City
	IPv6   []IPv6Range

	Source   string
	LoadedAt time.Time
}

// NewTables sorts the ranges by their end and checks that none of them
// overlap.
func NewTables(source string, v4 []IPv4Range, cities map[uint32]City, v6 []IPv6Range) (*Tables, error) {
	slices.SortFunc(v4, func(a, b IPv4Range) int { return cmp.Compare(a.End, b.End) })
	slices.SortFunc(v6, func(a, b IPv6Range) int { return cmp.Compare(a.End, b.End) })

	for i, r := range v4 {
		if r.Start > r.End {
			return nil, fmt.Errorf("ipv4 range %d-%d: start after end", r.Start, r.End)
		}
		if i > 0 && r.Start <= v4[i-1].End {
			return nil, fmt.Errorf("ipv4 range %d-%d overlaps %d-%d", r.Start, r.End, v4[i-1].Start, v4[i-1].End)
		}
	}
	for i, r := range v6 {
		if r.Start > r.End {
			return nil, fmt.Errorf("ipv6 range %x-%x: start after end", r.Start, r.End)
		}
		if i > 0 && r.Start <= v6[i-1].End {
			return nil, fmt.Errorf("ipv6 range %x-%x overlaps %x-%x", r.Start, r.End, v6[i-1].Start, v6[i-1].End)
		}
	}

	if cities == nil {
		cities = map[uint32]City{}
	}

	return &Tables{
		IPv4:     v4,
		Cities:   cities,
		IPv6:     v6,
		Source:   source,
		LoadedAt: time.Now(),
	}, nil
}

// lookupV4 finds the range with the smallest end >= ip. It's a miss if
// there is none or if the range starts after ip.
func (t *Tables) lookupV4(ip uint32) (Record, bool) {
	i, _ := slices.BinarySearchFunc(t.IPv4, ip, func(r IPv4Range, ip uint32) int {
		return cmp.Compare(r.End, ip)
	})
	if i >= len(t.IPv4) || t.IPv4[i].Start > ip {
		return Record{}, false
	}

	city, ok := t.Cities[t.IPv4[i].LocationID]
	if !ok {
		return Record{}, false
	}

	return Record{
		City:     city.City,
		Country:  city.Country,
		Location: city.Location,
	}, true
}

func (t *Tables) lookupV6(key uint64) (Record, bool) {
	i, _ := slices.BinarySearchFunc(t.IPv6, key, func(r IPv6Range, key uint64) int {
		return cmp.Compare(r.End, key)
	})
	if i >= len(t.IPv6) || t.IPv6[i].Start > key {
		return Record{}, false
	}

	r := t.IPv6[i]
	return Record{
		Country:  r.Country,
		Location: r.Location,
	}, true
}
