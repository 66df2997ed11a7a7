// Package geo maps client IP addresses to a city, country and
// coordinates using sorted range tables. IPv4 ranges reference a city
// table by location id; IPv6 ranges are keyed on the upper 64 bits of
// the address and carry the country and coordinates themselves.
package geo

import (
	"context"
	"encoding/binary"
	"errors"
	"net/netip"
	"sync/atomic"

	"go.ntppool.org/common/tracing"
	"go.opentelemetry.io/otel/attribute"

	"github.com/eumel8/mlab-ns/types"
)

// ErrInvalidAddress is returned for strings that aren't an IP address
// literal of the expected version.
var ErrInvalidAddress = errors.New("invalid ip address")

// Record is the location of an address. Every field is optional; a zero
// Record means the location is unknown.
type Record struct {
	City     string       `json:"city,omitempty"`
	Country  string       `json:"country,omitempty"`
	Location *types.Point `json:"location,omitempty"`
}

// IsUnknown is true when nothing is known about the address.
func (r Record) IsUnknown() bool {
	return len(r.City) == 0 && len(r.Country) == 0 && r.Location == nil
}

// TableProvider loads a complete set of tables.
type TableProvider interface {
	LoadTables(ctx context.Context) (*Tables, error)
}

// Locator answers lookups from the current table snapshot. Lookups take
// no locks; Swap replaces the snapshot for subsequent lookups.
type Locator struct {
	tables  atomic.Pointer[Tables]
	metrics *Metrics
}

// NewLocator returns a Locator. With nil tables every address is
// unknown until Swap is called.
func NewLocator(t *Tables, metrics *Metrics) *Locator {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	l := &Locator{metrics: metrics}
	if t != nil {
		l.Swap(t)
	}
	return l
}

// Swap installs a new table snapshot and returns the previous one.
func (l *Locator) Swap(t *Tables) *Tables {
	l.metrics.TableEntries.WithLabelValues("ipv4").Set(float64(len(t.IPv4)))
	l.metrics.TableEntries.WithLabelValues("city").Set(float64(len(t.Cities)))
	l.metrics.TableEntries.WithLabelValues("ipv6").Set(float64(len(t.IPv6)))
	l.metrics.LoadedAt.Set(float64(t.LoadedAt.Unix()))
	return l.tables.Swap(t)
}

// Tables returns the current snapshot, or nil.
func (l *Locator) Tables() *Tables {
	return l.tables.Load()
}

// LocateV4 looks up an IPv4 address. IPv6 literals are invalid here.
func (l *Locator) LocateV4(ip string) (Record, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		l.metrics.Lookups.WithLabelValues("ipv4", "invalid").Inc()
		return Record{}, ErrInvalidAddress
	}
	return l.locate4(addr), nil
}

// LocateV6 looks up an IPv6 address. IPv4 literals and zoned addresses
// are invalid here; IPv4-mapped addresses use the IPv4 table.
func (l *Locator) LocateV6(ip string) (Record, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is6() || len(addr.Zone()) > 0 {
		l.metrics.Lookups.WithLabelValues("ipv6", "invalid").Inc()
		return Record{}, ErrInvalidAddress
	}
	if addr.Is4In6() {
		return l.locate4(addr.Unmap()), nil
	}
	return l.locate6(addr), nil
}

// Locate looks up an address of either version. IPv4-mapped IPv6
// addresses are looked up in the IPv4 table.
func (l *Locator) Locate(ip string) (Record, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || len(addr.Zone()) > 0 {
		l.metrics.Lookups.WithLabelValues("unknown", "invalid").Inc()
		return Record{}, ErrInvalidAddress
	}
	addr = addr.Unmap()
	if addr.Is4() {
		return l.locate4(addr), nil
	}
	return l.locate6(addr), nil
}

// LocateContext is Locate with a tracing span.
func (l *Locator) LocateContext(ctx context.Context, ip string) (Record, error) {
	_, span := tracing.Start(ctx, "geo.Locate")
	defer span.End()

	rec, err := l.Locate(ip)
	if err != nil {
		span.RecordError(err)
		return rec, err
	}
	span.SetAttributes(
		attribute.Bool("unknown", rec.IsUnknown()),
		attribute.String("country", rec.Country),
	)
	return rec, nil
}

func (l *Locator) locate4(addr netip.Addr) Record {
	t := l.tables.Load()
	if t == nil {
		l.metrics.Lookups.WithLabelValues("ipv4", "miss").Inc()
		return Record{}
	}

	rec, ok := t.lookupV4(ip4num(addr))
	l.metrics.Lookups.WithLabelValues("ipv4", result(ok)).Inc()
	return rec
}

func (l *Locator) locate6(addr netip.Addr) Record {
	t := l.tables.Load()
	if t == nil {
		l.metrics.Lookups.WithLabelValues("ipv6", "miss").Inc()
		return Record{}
	}

	rec, ok := t.lookupV6(upper64(addr))
	l.metrics.Lookups.WithLabelValues("ipv6", result(ok)).Inc()
	return rec
}

func ip4num(addr netip.Addr) uint32 {
	a4 := addr.As4()
	return binary.BigEndian.Uint32(a4[:])
}

func upper64(addr netip.Addr) uint64 {
	a16 := addr.As16()
	return binary.BigEndian.Uint64(a16[:8])
}

func result(ok bool) string {
	if ok {
		return "hit"
	}
	return "miss"
}
