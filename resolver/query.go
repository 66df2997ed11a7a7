package resolver

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/eumel8/mlab-ns/geo"
	"github.com/eumel8/mlab-ns/types"
)

// Query is what a client asked for, with the context the request layer
// derived from the connection.
type Query struct {
	ID     string
	ToolID string
	Policy string

	// Family is the address family the client connected with, or the
	// one it asked for.
	Family types.AddressFamily
	// UserForcedFamily is set when the client explicitly asked for an
	// address family.
	UserForcedFamily types.AddressFamily

	// Client is the client location, nil if unknown.
	Client *types.Point

	UserForcedCountry string
	UserForcedMetro   string
}

// Request is the raw client input BuildQuery works from. Empty fields
// are unset.
type Request struct {
	ToolID        string
	Policy        string
	ClientIP      string
	AddressFamily string
	Latitude      *float64
	Longitude     *float64
	Country       string
	Metro         string
}

// IPLocator is the part of geo.Locator BuildQuery uses.
type IPLocator interface {
	LocateContext(ctx context.Context, ip string) (geo.Record, error)
}

// BuildQuery turns a request into a Query. The family follows the
// client address (IPv4 without one) unless the request names a family,
// which then is also the user forced family. Explicit coordinates win
// over the client address location; a location that isn't known leaves
// the client coordinates unset. locator may be nil.
func BuildQuery(ctx context.Context, req Request, locator IPLocator) (*Query, error) {
	q := &Query{
		ID:                NewQueryID(),
		ToolID:            req.ToolID,
		Policy:            strings.ToLower(strings.TrimSpace(req.Policy)),
		Family:            types.IPv4,
		UserForcedCountry: strings.TrimSpace(req.Country),
		UserForcedMetro:   strings.TrimSpace(req.Metro),
	}

	var clientAddr netip.Addr
	if len(req.ClientIP) > 0 {
		addr, err := netip.ParseAddr(req.ClientIP)
		if err != nil {
			return nil, fmt.Errorf("client ip %q: %w", req.ClientIP, geo.ErrInvalidAddress)
		}
		clientAddr = addr.Unmap()
		if clientAddr.Is6() {
			q.Family = types.IPv6
		}
	}

	if len(req.AddressFamily) > 0 {
		af, err := types.ParseAddressFamily(req.AddressFamily)
		if err != nil {
			return nil, err
		}
		if af.IsSet() {
			q.Family = af
			q.UserForcedFamily = af
		}
	}

	switch {
	case req.Latitude != nil && req.Longitude != nil:
		q.Client = &types.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}

	case clientAddr.IsValid() && locator != nil:
		rec, err := locator.LocateContext(ctx, clientAddr.String())
		if err != nil {
			return nil, err
		}
		q.Client = rec.Location
	}

	return q, nil
}
