package resolver

import (
	"context"
	"math"
	"strings"

	"github.com/eumel8/mlab-ns/types"
)

// Geo picks the sliver nearest to the client.
type Geo struct {
	*Base
}

func (p *Geo) Name() string { return PolicyGeo }

func (p *Geo) Resolve(ctx context.Context, q *Query) (*types.SliverTool, error) {
	return p.resolve(ctx, q, geoSelector{})
}

type geoSelector struct{}

func (geoSelector) name() string { return PolicyGeo }

// choose returns the first sliver at the minimum distance.
func (geoSelector) choose(q *Query, sl []types.SliverTool) *types.SliverTool {
	if q.Client == nil {
		return &sl[0]
	}

	best := 0
	bestDistance := math.Inf(1)
	for i := range sl {
		d := Distance(*q.Client, types.Point{Latitude: sl[i].Latitude, Longitude: sl[i].Longitude})
		if d < bestDistance {
			best, bestDistance = i, d
		}
	}
	return &sl[best]
}

// Country picks the first sliver in the country the user asked for.
type Country struct {
	*Base
}

func (p *Country) Name() string { return PolicyCountry }

func (p *Country) Resolve(ctx context.Context, q *Query) (*types.SliverTool, error) {
	if len(q.UserForcedCountry) == 0 {
		return nil, nil
	}
	return p.resolve(ctx, q, countrySelector{})
}

type countrySelector struct{}

func (countrySelector) name() string { return PolicyCountry }

func (countrySelector) choose(q *Query, sl []types.SliverTool) *types.SliverTool {
	for i := range sl {
		if strings.EqualFold(sl[i].Country, q.UserForcedCountry) {
			return &sl[i]
		}
	}
	return nil
}

// Metro picks the first sliver in the metro the user asked for.
type Metro struct {
	*Base
}

func (p *Metro) Name() string { return PolicyMetro }

func (p *Metro) Resolve(ctx context.Context, q *Query) (*types.SliverTool, error) {
	if len(q.UserForcedMetro) == 0 {
		return nil, nil
	}
	return p.resolve(ctx, q, metroSelector{})
}

type metroSelector struct{}

func (metroSelector) name() string { return PolicyMetro }

func (metroSelector) choose(q *Query, sl []types.SliverTool) *types.SliverTool {
	for i := range sl {
		if sl[i].InMetro(q.UserForcedMetro) {
			return &sl[i]
		}
	}
	return nil
}
