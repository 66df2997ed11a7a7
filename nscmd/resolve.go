package nscmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.ntppool.org/common/logger"

	"github.com/eumel8/mlab-ns/candidates"
	"github.com/eumel8/mlab-ns/fqdn"
	"github.com/eumel8/mlab-ns/resolver"
	"github.com/eumel8/mlab-ns/types"
)

type resolveCmd struct {
	Tool          string   `arg:"" help:"Tool id, for example ndt"`
	Policy        string   `default:"geo" help:"Selection policy: geo, metro, country or random"`
	IP            string   `name:"ip" help:"Client IP address"`
	AddressFamily string   `name:"address-family" help:"Force ipv4 or ipv6"`
	Latitude      *float64 `name:"lat" help:"Client latitude, overrides the IP address location"`
	Longitude     *float64 `name:"lon" help:"Client longitude"`
	Country       string   `help:"Country code for the country policy"`
	Metro         string   `help:"Metro code for the metro policy"`
	All           bool     `help:"List every eligible sliver instead of selecting one"`
}

// resolveResult is printed for a selected sliver.
type resolveResult struct {
	QueryID string   `json:"query_id"`
	FQDN    string   `json:"fqdn"`
	IP      []string `json:"ip"`
	Site    string   `json:"site"`
	City    string   `json:"city,omitempty"`
	Country string   `json:"country,omitempty"`
	Metro   []string `json:"metro,omitempty"`
}

func (cmd *resolveCmd) Run(ctx context.Context, cli *NSCmd) error {
	log := logger.FromContext(ctx)
	defer cli.close()

	shutdownTracing, err := cli.initTracing(ctx)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	store, err := cli.store(ctx)
	if err != nil {
		return err
	}
	c, err := cli.openCache()
	if err != nil {
		return err
	}
	source := candidates.NewSource(c, store, nil)

	var locator resolver.IPLocator
	if len(cmd.IP) > 0 && cmd.Latitude == nil {
		l, _, err := cli.locator(ctx, nil)
		if err != nil {
			return err
		}
		locator = l
	}

	q, err := resolver.BuildQuery(ctx, resolver.Request{
		ToolID:        cmd.Tool,
		Policy:        cmd.Policy,
		ClientIP:      cmd.IP,
		AddressFamily: cmd.AddressFamily,
		Latitude:      cmd.Latitude,
		Longitude:     cmd.Longitude,
		Country:       cmd.Country,
		Metro:         cmd.Metro,
	}, locator)
	if err != nil {
		return err
	}

	rw, err := cli.rewriter()
	if err != nil {
		return fmt.Errorf("machine-regexp: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cli.Timeout)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if cmd.All {
		base := resolver.NewBase(source, nil)
		sl, err := base.Candidates(ctx, q)
		if err != nil {
			return err
		}
		results := make([]resolveResult, 0, len(sl))
		for i := range sl {
			results = append(results, newResolveResult(q, &sl[i], rw))
		}
		return enc.Encode(results)
	}

	policy := resolver.NewPolicy(q.Policy, source, nil)
	st, err := policy.Resolve(ctx, q)
	if err != nil {
		return err
	}
	if st == nil {
		log.InfoContext(ctx, "no sliver found", "tool", q.ToolID, "policy", policy.Name())
		return resolver.ErrNoMatch
	}

	return enc.Encode(newResolveResult(q, st, rw))
}

func newResolveResult(q *resolver.Query, st *types.SliverTool, rw *fqdn.Rewriter) resolveResult {
	r := resolveResult{
		QueryID: q.ID,
		FQDN:    rw.Rewrite(st.FQDN, q.UserForcedFamily),
		Site:    st.SiteID,
		City:    st.City,
		Country: st.Country,
		Metro:   st.Metro,
	}

	switch q.UserForcedFamily {
	case types.IPv4, types.IPv6:
		r.IP = []string{st.Address(q.UserForcedFamily)}
	default:
		for _, af := range []types.AddressFamily{types.IPv4, types.IPv6} {
			if ip := st.Address(af); ip != types.NoIPAddress {
				r.IP = append(r.IP, ip)
			}
		}
	}

	return r
}

type locateCmd struct {
	IP string `arg:"" help:"IPv4 or IPv6 address"`
}

func (cmd *locateCmd) Run(ctx context.Context, cli *NSCmd) error {
	defer cli.close()

	l, _, err := cli.locator(ctx, nil)
	if err != nil {
		return err
	}

	rec, err := l.LocateContext(ctx, cmd.IP)
	if err != nil {
		return err
	}
	if rec.IsUnknown() {
		logger.FromContext(ctx).InfoContext(ctx, "location unknown", "ip", cmd.IP)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
