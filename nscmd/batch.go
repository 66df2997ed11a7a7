package nscmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.ntppool.org/common/logger"

	"github.com/eumel8/mlab-ns/cache"
	"github.com/eumel8/mlab-ns/candidates"
	"github.com/eumel8/mlab-ns/fqdn"
	"github.com/eumel8/mlab-ns/resolver"
)

type batchCmd struct {
	StoreTTL       time.Duration `name:"store-ttl" default:"30s" help:"How long a store read is reused across requests, 0 for the whole run"`
	StoreCacheSize int           `name:"store-cache-size" default:"1000" help:"Tools kept in the store read cache"`
	NoGeo          bool          `name:"no-geo" help:"Don't load the geo tables, requests need explicit coordinates"`
}

// batchRequest is one line of batch input.
type batchRequest struct {
	Tool          string   `json:"tool"`
	Policy        string   `json:"policy"`
	IP            string   `json:"ip"`
	AddressFamily string   `json:"address_family"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Country       string   `json:"country"`
	Metro         string   `json:"metro"`
}

// batchResponse is one line of batch output, in request order.
type batchResponse struct {
	Tool   string         `json:"tool"`
	Result *resolveResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func (cmd *batchCmd) Run(ctx context.Context, cli *NSCmd) error {
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
	reads := cache.NewReadThrough(store, cache.NewMemory(cmd.StoreCacheSize, cmd.StoreTTL))

	rw, err := cli.rewriter()
	if err != nil {
		return fmt.Errorf("machine-regexp: %w", err)
	}

	b := &batcher{
		source:  candidates.NewSource(c, reads, nil),
		rw:      rw,
		metrics: resolver.NewMetrics(nil),
		timeout: cli.Timeout,
	}
	if !cmd.NoGeo {
		l, _, err := cli.locator(ctx, nil)
		if err != nil {
			return err
		}
		b.locator = l
	}

	n, err := b.run(ctx, os.Stdin, os.Stdout)
	log.InfoContext(ctx, "batch done", "requests", n)
	return err
}

// batcher resolves a stream of requests with one candidate source, so
// the store read cache is shared between them.
type batcher struct {
	source  resolver.CandidateSource
	locator resolver.IPLocator
	rw      *fqdn.Rewriter
	metrics *resolver.Metrics
	timeout time.Duration
}

// run reads one JSON request per line and writes one JSON response per
// request. A bad request gets an error response; only read and write
// failures stop the run.
func (b *batcher) run(ctx context.Context, in io.Reader, out io.Writer) (int, error) {
	enc := json.NewEncoder(out)
	sc := bufio.NewScanner(in)

	n := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		n++
		if err := enc.Encode(b.resolve(ctx, line)); err != nil {
			return n, err
		}
	}
	return n, sc.Err()
}

func (b *batcher) resolve(ctx context.Context, line []byte) batchResponse {
	var req batchRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return batchResponse{Error: fmt.Sprintf("invalid request: %s", err)}
	}
	resp := batchResponse{Tool: req.Tool}

	if len(req.Policy) == 0 {
		req.Policy = resolver.PolicyGeo
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	q, err := resolver.BuildQuery(ctx, resolver.Request{
		ToolID:        req.Tool,
		Policy:        req.Policy,
		ClientIP:      req.IP,
		AddressFamily: req.AddressFamily,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Country:       req.Country,
		Metro:         req.Metro,
	}, b.locator)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	st, err := resolver.NewPolicy(q.Policy, b.source, b.metrics).Resolve(ctx, q)
	switch {
	case err != nil:
		resp.Error = err.Error()
	case st == nil:
		resp.Error = resolver.ErrNoMatch.Error()
	default:
		r := newResolveResult(q, st, b.rw)
		resp.Result = &r
	}
	return resp
}
