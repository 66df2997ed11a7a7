package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eumel8/mlab-ns/types"
)

// ErrNoMatch is for callers that want no match as an error; Resolve
// itself returns a nil sliver and a nil error.
var ErrNoMatch = errors.New("no sliver matches the query")

// Policy names
const (
	PolicyGeo     = "geo"
	PolicyMetro   = "metro"
	PolicyCountry = "country"
	PolicyRandom  = "random"
)

// CandidateSource returns the online slivers of a tool for an address
// family.
type CandidateSource interface {
	Fetch(ctx context.Context, toolID string, af types.AddressFamily) ([]types.SliverTool, error)
}

// Policy selects one sliver for a query. A nil sliver with a nil error
// means nothing matched.
type Policy interface {
	Name() string
	Resolve(ctx context.Context, q *Query) (*types.SliverTool, error)
}

// selector picks from a non-empty candidate list.
type selector interface {
	name() string
	choose(q *Query, candidates []types.SliverTool) *types.SliverTool
}

// Base has the candidate lookup with address family fallback shared by
// all policies. On its own it picks the first candidate.
type Base struct {
	source  CandidateSource
	metrics *Metrics
}

func NewBase(source CandidateSource, metrics *Metrics) *Base {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Base{source: source, metrics: metrics}
}

// Candidates returns the candidates for the query's family. If there are
// none and the family wasn't forced by the user, the other family is
// tried.
func (b *Base) Candidates(ctx context.Context, q *Query) ([]types.SliverTool, error) {
	sl, err := b.source.Fetch(ctx, q.ToolID, q.Family)
	if err != nil {
		return nil, err
	}
	if len(sl) > 0 || q.UserForcedFamily == q.Family {
		return sl, nil
	}

	other := q.Family.Other()
	if !other.IsSet() {
		return sl, nil
	}

	logger.FromContext(ctx).DebugContext(ctx, "no candidates, trying other address family",
		"query_id", q.ID, "tool_id", q.ToolID, "family", q.Family.String(), "fallback", other.String())
	b.metrics.FamilyFallbacks.WithLabelValues(q.Family.String()).Inc()

	return b.source.Fetch(ctx, q.ToolID, other)
}

func (b *Base) Name() string { return "base" }

func (b *Base) Resolve(ctx context.Context, q *Query) (*types.SliverTool, error) {
	return b.resolve(ctx, q, firstSelector{})
}

func (b *Base) resolve(ctx context.Context, q *Query, s selector) (*types.SliverTool, error) {
	ctx, span := tracing.Start(ctx, "resolver.Resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("policy", s.name()),
		attribute.String("tool_id", q.ToolID),
		attribute.String("query_id", q.ID),
	)

	log := logger.FromContext(ctx)
	start := time.Now()

	sl, err := b.Candidates(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.metrics.observe(s.name(), "error", start)
		return nil, err
	}

	var st *types.SliverTool
	if len(sl) > 0 {
		st = s.choose(q, sl)
	}

	if st == nil {
		b.metrics.observe(s.name(), "no_match", start)
		log.DebugContext(ctx, "no match", "query_id", q.ID, "tool_id", q.ToolID,
			"policy", s.name(), "candidates", len(sl))
		return nil, nil
	}

	b.metrics.observe(s.name(), "ok", start)
	span.SetAttributes(attribute.String("fqdn", st.FQDN))
	log.DebugContext(ctx, "resolved", "query_id", q.ID, "tool_id", q.ToolID,
		"policy", s.name(), "candidates", len(sl), "fqdn", st.FQDN)

	return st, nil
}

type firstSelector struct{}

func (firstSelector) name() string { return "base" }

func (firstSelector) choose(q *Query, sl []types.SliverTool) *types.SliverTool {
	return &sl[0]
}

// NewPolicy returns the policy for name (case-insensitive). Unknown
// names get the random policy.
func NewPolicy(name string, source CandidateSource, metrics *Metrics) Policy {
	base := NewBase(source, metrics)

	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyGeo:
		return &Geo{base}
	case PolicyMetro:
		return &Metro{base}
	case PolicyCountry:
		return &Country{base}
	default:
		return NewRandom(base)
	}
}
