// Package candidates retrieves the slivers eligible for a tool and
// address family. The cache is authoritative whenever it has an entry;
// the store is only read on a cache miss, and the two are never merged.
package candidates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eumel8/mlab-ns/cache"
	"github.com/eumel8/mlab-ns/types"
)

// ErrRetrieval is returned when the cache or the store couldn't be read,
// including when the context deadline passed.
var ErrRetrieval = errors.New("candidate retrieval failed")

// Cache is the fast lookup layer. ok is true on a hit, even if the
// cached list is empty.
type Cache interface {
	Get(ctx context.Context, namespace, key string) (sl []types.SliverTool, ok bool, err error)
}

// Store is the authoritative record of all slivers.
type Store interface {
	SliverToolsByTool(ctx context.Context, toolID string) ([]types.SliverTool, error)
}

// Source fetches candidates cache first with the store as fallback.
type Source struct {
	cache   Cache
	store   Store
	metrics *Metrics
}

// NewSource returns a Source. cache may be nil to always read the store.
func NewSource(c Cache, store Store, metrics *Metrics) *Source {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Source{
		cache:   c,
		store:   store,
		metrics: metrics,
	}
}

// Fetch returns the slivers of the tool that are online for the address
// family, in the order the cache or store returned them. No eligible
// slivers is an empty result, not an error.
func (s *Source) Fetch(ctx context.Context, toolID string, af types.AddressFamily) ([]types.SliverTool, error) {
	ctx, span := tracing.Start(ctx, "candidates.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("tool_id", toolID),
		attribute.String("address_family", af.String()),
	)

	log := logger.FromContext(ctx)

	all, src, err := s.all(ctx, toolID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.Fetches.WithLabelValues("error").Inc()
		log.WarnContext(ctx, "could not fetch candidates", "tool_id", toolID, "err", err)
		return nil, err
	}
	s.metrics.Fetches.WithLabelValues(src).Inc()

	r := FilterOnline(all, af)

	span.SetAttributes(
		attribute.String("source", src),
		attribute.Int("slivers", len(all)),
		attribute.Int("candidates", len(r)),
	)
	log.DebugContext(ctx, "fetched candidates",
		"tool_id", toolID,
		"address_family", af.String(),
		"source", src,
		"slivers", len(all),
		"candidates", len(r),
	)

	return r, nil
}

func (s *Source) all(ctx context.Context, toolID string) ([]types.SliverTool, string, error) {
	if s.cache != nil {
		start := time.Now()
		sl, ok, err := s.cache.Get(ctx, cache.SliverToolsNamespace, toolID)
		s.metrics.FetchDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, "", fmt.Errorf("%w: cache: %w", ErrRetrieval, err)
		}
		if ok {
			return sl, "cache", nil
		}
	}

	start := time.Now()
	sl, err := s.store.SliverToolsByTool(ctx, toolID)
	s.metrics.FetchDuration.WithLabelValues("store").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, "", fmt.Errorf("%w: store: %w", ErrRetrieval, err)
	}

	return sl, "store", nil
}

// FilterOnline returns the slivers online for the address family,
// preserving order.
func FilterOnline(sl []types.SliverTool, af types.AddressFamily) []types.SliverTool {
	r := make([]types.SliverTool, 0, len(sl))
	for i := range sl {
		if sl[i].IsOnline(af) {
			r = append(r, sl[i])
		}
	}
	return r
}
