package candidates

import (
	"context"
	"errors"
	"fmt"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"
	"go.opentelemetry.io/otel/attribute"

	"github.com/eumel8/mlab-ns/cache"
	"github.com/eumel8/mlab-ns/geo"
	"github.com/eumel8/mlab-ns/types"
)

// SyncStore is the store side of a cache sync.
type SyncStore interface {
	Store
	ToolIDs(ctx context.Context) ([]string, error)
}

// CacheWriter is the cache side of a cache sync.
type CacheWriter interface {
	Set(ctx context.Context, namespace, key string, sl []types.SliverTool) error
}

// Locator fills in missing site coordinates from the sliver address.
type Locator interface {
	LocateV4(ip string) (geo.Record, error)
}

// Syncer copies the sliver records of every tool from the store into the
// cache.
type Syncer struct {
	cache   CacheWriter
	locator Locator
	metrics *Metrics
}

// NewSyncer returns a Syncer. locator may be nil.
func NewSyncer(c CacheWriter, locator Locator, metrics *Metrics) *Syncer {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Syncer{
		cache:   c,
		locator: locator,
		metrics: metrics,
	}
}

// Sync writes the slivers of every tool known to the store and returns
// how many tools were written. A tool with no slivers is skipped, an
// empty list from the store is more likely a failure upstream than a
// tool without servers. Errors for one tool don't stop the others.
func (s *Syncer) Sync(ctx context.Context, store SyncStore) (int, error) {
	ctx, span := tracing.Start(ctx, "candidates.Sync")
	defer span.End()

	log := logger.FromContext(ctx)

	toolIDs, err := store.ToolIDs(ctx)
	if err != nil {
		s.metrics.SyncRuns.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("listing tools: %w", err)
	}

	var errs []error
	written := 0

	for _, toolID := range toolIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		sl, err := store.SliverToolsByTool(ctx, toolID)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", toolID, err))
			continue
		}

		if len(sl) == 0 {
			log.WarnContext(ctx, "no slivers for tool, not updating cache", "tool_id", toolID)
			s.metrics.SyncSkipped.WithLabelValues(toolID).Inc()
			continue
		}

		for i := range sl {
			s.fillLocation(ctx, &sl[i])
		}

		if err := s.cache.Set(ctx, cache.SliverToolsNamespace, toolID, sl); err != nil {
			errs = append(errs, fmt.Errorf("writing %s: %w", toolID, err))
			continue
		}

		s.metrics.SyncedSlivers.WithLabelValues(toolID).Set(float64(len(sl)))
		written++
		log.DebugContext(ctx, "synced tool", "tool_id", toolID, "slivers", len(sl))
	}

	span.SetAttributes(
		attribute.Int("tools", len(toolIDs)),
		attribute.Int("written", written),
	)

	err = errors.Join(errs...)
	if err != nil {
		s.metrics.SyncRuns.WithLabelValues("error").Inc()
		span.RecordError(err)
		return written, err
	}

	s.metrics.SyncRuns.WithLabelValues("ok").Inc()
	return written, nil
}

func (s *Syncer) fillLocation(ctx context.Context, st *types.SliverTool) {
	if s.locator == nil || st.Latitude != 0 || st.Longitude != 0 {
		return
	}

	ip := st.Address(types.IPv4)
	if ip == types.NoIPAddress {
		return
	}

	rec, err := s.locator.LocateV4(ip)
	if err != nil {
		logger.FromContext(ctx).DebugContext(ctx, "could not locate sliver",
			"fqdn", st.FQDN, "ip", ip, "err", err)
		s.metrics.SyncedLocation.WithLabelValues("error").Inc()
		return
	}
	if rec.Location == nil {
		s.metrics.SyncedLocation.WithLabelValues("unknown").Inc()
		return
	}

	st.Latitude = rec.Location.Latitude
	st.Longitude = rec.Location.Longitude
	if len(st.City) == 0 {
		st.City = rec.City
	}
	if len(st.Country) == 0 {
		st.Country = rec.Country
	}
	s.metrics.SyncedLocation.WithLabelValues("ok").Inc()
}
