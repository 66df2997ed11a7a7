package nscmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.ntppool.org/common/health"
	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/metricsserver"
	"go.ntppool.org/common/version"
	"golang.org/x/sync/errgroup"

	"github.com/eumel8/mlab-ns/candidates"
	"github.com/eumel8/mlab-ns/nsdb"
)

type syncCmd struct {
	Interval    time.Duration `default:"0s" help:"Keep running and sync at this interval, 0 to sync once"`
	MetricsPort int           `default:"9000" help:"Metrics server port" flag:"metrics-port"`
	HealthPort  int           `default:"8080" help:"Health check port" flag:"health-port"`
	NoGeo       bool          `name:"no-geo" help:"Don't fill in missing site coordinates from the geo tables"`
}

func (cmd *syncCmd) Run(ctx context.Context, cli *NSCmd) error {
	log := logger.FromContext(ctx)
	defer cli.close()

	continuous := cmd.Interval > 0

	log.InfoContext(ctx, "cache sync starting", "version", version.Version(), "continuous", continuous)

	c, err := cli.openCache()
	if err != nil {
		return err
	}
	if c == nil {
		return errCacheRequired
	}

	db, err := cli.openDB(ctx)
	if err != nil {
		return err
	}

	shutdownTracing, err := cli.initTracing(ctx)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	var reg prometheus.Registerer
	g, ctx := errgroup.WithContext(ctx)

	if continuous {
		metricssrv := metricsserver.New()
		version.RegisterMetric("mlabns", metricssrv.Registry())
		reg = metricssrv.Registry()

		g.Go(func() error {
			if err := metricssrv.ListenAndServe(ctx, cmd.MetricsPort); err != nil {
				log.ErrorContext(ctx, "metrics server error", "err", err)
			}
			return nil
		})

		go health.HealthCheckListener(ctx, cmd.HealthPort, log)
	}

	var locator candidates.Locator
	if !cmd.NoGeo {
		l, m, err := cli.locator(ctx, reg)
		if err != nil {
			return err
		}
		locator = l
		if continuous {
			g.Go(func() error {
				return m.Run(ctx)
			})
		}
	}

	syncer := candidates.NewSyncer(c, locator, candidates.NewMetrics(reg))

	run := func() (int, error) {
		ctx, cancel := context.WithTimeout(ctx, cli.Timeout*10)
		defer cancel()

		var count int
		err := nsdb.ReadSnapshot(ctx, db, func(q nsdb.Querier) error {
			var err error
			count, err = syncer.Sync(ctx, nsdb.NewStore(q))
			return err
		})
		return count, err
	}

	if !continuous {
		count, err := run()
		log.InfoContext(ctx, "synced tools", "count", count)
		return err
	}

	g.Go(func() error {
		expback := backoff.NewExponentialBackOff()
		expback.InitialInterval = time.Second * 3
		expback.MaxInterval = cmd.Interval

		for {
			count, err := run()

			wait := cmd.Interval
			if err != nil {
				log.WarnContext(ctx, "cache sync failed", "count", count, "err", err)
				wait = expback.NextBackOff()
			} else {
				log.InfoContext(ctx, "synced tools", "count", count)
				expback.Reset()
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
		}
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("cache sync: %w", err)
	}
	return nil
}
