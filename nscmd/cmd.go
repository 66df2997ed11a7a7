// Package nscmd has the mlabns command line interface.
package nscmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/eumel8/mlab-ns/cache"
	"github.com/eumel8/mlab-ns/candidates"
	"github.com/eumel8/mlab-ns/fqdn"
	"github.com/eumel8/mlab-ns/geo"
	"github.com/eumel8/mlab-ns/logger"
	"github.com/eumel8/mlab-ns/nsdb"
)

// NSCmd is the root command. Every flag can also be set with an MLABNS_
// environment variable or in the configuration file.
type NSCmd struct {
	Config kong.ConfigFlag `help:"YAML configuration file"`
	Debug  bool            `help:"Enable debug logging"`

	DatabaseConfig string `name:"database-config" help:"database.yaml with the mysql dsn and credentials" type:"path"`
	DatabaseDSN    string `name:"database-dsn" help:"MySQL DSN, overrides the database config file"`
	DatabaseUser   string `name:"database-user" help:"Database user"`
	DatabasePass   string `name:"database-pass" help:"Database password"`

	Cache     string        `enum:"redis,none" default:"none" help:"Sliver cache (${enum})"`
	RedisURL  string        `name:"redis-url" default:"redis://localhost:6379/0" help:"Redis URL for --cache=redis"`
	CacheTTL  time.Duration `name:"cache-ttl" default:"0s" help:"Expiry of cache entries, 0 to keep them until replaced"`
	GeoSource string        `name:"geo-source" enum:"db,mmdb,csv" default:"db" help:"Where to load the geolocation tables from (${enum})"`
	GeoPath   string        `name:"geo-path" type:"path" help:"MaxMind database file or GeoLite CSV directory"`

	Timeout       time.Duration `default:"5s" help:"Timeout for cache and database calls"`
	MachineRegexp string        `name:"machine-regexp" help:"Regexp for the machine part of sliver names that gets the address family suffix (default mlab1 to mlab4)"`
	TraceEndpoint string        `name:"trace-endpoint" help:"OTLP endpoint, tracing is off unless this or OTEL_EXPORTER_OTLP_ENDPOINT is set"`

	Resolve resolveCmd `cmd:"" help:"Select a sliver for a tool"`
	Batch   batchCmd   `cmd:"" help:"Resolve JSON requests from stdin, one per line"`
	Locate  locateCmd  `cmd:"" help:"Look up the location of an IP address"`
	Sync    syncCmd    `cmd:"" help:"Copy sliver records from the database to the cache"`
	Tools   toolsCmd   `cmd:"" help:"List the tools in the database"`
	Version versionCmd `cmd:"" help:"Show version"`

	log *slog.Logger
	db  *sql.DB
}

func (cmd *NSCmd) AfterApply(kctx *kong.Context, ctx context.Context) error {
	ctx, log := logger.Setup(ctx, cmd.Debug)
	cmd.log = log

	redis.SetLogger(logger.NewRedisLogger("redis", log))

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(cmd)

	return nil
}

func (cmd *NSCmd) openDB(ctx context.Context) (*sql.DB, error) {
	if cmd.db != nil {
		return cmd.db, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Timeout)
	defer cancel()

	db, err := nsdb.OpenDB(ctx, cmd.DatabaseConfig, nsdb.Config{
		DSN:  cmd.DatabaseDSN,
		User: cmd.DatabaseUser,
		Pass: cmd.DatabasePass,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	cmd.db = db
	return db, nil
}

func (cmd *NSCmd) close() {
	if cmd.db != nil {
		cmd.db.Close()
		cmd.db = nil
	}
}

func (cmd *NSCmd) store(ctx context.Context) (*nsdb.Store, error) {
	db, err := cmd.openDB(ctx)
	if err != nil {
		return nil, err
	}
	return nsdb.NewStore(nsdb.NewQuerierWithTracing(nsdb.New(db), "")), nil
}

// sliverCache is what the commands need from a cache implementation.
type sliverCache interface {
	candidates.Cache
	candidates.CacheWriter
}

// openCache returns nil for --cache=none.
func (cmd *NSCmd) openCache() (sliverCache, error) {
	switch cmd.Cache {
	case "redis":
		c, err := cache.NewRedisFromURL(cmd.RedisURL, "mlabns:", cmd.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		return c, nil
	default:
		return nil, nil
	}
}

func (cmd *NSCmd) geoProvider(ctx context.Context) (geo.TableProvider, error) {
	switch cmd.GeoSource {
	case "mmdb", "csv":
		if len(cmd.GeoPath) == 0 {
			return nil, fmt.Errorf("--geo-path is required for --geo-source=%s", cmd.GeoSource)
		}
		if cmd.GeoSource == "mmdb" {
			return geo.NewMMDBProvider(cmd.GeoPath), nil
		}
		return geo.NewCSVProvider(cmd.GeoPath), nil
	default:
		db, err := cmd.openDB(ctx)
		if err != nil {
			return nil, err
		}
		return geo.NewDBProvider(nsdb.NewQuerierWithTracing(nsdb.New(db), "")), nil
	}
}

// locator loads the geolocation tables once.
func (cmd *NSCmd) locator(ctx context.Context, reg prometheus.Registerer) (*geo.Locator, *geo.Manager, error) {
	provider, err := cmd.geoProvider(ctx)
	if err != nil {
		return nil, nil, err
	}

	l := geo.NewLocator(nil, geo.NewMetrics(reg))
	m := geo.NewManager(provider, l, geo.ManagerConfig{
		MaxRetryTime: cmd.Timeout * 3,
	})
	if err := m.Load(ctx); err != nil {
		return nil, nil, fmt.Errorf("loading geo tables: %w", err)
	}
	return l, m, nil
}

func (cmd *NSCmd) rewriter() (*fqdn.Rewriter, error) {
	return fqdn.NewRewriter(cmd.MachineRegexp)
}

var errCacheRequired = errors.New("--cache=redis is required")
