package geo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fsnotify/fsnotify"
	"go.ntppool.org/common/logger"
)

// ManagerConfig sets how often tables are reloaded and how long a
// failed load is retried.
type ManagerConfig struct {
	// Interval between scheduled reloads, 24 hours by default.
	Interval time.Duration
	// MaxRetryTime bounds the retries of one failed load.
	MaxRetryTime time.Duration
	// InitialRetry is the first backoff interval.
	InitialRetry time.Duration
	// Debounce delays a reload after a file change.
	Debounce time.Duration
}

func (c *ManagerConfig) setDefaults() {
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	if c.MaxRetryTime <= 0 {
		c.MaxRetryTime = 5 * time.Minute
	}
	if c.InitialRetry <= 0 {
		c.InitialRetry = time.Second
	}
	if c.Debounce <= 0 {
		c.Debounce = 2 * time.Second
	}
}

// pathProvider is a TableProvider backed by files that can be watched.
type pathProvider interface {
	Path() string
}

// Manager keeps the Locator tables fresh. A failed load never replaces
// the tables currently in use.
type Manager struct {
	provider TableProvider
	locator  *Locator
	cfg      ManagerConfig
}

func NewManager(provider TableProvider, locator *Locator, cfg ManagerConfig) *Manager {
	cfg.setDefaults()
	return &Manager{
		provider: provider,
		locator:  locator,
		cfg:      cfg,
	}
}

// Load loads the tables, retrying with exponential backoff, and installs
// them in the Locator.
func (m *Manager) Load(ctx context.Context) error {
	log := logger.FromContext(ctx)
	metrics := m.locator.metrics

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.InitialRetry
	b.MaxInterval = m.cfg.MaxRetryTime / 4

	start := time.Now()
	t, err := backoff.Retry(ctx,
		func() (*Tables, error) {
			return m.provider.LoadTables(ctx)
		},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(m.cfg.MaxRetryTime),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.WarnContext(ctx, "could not load geo tables, retrying", "err", err, "next", next)
		}),
	)
	if err != nil {
		metrics.Reloads.WithLabelValues("error").Inc()
		return err
	}
	metrics.LoadDuration.Observe(time.Since(start).Seconds())
	metrics.Reloads.WithLabelValues("ok").Inc()

	m.locator.Swap(t)
	log.InfoContext(ctx, "loaded geo tables",
		"source", t.Source,
		"ipv4", len(t.IPv4),
		"cities", len(t.Cities),
		"ipv6", len(t.IPv6),
		"duration", time.Since(start),
	)

	return nil
}

// Run reloads the tables on the configured interval and, for file based
// providers, when the files change. It returns when ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithGroup("geo-manager")
	ctx = logger.NewContext(ctx, log)

	watcher, watchName := m.watch(ctx)
	if watcher != nil {
		defer watcher.Close()
	}

	var debounceTimer *time.Timer
	timer := time.NewTimer(m.cfg.Interval)
	defer timer.Stop()

	for {
		var (
			events    <-chan fsnotify.Event
			watchErrs <-chan error
			debounceC <-chan time.Time
			reload    bool
		)
		if watcher != nil {
			events, watchErrs = watcher.Events, watcher.Errors
		}
		if debounceTimer != nil {
			debounceC = debounceTimer.C
		}

		select {
		case <-debounceC:
			log.DebugContext(ctx, "debounce timer fired, triggering reload")
			debounceTimer = nil
			reload = true

		case event, ok := <-events:
			if !ok {
				log.WarnContext(ctx, "file watcher events channel closed")
				watcher = nil
				continue
			}
			if len(watchName) > 0 && filepath.Base(event.Name) != watchName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.InfoContext(ctx, "geo data changed", "event", event.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(m.cfg.Debounce)

		case err, ok := <-watchErrs:
			if !ok {
				log.WarnContext(ctx, "file watcher error channel closed")
				watcher = nil
				continue
			}
			log.WarnContext(ctx, "file watcher error", "err", err)

		case <-timer.C:
			log.DebugContext(ctx, "timer triggered reload")
			reload = true

		case <-ctx.Done():
			log.InfoContext(ctx, "geo table reloader shutting down")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil
		}

		if !reload {
			continue
		}

		if err := m.Load(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.ErrorContext(ctx, "reloading geo tables failed, keeping the current tables", "err", err)
		}
		timer.Reset(m.cfg.Interval)
	}
}

// watch sets up a watcher on the provider's file or directory. The
// returned name filters events when a single file is watched.
func (m *Manager) watch(ctx context.Context) (*fsnotify.Watcher, string) {
	log := logger.FromContext(ctx)

	pp, ok := m.provider.(pathProvider)
	if !ok {
		return nil, ""
	}
	path := pp.Path()

	dir, name := filepath.Dir(path), filepath.Base(path)
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		dir, name = path, ""
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WarnContext(ctx, "failed to create file watcher, falling back to timer-only reloading", "err", err)
		return nil, ""
	}
	if err := watcher.Add(dir); err != nil {
		log.WarnContext(ctx, "failed to watch geo data directory, falling back to timer-only reloading", "dir", dir, "err", err)
		watcher.Close()
		return nil, ""
	}
	log.InfoContext(ctx, "watching geo data for changes", "dir", dir, "file", name)

	return watcher, name
}
