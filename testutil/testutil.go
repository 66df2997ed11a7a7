package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/eumel8/mlab-ns/nsdb"
	"github.com/eumel8/mlab-ns/types"
)

// TestDB is a MySQL test database with the mlab-ns schema loaded
type TestDB struct {
	*sql.DB
	queries *nsdb.Queries
	ctx     context.Context
}

// NewTestDB connects to TEST_DATABASE_DSN and creates the tables if
// needed. The test is skipped when the variable isn't set.
func NewTestDB(t *testing.T) *TestDB {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping integration test")
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("Invalid TEST_DATABASE_DSN: %v", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		t.Fatalf("Failed to create connector: %v", err)
	}

	ctx := context.Background()
	db := sql.OpenDB(connector)

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	for _, stmt := range nsdb.SchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("Failed to load schema: %v", err)
		}
	}

	tdb := &TestDB{
		DB:      db,
		queries: nsdb.New(db),
		ctx:     ctx,
	}
	t.Cleanup(func() {
		tdb.CleanupTestData(t)
		tdb.Close()
	})

	return tdb
}

// Queries returns the nsdb queries instance
func (tdb *TestDB) Queries() *nsdb.Queries {
	return tdb.queries
}

// Context returns the test context
func (tdb *TestDB) Context() context.Context {
	return tdb.ctx
}

// CleanupTestData removes all rows from the mlab-ns tables
func (tdb *TestDB) CleanupTestData(t *testing.T) {
	tables := []string{
		"sliver_tools",
		"maxmind_ipv4",
		"maxmind_city",
		"maxmind_ipv6",
	}

	for _, table := range tables {
		_, err := tdb.ExecContext(tdb.ctx, "DELETE FROM "+table)
		if err != nil {
			t.Logf("Error cleaning up table %s: %v", table, err)
		}
	}
}

// DataFactory inserts test rows
type DataFactory struct {
	tdb *TestDB
}

// NewDataFactory creates a new data factory
func NewDataFactory(tdb *TestDB) *DataFactory {
	return &DataFactory{tdb: tdb}
}

// CreateTestSliverTool inserts a sliver. Zero coordinates are stored as
// NULL so the row looks like a site without a recorded location.
func (df *DataFactory) CreateTestSliverTool(t *testing.T, st types.SliverTool) {
	query := `
		INSERT INTO sliver_tools (tool_id, slice_id, site_id, server_id, fqdn,
			sliver_ipv4, sliver_ipv6, status_ipv4, status_ipv6,
			latitude, longitude, city, country, metro, updated_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var lat, lon sql.NullFloat64
	if st.Latitude != 0 || st.Longitude != 0 {
		lat = sql.NullFloat64{Float64: st.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: st.Longitude, Valid: true}
	}
	updated := st.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err := df.tdb.ExecContext(df.tdb.ctx, query,
		st.ToolID, st.SliceID, st.SiteID, st.ServerID, st.FQDN,
		st.SliverIPv4, st.SliverIPv6, st.StatusIPv4, st.StatusIPv6,
		lat, lon, nullString(st.City), nullString(st.Country),
		strings.Join(st.Metro, ","), updated,
	)
	if err != nil {
		t.Fatalf("Failed to create test sliver tool: %v", err)
	}
}

// CreateTestIPv4Range inserts an IPv4 range and its city row
func (df *DataFactory) CreateTestIPv4Range(t *testing.T, start, end, locationID uint32, city, country string, lat, lon float64) {
	_, err := df.tdb.ExecContext(df.tdb.ctx,
		`INSERT INTO maxmind_ipv4 (start_ip_num, end_ip_num, location_id) VALUES (?, ?, ?)`,
		start, end, locationID)
	if err != nil {
		t.Fatalf("Failed to create test ipv4 range: %v", err)
	}

	_, err = df.tdb.ExecContext(df.tdb.ctx,
		`INSERT INTO maxmind_city (location_id, city, country, latitude, longitude)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE city = VALUES(city), country = VALUES(country)`,
		locationID, nullString(city), nullString(country), lat, lon)
	if err != nil {
		t.Fatalf("Failed to create test city: %v", err)
	}
}

// CreateTestIPv6Range inserts an IPv6 range keyed on the upper 64 bits
func (df *DataFactory) CreateTestIPv6Range(t *testing.T, start, end uint64, country string, lat, lon float64) {
	_, err := df.tdb.ExecContext(df.tdb.ctx,
		`INSERT INTO maxmind_ipv6 (start_ip_num, end_ip_num, country, latitude, longitude)
		VALUES (?, ?, ?, ?, ?)`,
		start, end, nullString(country), lat, lon)
	if err != nil {
		t.Fatalf("Failed to create test ipv6 range: %v", err)
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: len(s) > 0}
}

// NewTestLogger returns a debug level logger writing to stdout
func NewTestLogger(t *testing.T) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(handler).With("test", t.Name())
}
