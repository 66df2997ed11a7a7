package nsdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.ntppool.org/common/logger"
	"gopkg.in/yaml.v3"
)

// Config is the mysql section of the database configuration file.
// User and Pass override the credentials in the DSN when set.
type Config struct {
	DSN  string `yaml:"dsn"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

type configFile struct {
	MySQL Config `yaml:"mysql"`
}

// LoadConfig reads a database.yaml file in the format
//
//	mysql:
//	  dsn: "tcp(db:3306)/mlabns?parseTime=true"
//	  user: mlabns
//	  pass: secret
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cf configFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cf.MySQL, nil
}

// CreateConnectorFunc builds a new connector. It's called for every new
// database connection so rotated credentials get picked up.
type CreateConnectorFunc func() (driver.Connector, error)

// Driver is a driver.Connector that defers to CreateConnectorFunc.
type Driver struct {
	CreateConnectorFunc CreateConnectorFunc
}

func (d Driver) Connect(ctx context.Context) (driver.Conn, error) {
	connector, err := d.CreateConnectorFunc()
	if err != nil {
		return nil, fmt.Errorf("error creating connector from function: %w", err)
	}
	return connector.Connect(ctx)
}

func (d Driver) Driver() driver.Driver {
	return d
}

func (d Driver) Open(name string) (driver.Conn, error) {
	return nil, errors.New("open is not supported")
}

// OpenDB opens the database. If configFile is set, the credentials are
// re-read from it on each new connection; overrides are applied on top.
func OpenDB(ctx context.Context, configFile string, overrides Config) (*sql.DB, error) {
	dbconn := sql.OpenDB(Driver{CreateConnectorFunc: createConnector(configFile, overrides)})

	dbconn.SetConnMaxLifetime(time.Minute * 3)
	dbconn.SetMaxOpenConns(10)
	dbconn.SetMaxIdleConns(5)

	err := dbconn.PingContext(ctx)
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "could not connect to database", "err", err)
		dbconn.Close()
		return nil, err
	}

	return dbconn, nil
}

func createConnector(configFile string, overrides Config) CreateConnectorFunc {
	return func() (driver.Connector, error) {
		var cfg Config
		if len(configFile) > 0 {
			var err error
			cfg, err = LoadConfig(configFile)
			if err != nil {
				return nil, err
			}
		}
		cfg = mergeConfig(cfg, overrides)

		dsn := cfg.DSN
		if len(dsn) == 0 {
			return nil, fmt.Errorf("--database-config file or --database-dsn flag required")
		}

		dbcfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, err
		}

		if user := cfg.User; len(user) > 0 {
			dbcfg.User = user
		}

		if pass := cfg.Pass; len(pass) > 0 {
			dbcfg.Passwd = pass
		}

		dbcfg.ParseTime = true

		return mysql.NewConnector(dbcfg)
	}
}

func mergeConfig(base, overrides Config) Config {
	if len(overrides.DSN) > 0 {
		base.DSN = overrides.DSN
	}
	if len(overrides.User) > 0 {
		base.User = overrides.User
	}
	if len(overrides.Pass) > 0 {
		base.Pass = overrides.Pass
	}
	return base
}
