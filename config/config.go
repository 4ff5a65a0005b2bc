// Package config loads the YAML configuration used to open a database and
// shape the statements run against it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"github.com/syssam/recordkit/cache"
	"github.com/syssam/recordkit/dialect"
	dsql "github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/model"
	"github.com/syssam/recordkit/query"
	"github.com/syssam/recordkit/repository"
)

// Config is the root configuration. Values of the form ${VAR} are expanded
// from the environment before parsing, and RECORDKIT_DIALECT / RECORDKIT_DSN
// override the file.
type Config struct {
	Dialect       string        `yaml:"dialect"`
	DSN           string        `yaml:"dsn"`
	Quoting       string        `yaml:"quoting"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
	Debug         bool          `yaml:"debug"`
	Cache         CacheConfig   `yaml:"cache"`
}

// CacheConfig enables the in-memory select cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

var dialects = []string{dialect.MySQL, dialect.SQLite, dialect.Postgres}

// Load reads, expands, parses and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML configuration.
func Parse(data []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Dialect: dialect.SQLite,
		Quoting: query.Live.String(),
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RECORDKIT_DIALECT"); v != "" {
		cfg.Dialect = v
	}
	if v := os.Getenv("RECORDKIT_DSN"); v != "" {
		cfg.DSN = v
	}
}

// Validate checks the dialect, the DSN format for that dialect and the
// quoting strategy.
func (c *Config) Validate() error {
	var errs []string
	if !slices.Contains(dialects, c.Dialect) {
		errs = append(errs, fmt.Sprintf("dialect must be one of %s, got %q", strings.Join(dialects, ", "), c.Dialect))
	}
	if c.DSN == "" {
		errs = append(errs, "dsn is required")
	} else if err := validateDSN(c.Dialect, c.DSN); err != nil {
		errs = append(errs, fmt.Sprintf("dsn: %v", err))
	}
	if _, err := query.ParseQuotingStrategy(c.Quoting); err != nil {
		errs = append(errs, err.Error())
	}
	if c.SlowThreshold < 0 {
		errs = append(errs, "slow_threshold must not be negative")
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, "cache.ttl must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDSN(name, dsn string) error {
	switch name {
	case dialect.MySQL:
		_, err := mysql.ParseDSN(dsn)
		return err
	case dialect.Postgres:
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			_, err := pq.ParseURL(dsn)
			return err
		}
	}
	return nil
}

// Strategy returns the configured quoting strategy.
func (c *Config) Strategy() query.QuotingStrategy {
	s, _ := query.ParseQuotingStrategy(c.Quoting)
	return s
}

// Conn is an opened database with the configured wrappers applied. Models
// and repositories built through it carry the configured quoting and cache.
type Conn struct {
	dialect.Database
	// Driver is the unwrapped connection.
	Driver *dsql.Driver
	// Stats is set when a slow threshold is configured.
	Stats *dsql.QueryStats
	// Cache is set when the cache is enabled.
	Cache *cache.Memory

	logger   *slog.Logger
	quoting  query.QuotingStrategy
	cacheTTL time.Duration
}

// ModelOptions returns the model options of the configuration: its quoting
// strategy, logger and, when enabled, cache invalidation.
func (c *Conn) ModelOptions() []model.Option {
	opts := []model.Option{model.WithQuoting(c.quoting), model.WithLogger(c.logger)}
	if c.Cache != nil {
		opts = append(opts, model.WithCache(c.Cache))
	}
	return opts
}

// RepositoryOptions returns the repository options of the configuration:
// its quoting strategy, logger and, when enabled, the select cache.
func (c *Conn) RepositoryOptions() []repository.Option {
	opts := []repository.Option{repository.WithQuoting(c.quoting), repository.WithLogger(c.logger)}
	if c.Cache != nil {
		opts = append(opts, repository.WithCache(c.Cache, c.cacheTTL))
	}
	return opts
}

// Model returns a model of table on the connection. opts apply after
// ModelOptions.
func (c *Conn) Model(table string, key model.Key, fields []string, opts ...model.Option) *model.Model {
	return model.New(c, table, key, fields, append(c.ModelOptions(), opts...)...)
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.Driver.Close() }

// Open opens the configured database. The driver for the dialect must be
// registered by the caller. A slow threshold wraps the connection in a
// StatsDriver that logs slow statements; debug wraps it in a DebugDriver.
func Open(cfg *Config, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	drv, err := dsql.Open(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Dialect, err)
	}
	conn := &Conn{
		Database: drv,
		Driver:   drv,
		logger:   logger,
		quoting:  cfg.Strategy(),
		cacheTTL: cfg.Cache.TTL,
	}
	if cfg.SlowThreshold > 0 {
		stats := dsql.NewStatsDriver(conn.Database,
			dsql.WithSlowThreshold(cfg.SlowThreshold),
			dsql.WithSlowQueryLog(logger),
		)
		conn.Database, conn.Stats = stats, stats.QueryStats()
	}
	if cfg.Debug {
		conn.Database = dsql.NewDebugDriver(conn.Database, dsql.DebugWithLogger(logger))
	}
	if cfg.Cache.Enabled {
		conn.Cache = cache.NewMemory()
	}
	return conn, nil
}
