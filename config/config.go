// Package config loads the settings of the contactsq tools from defaults, an
// optional YAML file, .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xandalm/contacts-query/core/query"
	"github.com/xandalm/contacts-query/sqldb"
)

// EnvPrefix prefixes every environment variable that maps onto a key, e.g.
// CONTACTSQ_QUERY_MAX_LIMIT for query.max_limit.
const EnvPrefix = "CONTACTSQ"

// Config holds the application configuration
type Config struct {
	Database DatabaseConfig
	Query    QueryConfig
	Log      LogConfig
}

// DatabaseConfig says which database to open and how to size its pool.
type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Pool     PoolConfig
}

// PoolConfig mirrors the connection pool settings of the service.
type PoolConfig struct {
	Max     int
	Min     int
	Acquire time.Duration
	Idle    time.Duration
}

// QueryConfig bounds what list requests may ask for.
type QueryConfig struct {
	DefaultLimit int
	MaxLimit     int
	MaxNodes     int
}

// LogConfig selects the logger.
type LogConfig struct {
	Level       string
	Development bool
}

// The service's historical variable names, bound next to the prefixed ones.
var legacyEnv = map[string]string{
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", sqldb.MemoryPath)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.pool.max", 10)
	v.SetDefault("database.pool.min", 0)
	v.SetDefault("database.pool.acquire", 30*time.Second)
	v.SetDefault("database.pool.idle", 10*time.Second)
	v.SetDefault("query.default_limit", query.DefaultLimit)
	v.SetDefault("query.max_limit", 0)
	v.SetDefault("query.max_nodes", query.DefaultMaxNodes)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads the configuration. When path is empty a contactsq.yaml in the
// working directory is used if present. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("contactsq")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Load .env file if it exists. Variables already set win.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:   v.GetString("database.driver"),
			Path:     v.GetString("database.path"),
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			Pool: PoolConfig{
				Max:     v.GetInt("database.pool.max"),
				Min:     v.GetInt("database.pool.min"),
				Acquire: v.GetDuration("database.pool.acquire"),
				Idle:    v.GetDuration("database.pool.idle"),
			},
		},
		Query: QueryConfig{
			DefaultLimit: v.GetInt("query.default_limit"),
			MaxLimit:     v.GetInt("query.max_limit"),
			MaxNodes:     v.GetInt("query.max_nodes"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component could work with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := sqldb.DialectFor(c.Database.Driver); err != nil {
		errs = append(errs, fmt.Errorf("database.driver: %w", err))
	}
	if c.Database.Pool.Max < 0 || c.Database.Pool.Min < 0 {
		errs = append(errs, errors.New("database.pool: sizes must not be negative"))
	}
	if c.Database.Pool.Max > 0 && c.Database.Pool.Min > c.Database.Pool.Max {
		errs = append(errs, errors.New("database.pool.min must not exceed database.pool.max"))
	}
	if c.Query.DefaultLimit < 0 || c.Query.MaxLimit < 0 {
		errs = append(errs, errors.New("query limits must not be negative"))
	}
	if c.Query.MaxLimit > 0 && c.Query.DefaultLimit > c.Query.MaxLimit {
		errs = append(errs, errors.New("query.default_limit must not exceed query.max_limit"))
	}
	if c.Query.MaxNodes < 1 {
		errs = append(errs, errors.New("query.max_nodes must be positive"))
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// ConnectionOptions converts the database settings for sqldb.Open.
func (c *Config) ConnectionOptions() sqldb.ConnectionOptions {
	return sqldb.ConnectionOptions{
		Driver:         c.Database.Driver,
		Path:           c.Database.Path,
		Host:           c.Database.Host,
		Port:           c.Database.Port,
		User:           c.Database.User,
		Password:       c.Database.Password,
		Name:           c.Database.Name,
		MaxOpenConns:   c.Database.Pool.Max,
		MinIdleConns:   c.Database.Pool.Min,
		AcquireTimeout: c.Database.Pool.Acquire,
		IdleTimeout:    c.Database.Pool.Idle,
	}
}

// PageOptions returns the pagination limits for compilers.
func (c *Config) PageOptions() query.PageOptions {
	return query.PageOptions{DefaultLimit: c.Query.DefaultLimit, MaxLimit: c.Query.MaxLimit}
}

// ParseOptions returns the parser limits for incoming conditions.
func (c *Config) ParseOptions() []query.ParseOption {
	return []query.ParseOption{query.WithMaxNodes(c.Query.MaxNodes)}
}

// NewLogger builds the zap logger described by the log settings.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
