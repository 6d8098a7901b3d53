package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

// MemoryPath opens a private in-memory sqlite database.
const MemoryPath = ":memory:"

// ConnectionOptions describes how to reach a database and size its pool.
type ConnectionOptions struct {
	Driver   string // sqlite3, mysql or postgres.
	Path     string // sqlite file path; defaults to MemoryPath.
	Host     string
	Port     int
	User     string
	Password string
	Name     string // Database name.
	SSLMode  string // postgres only; defaults to disable.

	MaxOpenConns   int           // Pool ceiling.
	MinIdleConns   int           // Idle connections kept around; zero keeps the driver default.
	AcquireTimeout time.Duration // Bounds the initial connection check.
	IdleTimeout    time.Duration // Idle connections older than this are closed.
}

// Dialect returns the dialect matching the configured driver.
func (o ConnectionOptions) Dialect() (Dialect, error) {
	return DialectFor(o.Driver)
}

// DSN renders the driver-specific data source name.
func (o ConnectionOptions) DSN() (string, error) {
	d, err := o.Dialect()
	if err != nil {
		return "", err
	}
	switch d.Driver {
	case MySQL.Driver:
		cfg := mysql.NewConfig()
		cfg.User = o.User
		cfg.Passwd = o.Password
		cfg.Net = "tcp"
		cfg.Addr = o.address(3306)
		cfg.DBName = o.Name
		cfg.ParseTime = true
		if o.AcquireTimeout > 0 {
			cfg.Timeout = o.AcquireTimeout
		}
		return cfg.FormatDSN(), nil
	case Postgres.Driver:
		u := url.URL{Scheme: "postgres", Host: o.address(5432), Path: "/" + o.Name}
		if o.User != "" {
			u.User = url.UserPassword(o.User, o.Password)
		}
		q := url.Values{}
		sslMode := o.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		q.Set("sslmode", sslMode)
		if o.AcquireTimeout > 0 {
			q.Set("connect_timeout", strconv.Itoa(int(o.AcquireTimeout.Seconds())))
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	default:
		if o.Path == "" {
			return MemoryPath, nil
		}
		return o.Path, nil
	}
}

func (o ConnectionOptions) address(defaultPort int) string {
	host := o.Host
	if host == "" {
		host = "localhost"
	}
	port := o.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (o ConnectionOptions) inMemory() bool {
	return o.Path == "" || o.Path == MemoryPath || strings.Contains(o.Path, "mode=memory")
}

// Open opens and verifies a connection pool.
func Open(ctx context.Context, o ConnectionOptions, logger *zap.Logger) (*sql.DB, Dialect, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d, err := o.Dialect()
	if err != nil {
		return nil, Dialect{}, err
	}
	dsn, err := o.DSN()
	if err != nil {
		return nil, Dialect{}, err
	}

	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("failed to open %s connection: %w", d.Name, err)
	}

	if d.Driver == SQLite.Driver && o.inMemory() {
		// Each connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if o.MaxOpenConns > 0 {
			db.SetMaxOpenConns(o.MaxOpenConns)
		}
		if o.MinIdleConns > 0 {
			db.SetMaxIdleConns(o.MinIdleConns)
		}
		if o.IdleTimeout > 0 {
			db.SetConnMaxIdleTime(o.IdleTimeout)
		}
	}

	pingCtx := ctx
	if o.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, o.AcquireTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, Dialect{}, fmt.Errorf("failed to ping %s: %w", d.Name, err)
	}

	logger.Debug("Database connection established", zap.String("dialect", d.Name), zap.String("host", o.Host))
	return db, d, nil
}
