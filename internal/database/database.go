// Package database opens the geodatabase connection tables are loaded from.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "modernc.org/sqlite"             // SQLite driver (mobile geodatabases)

	"github.com/dbsmedya/relcheck/internal/config"
	"github.com/dbsmedya/relcheck/internal/sqlutil"
)

// ErrDatabaseNotFound is returned when the configured geodatabase file does not exist.
var ErrDatabaseNotFound = errors.New("geodatabase file not found")

// Manager owns the read-only connection to the configured source.
type Manager struct {
	DB     *sql.DB
	config *config.DatabaseConfig
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.DatabaseConfig) *Manager {
	return &Manager{
		config: cfg,
	}
}

// Dialect returns the identifier quoting dialect of the configured driver.
func (m *Manager) Dialect() sqlutil.Dialect {
	if m.config.Driver == "mysql" {
		return sqlutil.DialectMySQL
	}
	return sqlutil.DialectSQLite
}

// Connect opens and verifies the connection.
func (m *Manager) Connect(ctx context.Context) error {
	if m.Dialect() == sqlutil.DialectSQLite {
		if _, err := os.Stat(m.config.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrDatabaseNotFound, m.config.Path)
			}
			return fmt.Errorf("failed to stat geodatabase: %w", err)
		}
	}

	db, err := m.connectWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to %s source: %w", DriverName(m.config), err)
	}
	m.DB = db
	return nil
}

// connectWithRetry attempts to connect with exponential backoff.
func (m *Manager) connectWithRetry(ctx context.Context) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = m.connect()
		if err == nil {
			pingErr := db.PingContext(ctx)
			if pingErr == nil {
				return db, nil
			}
			db.Close()
			err = pingErr
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

// connect creates a database handle without verifying it.
func (m *Manager) connect() (*sql.DB, error) {
	db, err := sql.Open(DriverName(m.config), BuildDSN(m.config))
	if err != nil {
		return nil, err
	}

	if m.config.MaxConnections > 0 {
		db.SetMaxOpenConns(m.config.MaxConnections)
	}
	if m.config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(m.config.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// DriverName returns the database/sql driver name for the configuration.
func DriverName(cfg *config.DatabaseConfig) string {
	if cfg.Driver == "mysql" {
		return "mysql"
	}
	return "sqlite"
}

// BuildDSN constructs the data source name for the configured driver.
// SQLite files are opened read-only through a file: URI.
func BuildDSN(cfg *config.DatabaseConfig) string {
	if cfg.Driver != "mysql" {
		return "file:" + filepath.ToSlash(cfg.Path) + "?mode=ro"
	}

	// Format: user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
	)

	if cfg.Database != "" {
		dsn += cfg.Database
	}

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

// Close closes the connection if it was opened.
func (m *Manager) Close() error {
	if m.DB == nil {
		return nil
	}
	if err := m.DB.Close(); err != nil {
		return fmt.Errorf("source close: %w", err)
	}
	return nil
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.DB == nil {
		return fmt.Errorf("not connected")
	}
	if err := m.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("source ping failed: %w", err)
	}
	return nil
}
