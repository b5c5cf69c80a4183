package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dbsmedya/relcheck/internal/config"
	"github.com/dbsmedya/relcheck/internal/sqlutil"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.DatabaseConfig
		expected string
	}{
		{
			name:     "sqlite path",
			cfg:      &config.DatabaseConfig{Driver: "sqlite", Path: "/data/gdb.geodatabase"},
			expected: "file:/data/gdb.geodatabase?mode=ro",
		},
		{
			name:     "empty driver means sqlite",
			cfg:      &config.DatabaseConfig{Path: "data/gdb.geodatabase"},
			expected: "file:data/gdb.geodatabase?mode=ro",
		},
		{
			name: "mysql basic",
			cfg: &config.DatabaseConfig{
				Driver:   "mysql",
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				Database: "gdb",
				TLS:      "preferred",
			},
			expected: "root:secret@tcp(localhost:3306)/gdb?parseTime=true&tls=preferred",
		},
		{
			name: "mysql without database",
			cfg: &config.DatabaseConfig{
				Driver: "mysql", Host: "localhost", Port: 3306, User: "root", Password: "secret",
			},
			expected: "root:secret@tcp(localhost:3306)/?parseTime=true&tls=preferred",
		},
		{
			name: "mysql TLS disabled",
			cfg: &config.DatabaseConfig{
				Driver: "mysql", Host: "db", Port: 3307, User: "u", Password: "p", Database: "gdb", TLS: "disable",
			},
			expected: "u:p@tcp(db:3307)/gdb?parseTime=true&tls=false",
		},
		{
			name: "mysql TLS required",
			cfg: &config.DatabaseConfig{
				Driver: "mysql", Host: "db", Port: 3306, User: "u", Password: "p@ss!", Database: "gdb", TLS: "required",
			},
			expected: "u:p@ss!@tcp(db:3306)/gdb?parseTime=true&tls=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildDSN(tt.cfg)
			if result != tt.expected {
				t.Errorf("BuildDSN() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestDriverNameAndDialect(t *testing.T) {
	sqliteCfg := &config.DatabaseConfig{Driver: "sqlite"}
	mysqlCfg := &config.DatabaseConfig{Driver: "mysql"}

	if DriverName(sqliteCfg) != "sqlite" || DriverName(mysqlCfg) != "mysql" {
		t.Error("unexpected driver names")
	}
	if NewManager(sqliteCfg).Dialect() != sqlutil.DialectSQLite {
		t.Error("expected sqlite dialect")
	}
	if NewManager(mysqlCfg).Dialect() != sqlutil.DialectMySQL {
		t.Error("expected mysql dialect")
	}
}

func TestManagerCloseAndPingWithoutConnect(t *testing.T) {
	manager := NewManager(&config.DatabaseConfig{Path: "missing"})

	if manager.DB != nil {
		t.Error("DB should be nil before Connect()")
	}
	if err := manager.Close(); err != nil {
		t.Errorf("Close() returned error for unconnected manager: %v", err)
	}
	if err := manager.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail before Connect()")
	}
}

func TestConnect_MissingSQLiteFile(t *testing.T) {
	manager := NewManager(&config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "none.geodatabase")})

	err := manager.Connect(context.Background())
	if !errors.Is(err, ErrDatabaseNotFound) {
		t.Fatalf("expected ErrDatabaseNotFound, got %v", err)
	}
}

func TestConnect_SQLiteFileReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdb.geodatabase")

	seed, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	if _, err := seed.Exec(`CREATE TABLE Lys (globalid TEXT)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	seed.Close()

	manager := NewManager(&config.DatabaseConfig{Driver: "sqlite", Path: path})
	if err := manager.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer manager.Close()

	if err := manager.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}

	if _, err := manager.DB.Exec(`INSERT INTO Lys VALUES ('x')`); err == nil {
		t.Error("expected write to fail on a read-only connection")
	}
}
