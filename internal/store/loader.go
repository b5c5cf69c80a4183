package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dbsmedya/relcheck/internal/config"
	"github.com/dbsmedya/relcheck/internal/logger"
	"github.com/dbsmedya/relcheck/internal/sqlutil"
	"github.com/dbsmedya/relcheck/internal/types"
)

// ErrMissingIDColumn is returned when a table has no column for its configured global ID.
var ErrMissingIDColumn = errors.New("global id column not found")

// Loader reads whole tables from a database connection into memory.
type Loader struct {
	db      *sql.DB
	dialect sqlutil.Dialect
	logger  *logger.Logger
}

// NewLoader creates a loader over db using the quoting rules of dialect.
func NewLoader(db *sql.DB, dialect sqlutil.Dialect, log *logger.Logger) (*Loader, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Loader{db: db, dialect: dialect, logger: log}, nil
}

// LoadSnapshot loads every declared table. All tables are loaded before the
// snapshot is returned, so resolution never sees a partially loaded schema.
func (l *Loader) LoadSnapshot(ctx context.Context, tables []config.TableConfig) (*Snapshot, error) {
	startTime := time.Now()
	loaded := make([]*Table, 0, len(tables))

	for _, tc := range tables {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load interrupted: %w", err)
		}

		t, err := l.LoadTable(ctx, tc)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, t)
	}

	l.logger.Infof("Loaded %d tables in %s", len(loaded), time.Since(startTime).Round(time.Millisecond))
	return NewSnapshot(loaded...), nil
}

// LoadTable reads all rows of one table, optionally filtered by its configured WHERE clause.
func (l *Loader) LoadTable(ctx context.Context, tc config.TableConfig) (*Table, error) {
	log := l.logger.WithTable(tc.Name)

	quoted, err := sqlutil.QuoteIdentifierSafe(l.dialect, tc.Name)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", tc.Name, err)
	}

	query := "SELECT * FROM " + quoted
	if tc.Where != "" {
		query += " WHERE " + tc.Where
	}
	log.Debugf("Loading table: %s", query)

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %q: %w", tc.Name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %q: %w", tc.Name, err)
	}

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types of %q: %w", tc.Name, err)
	}
	binary := make([]bool, len(columns))
	for i, ct := range colTypes {
		binary[i] = isBinaryType(ct.DatabaseTypeName())
	}

	idField := tc.IDField()
	if !containsFold(columns, idField) {
		return nil, fmt.Errorf("%w: table %q has no column %q", ErrMissingIDColumn, tc.Name, idField)
	}

	var records []*types.Record
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %q: %w", tc.Name, err)
		}

		rec := types.NewRecord(tc.Name, idField)
		for i, col := range columns {
			rec.Set(col, ownValue(values[i], binary[i]))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows of %q: %w", tc.Name, err)
	}

	t := NewTable(tc.Name, idField, columns, records)
	if dups := t.DuplicateIDs(); len(dups) > 0 {
		log.Warnf("Table has %d duplicated global ids: %s", len(dups), strings.Join(dups, ", "))
	}
	log.Infof("Loaded %d records", t.Len())

	return t, nil
}

// ownValue copies driver-owned byte slices. Values of binary columns stay
// []byte, so a BINARY(16) GUID is never mistaken for text. Without a column
// type, bytes that are valid UTF-8 become a string.
func ownValue(v interface{}, binary bool) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if !binary && utf8.Valid(b) {
		return string(b)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// isBinaryType reports whether a driver column type holds raw bytes:
// BINARY, VARBINARY and the BLOB family.
func isBinaryType(name string) bool {
	name = strings.ToUpper(name)
	return strings.Contains(name, "BINARY") || strings.Contains(name, "BLOB")
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
