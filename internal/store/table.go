// Package store holds the immutable in-memory snapshot of geodatabase tables
// and the loader that materializes it from a database connection.
package store

import (
	"errors"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/relcheck/internal/types"
)

// ErrUnknownTable is returned when a table name is not part of the snapshot.
var ErrUnknownTable = errors.New("unknown table")

// Table is an ordered, read-only collection of records sharing a schema.
type Table struct {
	Name    string
	IDField string
	Columns []string

	records []*types.Record
	byID    map[string][]*types.Record // normalized global id -> records
}

// NewTable builds a table from records and indexes them by global ID.
// Records without an identifier are kept but not indexed. Several records
// with the same identifier are all kept so lookups can detect the conflict.
func NewTable(name, idField string, columns []string, records []*types.Record) *Table {
	t := &Table{
		Name:    name,
		IDField: idField,
		Columns: columns,
		records: records,
		byID:    make(map[string][]*types.Record, len(records)),
	}
	for _, r := range records {
		if id := r.GlobalID(); id != "" {
			t.byID[id] = append(t.byID[id], r)
		}
	}
	return t
}

// Records returns the table's records in load order.
func (t *Table) Records() []*types.Record {
	return t.records
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Lookup returns every record whose global ID equals the normalized key.
func (t *Table) Lookup(key string) []*types.Record {
	if key == "" {
		return nil
	}
	return t.byID[key]
}

// Find returns records whose attribute equals value after key normalization,
// the in-memory form of `WHERE field = 'value'`.
func (t *Table) Find(field string, value interface{}) []*types.Record {
	want := types.NormalizeKey(value)
	if want == "" {
		return nil
	}
	var out []*types.Record
	for _, r := range t.records {
		if r.Key(field) == want {
			out = append(out, r)
		}
	}
	return out
}

// DuplicateIDs returns identifiers shared by more than one record.
func (t *Table) DuplicateIDs() []string {
	var dups []string
	for _, r := range t.records {
		id := r.GlobalID()
		if len(t.byID[id]) > 1 && t.byID[id][0] == r {
			dups = append(dups, id)
		}
	}
	return dups
}

// Snapshot is the set of loaded tables, kept in load order.
type Snapshot struct {
	tables *orderedmap.OrderedMap[string, *Table]
}

// NewSnapshot creates a snapshot from already loaded tables.
func NewSnapshot(tables ...*Table) *Snapshot {
	s := &Snapshot{tables: orderedmap.NewOrderedMap[string, *Table]()}
	for _, t := range tables {
		s.tables.Set(t.Name, t)
	}
	return s
}

// Table returns the named table or ErrUnknownTable.
func (s *Snapshot) Table(name string) (*Table, error) {
	t, ok := s.tables.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// Has reports whether the snapshot contains the named table.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.tables.Get(name)
	return ok
}

// Names returns table names in load order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, s.tables.Len())
	for el := s.tables.Front(); el != nil; el = el.Next() {
		names = append(names, el.Key)
	}
	return names
}
