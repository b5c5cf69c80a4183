// Package types contains the record model shared by the store, resolver and report packages.
package types

import (
	"strings"

	"github.com/elliotchance/orderedmap/v2"
)

// Record is one row of a table: attribute values in column order plus the
// name of the column holding the record's unique identifier.
// Attribute names are matched case-insensitively.
type Record struct {
	Table   string
	IDField string

	attrs *orderedmap.OrderedMap[string, interface{}]
	names map[string]string // lower-case name -> stored name
}

// NewRecord creates an empty record belonging to table.
func NewRecord(table, idField string) *Record {
	return &Record{
		Table:   table,
		IDField: idField,
		attrs:   orderedmap.NewOrderedMap[string, interface{}](),
		names:   make(map[string]string),
	}
}

// Set stores an attribute value, replacing any value stored under the same
// name in a different case.
func (r *Record) Set(name string, value interface{}) {
	lower := strings.ToLower(name)
	if existing, ok := r.names[lower]; ok && existing != name {
		r.attrs.Delete(existing)
	}
	r.names[lower] = name
	r.attrs.Set(name, value)
}

// Get returns the value of an attribute. The boolean is false when the
// record has no such attribute.
func (r *Record) Get(name string) (interface{}, bool) {
	stored, ok := r.names[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return r.attrs.Get(stored)
}

// Has reports whether the record carries the attribute.
func (r *Record) Has(name string) bool {
	_, ok := r.names[strings.ToLower(name)]
	return ok
}

// Key returns the normalized value of an attribute, or "" when the attribute
// is missing or null.
func (r *Record) Key(name string) string {
	v, _ := r.Get(name)
	return NormalizeKey(v)
}

// GlobalID returns the normalized unique identifier of the record.
func (r *Record) GlobalID() string {
	return r.Key(r.IDField)
}

// Fields returns attribute names in column order.
func (r *Record) Fields() []string {
	fields := make([]string, 0, r.attrs.Len())
	for el := r.attrs.Front(); el != nil; el = el.Next() {
		fields = append(fields, el.Key)
	}
	return fields
}

// Len returns the number of attributes.
func (r *Record) Len() int {
	return r.attrs.Len()
}
