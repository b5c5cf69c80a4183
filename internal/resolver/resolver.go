// Package resolver finds the records related to a given record through
// declared relationships, in both directions.
package resolver

import (
	"fmt"

	"github.com/dbsmedya/relcheck/internal/logger"
	"github.com/dbsmedya/relcheck/internal/schema"
	"github.com/dbsmedya/relcheck/internal/store"
	"github.com/dbsmedya/relcheck/internal/types"
)

// RelatedResultSet is the outcome of following one relationship from one record.
type RelatedResultSet struct {
	Relationship schema.Relationship
	RelatedTable string
	Key          string // normalized value that was looked up; "" for a null key
	Records      []*types.Record
}

// Count returns the number of related records.
func (rs RelatedResultSet) Count() int {
	return len(rs.Records)
}

// GlobalIDs returns the normalized global IDs of the related records in order.
func (rs RelatedResultSet) GlobalIDs() []string {
	ids := make([]string, 0, len(rs.Records))
	for _, r := range rs.Records {
		ids = append(ids, r.GlobalID())
	}
	return ids
}

// Resolver answers relationship queries against an immutable snapshot.
//
// Forward lookups use the target table's global ID index. Inverse lookups
// use a reverse index built once from the same relationship declarations,
// keyed by relationship name, so the two directions are inverses of each
// other by construction.
type Resolver struct {
	snapshot *store.Snapshot
	schema   *schema.Schema
	reverse  map[string]map[string][]*types.Record // relationship name -> key -> source records
	logger   *logger.Logger
}

// New builds a resolver. Every table referenced by the schema must be loaded
// in the snapshot; a missing one is a configuration error.
func New(snap *store.Snapshot, s *schema.Schema, log *logger.Logger) (*Resolver, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	if s == nil {
		return nil, fmt.Errorf("schema is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	r := &Resolver{
		snapshot: snap,
		schema:   s,
		reverse:  make(map[string]map[string][]*types.Record, s.Len()),
		logger:   log,
	}

	for _, rel := range s.All() {
		if _, err := snap.Table(rel.TargetTable); err != nil {
			return nil, fmt.Errorf("relationship %s: %w", rel.Name, err)
		}
		source, err := snap.Table(rel.SourceTable)
		if err != nil {
			return nil, fmt.Errorf("relationship %s: %w", rel.Name, err)
		}

		index := make(map[string][]*types.Record)
		for _, rec := range source.Records() {
			if key := rec.Key(rel.KeyField); key != "" {
				index[key] = append(index[key], rec)
			}
		}
		r.reverse[rel.Name] = index

		log.WithRelationship(rel.Name, rel.KeyField).Debugf("Indexed %d distinct keys from %s", len(index), rel.SourceTable)
	}

	return r, nil
}

// Schema returns the relationship declarations the resolver was built with.
func (r *Resolver) Schema() *schema.Schema {
	return r.schema
}

// Snapshot returns the snapshot the resolver reads from.
func (r *Resolver) Snapshot() *store.Snapshot {
	return r.snapshot
}

// RelationshipsFor returns every relationship, in either direction, that
// starts at table.
func (r *Resolver) RelationshipsFor(table string) []schema.Relationship {
	return r.schema.RelationshipsFor(table)
}

// ResolveRelated follows each relationship from record independently and
// returns one result set per relationship, in input order.
//
// A missing or null key yields an empty set, as does a key with no matching
// record. A forward key matching several target records returns an
// *AmbiguousMatchError.
func (r *Resolver) ResolveRelated(table string, record *types.Record, relationships []schema.Relationship) ([]RelatedResultSet, error) {
	if len(relationships) == 0 {
		return nil, ErrNoRelationships
	}
	if record == nil {
		return nil, fmt.Errorf("record is nil")
	}
	if !r.snapshot.Has(table) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	if record.Table != table {
		return nil, fmt.Errorf("record belongs to %q, not %q", record.Table, table)
	}

	results := make([]RelatedResultSet, 0, len(relationships))
	for _, rel := range relationships {
		rs, err := r.resolveOne(table, record, rel)
		if err != nil {
			return nil, err
		}
		results = append(results, rs)
	}
	return results, nil
}

// ResolveAll resolves every relationship that starts at the record's table.
func (r *Resolver) ResolveAll(record *types.Record) ([]RelatedResultSet, error) {
	if record == nil {
		return nil, fmt.Errorf("record is nil")
	}
	return r.ResolveRelated(record.Table, record, r.RelationshipsFor(record.Table))
}

func (r *Resolver) resolveOne(table string, record *types.Record, rel schema.Relationship) (RelatedResultSet, error) {
	if rel.Origin() != table {
		return RelatedResultSet{}, fmt.Errorf("%w: %s starts at %q, record is from %q", ErrRelationshipMismatch, rel, rel.Origin(), table)
	}
	declared, ok := r.schema.Get(rel.Name)
	if !ok || declared.KeyField != rel.KeyField || declared.SourceTable != rel.SourceTable || declared.TargetTable != rel.TargetTable {
		return RelatedResultSet{}, fmt.Errorf("%w: %s", ErrUndeclaredRelationship, rel)
	}

	dest, err := r.snapshot.Table(rel.Destination())
	if err != nil {
		return RelatedResultSet{}, fmt.Errorf("relationship %s: %w", rel.Name, err)
	}

	rs := RelatedResultSet{Relationship: rel, RelatedTable: dest.Name}

	if rel.Direction == schema.Inverse {
		rs.Key = record.GlobalID()
		if rs.Key != "" {
			rs.Records = cloneRecords(r.reverse[rel.Name][rs.Key])
		}
		return rs, nil
	}

	rs.Key = record.Key(rel.KeyField)
	if rs.Key == "" {
		return rs, nil
	}

	matches := dest.Lookup(rs.Key)
	if len(matches) > 1 {
		return RelatedResultSet{}, &AmbiguousMatchError{Relationship: rel, Key: rs.Key, Matches: len(matches)}
	}
	rs.Records = cloneRecords(matches)
	return rs, nil
}

// cloneRecords keeps callers from appending into the snapshot's indexes.
func cloneRecords(in []*types.Record) []*types.Record {
	if len(in) == 0 {
		return nil
	}
	return append([]*types.Record(nil), in...)
}
