// Package schema holds the static relationship declarations between tables.
//
// Relationships are identified by name, never by the pair of tables they
// connect: two relationships may join the same source and target tables
// through different key fields and must stay distinguishable.
package schema

import "fmt"

// Direction tells which end of a relationship a lookup starts from.
type Direction int

const (
	// Forward starts from a source-table record and follows its key field to the target table.
	Forward Direction = iota
	// Inverse starts from a target-table record and finds the source records pointing at it.
	Inverse
)

func (d Direction) String() string {
	if d == Inverse {
		return "inverse"
	}
	return "forward"
}

// Relationship is a named foreign-key association. KeyField lives on
// SourceTable and holds the global ID of a TargetTable record.
type Relationship struct {
	Name        string
	SourceTable string
	TargetTable string
	KeyField    string
	Direction   Direction
}

// Inverse returns the same relationship traversed the other way.
func (r Relationship) Inverse() Relationship {
	inv := r
	if r.Direction == Forward {
		inv.Direction = Inverse
	} else {
		inv.Direction = Forward
	}
	return inv
}

// Origin is the table a lookup over this relationship starts from.
func (r Relationship) Origin() string {
	if r.Direction == Inverse {
		return r.TargetTable
	}
	return r.SourceTable
}

// Destination is the table a lookup over this relationship returns records from.
func (r Relationship) Destination() string {
	if r.Direction == Inverse {
		return r.SourceTable
	}
	return r.TargetTable
}

// ID identifies the relationship including its direction.
func (r Relationship) ID() string {
	return fmt.Sprintf("%s/%s/%s", r.Name, r.KeyField, r.Direction)
}

func (r Relationship) String() string {
	if r.Direction == Inverse {
		return fmt.Sprintf("%s (%s.%s <- %s)", r.Name, r.SourceTable, r.KeyField, r.TargetTable)
	}
	return fmt.Sprintf("%s (%s.%s -> %s)", r.Name, r.SourceTable, r.KeyField, r.TargetTable)
}

// Schema is the ordered set of declared relationships.
type Schema struct {
	relationships []Relationship
	byName        map[string]Relationship
}

// New creates an empty schema.
func New() *Schema {
	return &Schema{byName: make(map[string]Relationship)}
}

// Add declares a forward relationship.
func (s *Schema) Add(r Relationship) error {
	if r.Name == "" {
		return fmt.Errorf("relationship name is empty")
	}
	if r.SourceTable == "" || r.TargetTable == "" {
		return fmt.Errorf("relationship %q: source and target tables are required", r.Name)
	}
	if r.KeyField == "" {
		return fmt.Errorf("relationship %q: key field is not specified", r.Name)
	}
	if _, exists := s.byName[r.Name]; exists {
		return fmt.Errorf("duplicate relationship: %q is declared more than once", r.Name)
	}
	r.Direction = Forward
	s.relationships = append(s.relationships, r)
	s.byName[r.Name] = r
	return nil
}

// Get returns the forward relationship with the given name.
func (s *Schema) Get(name string) (Relationship, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// All returns every forward relationship in declaration order.
func (s *Schema) All() []Relationship {
	out := make([]Relationship, len(s.relationships))
	copy(out, s.relationships)
	return out
}

// Len returns the number of declared relationships.
func (s *Schema) Len() int {
	return len(s.relationships)
}

// Tables returns every table referenced by a relationship, in first-seen order.
func (s *Schema) Tables() []string {
	seen := make(map[string]bool)
	var tables []string
	for _, r := range s.relationships {
		for _, t := range []string{r.SourceTable, r.TargetTable} {
			if !seen[t] {
				seen[t] = true
				tables = append(tables, t)
			}
		}
	}
	return tables
}

// RelationshipsFor returns every relationship a record of table takes part
// in: forward relationships where table is the source, followed by inverse
// relationships where table is the target. A self relationship appears in
// both directions.
func (s *Schema) RelationshipsFor(table string) []Relationship {
	var out []Relationship
	for _, r := range s.relationships {
		if r.SourceTable == table {
			out = append(out, r)
		}
	}
	for _, r := range s.relationships {
		if r.TargetTable == table {
			out = append(out, r.Inverse())
		}
	}
	return out
}

// Between returns forward relationships from source to target in declaration order.
func (s *Schema) Between(source, target string) []Relationship {
	var out []Relationship
	for _, r := range s.relationships {
		if r.SourceTable == source && r.TargetTable == target {
			out = append(out, r)
		}
	}
	return out
}
